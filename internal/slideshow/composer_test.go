package slideshow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	comp    Composition
	outPath string
	video   []byte
	err     error
	block   bool
}

func (f *fakeRenderer) Render(ctx context.Context, comp Composition, outputPath string) error {
	f.comp, f.outPath = comp, outputPath
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		// leave a partial artifact behind like a crashed encoder would
		_ = os.WriteFile(outputPath, []byte("partial"), 0o600)
		return f.err
	}
	return os.WriteFile(outputPath, f.video, 0o600)
}

func scratchDirs(t *testing.T, root string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(root, "slideshow-*"))
	require.NoError(t, err)
	return matches
}

func TestComposeReturnsVideoAndScratch(t *testing.T) {
	root := t.TempDir()
	r := &fakeRenderer{video: []byte("mp4")}
	c := NewComposer(r, root, nil)
	audio := "https://cdn.test/a.mp3"

	out, err := c.Compose(context.Background(), images(3), "My Title", &audio)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4"), out.Video)
	assert.Equal(t, 8, out.Plan.SecondsPerSlide)
	assert.Equal(t, 720, out.Plan.TotalFrames)

	assert.Equal(t, CompositionID, r.comp.ID)
	assert.Equal(t, "My Title", r.comp.Title)
	assert.Equal(t, audio, r.comp.AudioURL)
	assert.Equal(t, Codec, r.comp.Codec)
	assert.Equal(t, out.Scratch.Dir(), filepath.Dir(r.outPath))

	_, err = os.Stat(out.Scratch.Dir())
	require.NoError(t, err, "scratch stays until the caller releases it")
	require.NoError(t, out.Scratch.Release())
	assert.Empty(t, scratchDirs(t, root))
}

func TestComposeWithoutNarration(t *testing.T) {
	r := &fakeRenderer{video: []byte("mp4")}
	out, err := NewComposer(r, t.TempDir(), nil).Compose(context.Background(), images(1), "t", nil)
	require.NoError(t, err)
	defer out.Scratch.Release()
	assert.Empty(t, r.comp.AudioURL)
}

func TestComposeFailureRemovesScratch(t *testing.T) {
	root := t.TempDir()
	r := &fakeRenderer{err: errors.New("encoder crashed")}

	_, err := NewComposer(r, root, nil).Compose(context.Background(), images(2), "t", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder crashed")
	assert.Empty(t, scratchDirs(t, root))
}

func TestComposeEmptyOutputRemovesScratch(t *testing.T) {
	root := t.TempDir()
	_, err := NewComposer(&fakeRenderer{}, root, nil).Compose(context.Background(), images(2), "t", nil)
	require.Error(t, err)
	assert.Empty(t, scratchDirs(t, root))
}

func TestComposeRejectsNoImages(t *testing.T) {
	root := t.TempDir()
	_, err := NewComposer(&fakeRenderer{}, root, nil).Compose(context.Background(), nil, "t", nil)
	require.Error(t, err)
	assert.Empty(t, scratchDirs(t, root))
}

func TestComposeDeadlineRemovesScratch(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewComposer(&fakeRenderer{block: true}, root, nil).Compose(ctx, images(2), "t", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, scratchDirs(t, root))
}
