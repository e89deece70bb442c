package videogen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftcast/backend/internal/assets"
	"github.com/draftcast/backend/internal/models"
	"github.com/draftcast/backend/internal/slideshow"
)

type fakeNarrator struct {
	audio []byte
	err   error
	panic bool
	calls int
}

func (f *fakeNarrator) Synthesize(context.Context, string, string) ([]byte, error) {
	f.calls++
	if f.panic {
		panic("speech client exploded")
	}
	return f.audio, f.err
}

type upload struct {
	filename    string
	contentType string
	size        int
}

type fakeUploader struct {
	mu      sync.Mutex
	failFor map[string]error // by content type
	uploads []upload
}

func (f *fakeUploader) Upload(_ context.Context, buf []byte, filename, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[contentType]; err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, upload{filename: filename, contentType: contentType, size: len(buf)})
	return "https://cdn.example.com/" + filename, nil
}

type fakeRenderer struct {
	comp  slideshow.Composition
	err   error
	block bool
}

func (f *fakeRenderer) Render(ctx context.Context, comp slideshow.Composition, outputPath string) error {
	f.comp = comp
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte("mp4-bytes"), 0o600)
}

type link struct {
	draftID, userID, videoURL, videoID string
}

type fakeStore struct {
	createErr error
	linkErr   error
	created   []*models.Video
	links     []link
}

func (f *fakeStore) Create(_ context.Context, v *models.Video) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	v.ID = "doc-1"
	f.created = append(f.created, v)
	return v.ID, nil
}

func (f *fakeStore) LinkDraft(_ context.Context, draftID, userID, videoURL, videoID string) error {
	f.links = append(f.links, link{draftID, userID, videoURL, videoID})
	return f.linkErr
}

type harness struct {
	narrator *fakeNarrator
	uploader *fakeUploader
	renderer *fakeRenderer
	store    *fakeStore
	scratch  string
	svc      *Service
}

func newHarness(t *testing.T, renderTimeout time.Duration) *harness {
	t.Helper()
	h := &harness{
		narrator: &fakeNarrator{audio: []byte("mp3-bytes")},
		uploader: &fakeUploader{failFor: map[string]error{}},
		renderer: &fakeRenderer{},
		store:    &fakeStore{},
		scratch:  t.TempDir(),
	}
	composer := slideshow.NewComposer(h.renderer, h.scratch, nil)
	h.svc = NewService(h.narrator, h.uploader, composer, h.store, renderTimeout, nil)
	h.svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func (h *harness) scratchDirs(t *testing.T) []string {
	t.Helper()
	m, err := filepath.Glob(filepath.Join(h.scratch, "slideshow-*"))
	require.NoError(t, err)
	return m
}

func request(n int) Request {
	req := Request{Title: "Coast trip", Content: "We went to the coast.", UserID: "u1"}
	for i := 0; i < n; i++ {
		req.Images = append(req.Images, "https://img.example.com/"+string(rune('a'+i))+".png")
	}
	return req
}

func TestGenerateHappyPath(t *testing.T) {
	h := newHarness(t, 0)

	res, err := h.svc.Generate(context.Background(), request(3))
	require.NoError(t, err)

	assert.Equal(t, 3, res.SlideCount)
	assert.Equal(t, 8, res.Plan.SecondsPerSlide)
	assert.Equal(t, 720, res.Plan.TotalFrames)
	assert.Equal(t, "doc-1", res.DocID)
	assert.Equal(t, "Coast trip", res.Title)
	require.NotNil(t, res.AudioURL)
	assert.True(t, strings.HasSuffix(*res.AudioURL, ".mp3"))
	assert.True(t, strings.HasSuffix(res.VideoURL, ".mp4"))

	assert.Equal(t, *res.AudioURL, h.renderer.comp.AudioURL)
	assert.Equal(t, slideshow.CompositionID, h.renderer.comp.ID)

	require.Len(t, h.uploader.uploads, 2)
	assert.Equal(t, assets.ContentTypeMP3, h.uploader.uploads[0].contentType)
	assert.Equal(t, assets.ContentTypeMP4, h.uploader.uploads[1].contentType)
	assert.True(t, strings.HasPrefix(h.uploader.uploads[1].filename, "u1/"))

	require.Len(t, h.store.created, 1)
	rec := h.store.created[0]
	assert.Equal(t, res.VideoURL, rec.VideoURL)
	assert.Equal(t, res.AudioURL, rec.AudioURL)
	assert.Equal(t, models.VideoStatusCompleted, rec.Status)
	assert.Equal(t, "u1", rec.UserID)
	assert.Nil(t, rec.DraftID)

	assert.Empty(t, h.store.links)
	assert.Empty(t, h.scratchDirs(t))
}

func TestGenerateNarrationFailureContinuesSilently(t *testing.T) {
	h := newHarness(t, 0)
	h.narrator.err = errors.New("quota exceeded")

	res, err := h.svc.Generate(context.Background(), request(2))
	require.NoError(t, err)
	assert.Nil(t, res.AudioURL)
	assert.Empty(t, h.renderer.comp.AudioURL)
	require.Len(t, h.store.created, 1)
	assert.Nil(t, h.store.created[0].AudioURL)
}

func TestGenerateAudioUploadFailureContinuesSilently(t *testing.T) {
	h := newHarness(t, 0)
	h.uploader.failFor[assets.ContentTypeMP3] = errors.New("access denied")

	res, err := h.svc.Generate(context.Background(), request(2))
	require.NoError(t, err)
	assert.Nil(t, res.AudioURL)
	require.Len(t, h.uploader.uploads, 1)
	assert.Equal(t, assets.ContentTypeMP4, h.uploader.uploads[0].contentType)
}

func TestGenerateNarrationPanicIsAbsorbed(t *testing.T) {
	h := newHarness(t, 0)
	h.narrator.panic = true

	res, err := h.svc.Generate(context.Background(), request(1))
	require.NoError(t, err)
	assert.Nil(t, res.AudioURL)
}

func TestGenerateComposeFailure(t *testing.T) {
	h := newHarness(t, 0)
	h.renderer.err = errors.New("encoder crashed")

	_, err := h.svc.Generate(context.Background(), request(2))
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageCompose, stageErr.Stage)
	assert.Empty(t, h.store.created)
	assert.Empty(t, h.scratchDirs(t))
}

func TestGenerateVideoUploadFailure(t *testing.T) {
	h := newHarness(t, 0)
	h.uploader.failFor[assets.ContentTypeMP4] = errors.New("bucket missing")

	_, err := h.svc.Generate(context.Background(), request(2))
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageUploadVideo, stageErr.Stage)
	assert.Empty(t, h.store.created)
	assert.Empty(t, h.scratchDirs(t))
}

func TestGeneratePersistenceFailure(t *testing.T) {
	h := newHarness(t, 0)
	h.store.createErr = errors.New("connection reset")

	_, err := h.svc.Generate(context.Background(), request(2))
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.True(t, strings.HasSuffix(persistErr.VideoURL, ".mp4"))
	assert.Empty(t, h.store.links)
	assert.Empty(t, h.scratchDirs(t))
}

func TestGenerateLinksDraft(t *testing.T) {
	h := newHarness(t, 0)
	req := request(2)
	req.DraftID = strPtr("d1")

	res, err := h.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, h.store.links, 1)
	assert.Equal(t, link{"d1", "u1", res.VideoURL, res.DocID}, h.store.links[0])
	require.NotNil(t, h.store.created[0].DraftID)
	assert.Equal(t, "d1", *h.store.created[0].DraftID)
}

func TestGenerateBackLinkFailureStillSucceeds(t *testing.T) {
	h := newHarness(t, 0)
	h.store.linkErr = errors.New("draft d1: not found")
	req := request(2)
	req.DraftID = strPtr("d1")

	res, err := h.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", res.DocID)
}

func TestGenerateValidationRunsNothing(t *testing.T) {
	h := newHarness(t, 0)
	req := request(2)
	req.UserID = ""

	_, err := h.svc.Generate(context.Background(), req)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, h.narrator.calls)
	assert.Empty(t, h.uploader.uploads)
}

func TestGenerateRenderTimeout(t *testing.T) {
	h := newHarness(t, 20*time.Millisecond)
	h.renderer.block = true

	_, err := h.svc.Generate(context.Background(), request(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, h.scratchDirs(t))
	assert.Empty(t, h.store.created)
}
