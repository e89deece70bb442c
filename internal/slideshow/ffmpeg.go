package slideshow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// maxImageBytes bounds a single downloaded slide image.
const maxImageBytes = 20 * 1024 * 1024

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// FFmpegRenderer renders compositions with ffmpeg. Slides are encoded as independent
// segments on a fixed-size worker pool, then concatenated and muxed with narration.
type FFmpegRenderer struct {
	bin     string
	workers int
	http    *http.Client
	run     CommandRunner
	log     *zap.Logger
}

// NewFFmpegRenderer creates a renderer using the ffmpeg binary at bin with a fixed worker count.
func NewFFmpegRenderer(bin string, workers int, log *zap.Logger) *FFmpegRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	return &FFmpegRenderer{
		bin:     bin,
		workers: workers,
		http:    &http.Client{Timeout: 30 * time.Second},
		run:     execCommand,
		log:     log,
	}
}

// LookPath verifies the ffmpeg entry point is executable.
func (r *FFmpegRenderer) LookPath() error {
	if _, err := exec.LookPath(r.bin); err != nil {
		return fmt.Errorf("ffmpeg entry point %q: %w", r.bin, err)
	}
	return nil
}

// Render writes the composition to outputPath. Intermediate files go next to outputPath.
func (r *FFmpegRenderer) Render(ctx context.Context, comp Composition, outputPath string) error {
	dir := filepath.Dir(outputPath)
	segments, err := r.renderSegments(ctx, comp, dir)
	if err != nil {
		return err
	}

	listPath := filepath.Join(dir, "segments.txt")
	var list strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&list, "file '%s'\n", filepath.Base(seg))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o600); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	if err := r.run(ctx, r.bin, finalArgs(comp, listPath, outputPath)...); err != nil {
		return fmt.Errorf("mux slideshow: %w", err)
	}
	return nil
}

func (r *FFmpegRenderer) renderSegments(ctx context.Context, comp Composition, dir string) ([]string, error) {
	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return nil, fmt.Errorf("create render pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	segments := make([]string, len(comp.Plan.Images))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for i, imageURL := range comp.Plan.Images {
		if ctx.Err() != nil {
			break
		}
		i, imageURL := i, imageURL
		segments[i] = filepath.Join(dir, fmt.Sprintf("segment-%03d.mp4", i))
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				fail(ctx.Err())
				return
			}
			if err := r.renderSlide(ctx, comp, i, imageURL, dir, segments[i]); err != nil {
				fail(fmt.Errorf("slide %d: %w", i+1, err))
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit slide %d: %w", i+1, submitErr))
			break
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return segments, nil
}

func (r *FFmpegRenderer) renderSlide(ctx context.Context, comp Composition, index int, imageURL, dir, segmentPath string) error {
	imagePath := filepath.Join(dir, fmt.Sprintf("slide-%03d.img", index))
	if err := r.download(ctx, imageURL, imagePath); err != nil {
		return err
	}
	r.log.Debug("encoding slide", zap.Int("index", index), zap.String("segment", segmentPath))
	return r.run(ctx, r.bin, segmentArgs(comp, imagePath, segmentPath)...)
}

func (r *FFmpegRenderer) download(ctx context.Context, imageURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("create image request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open image file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(resp.Body, maxImageBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write image file: %w", err)
	}
	if n > maxImageBytes {
		return errors.New("image exceeds size limit")
	}
	return nil
}

// kenBurnsFilter is a slow centered zoom applied identically to every slide.
func kenBurnsFilter(comp Composition) string {
	frames := comp.Plan.FramesPerSlide()
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,"+
			"zoompan=z='min(zoom+0.0015,1.3)':d=%d:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':s=%dx%d:fps=%d,format=yuv420p",
		comp.Width*4, comp.Height*4, comp.Width*4, comp.Height*4,
		frames, comp.Width, comp.Height, FPS,
	)
}

func videoEncoder(codec string) string {
	switch codec {
	case "h265", "hevc":
		return "libx265"
	default:
		return "libx264"
	}
}

func segmentArgs(comp Composition, imagePath, segmentPath string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", imagePath,
		"-vf", kenBurnsFilter(comp),
		"-frames:v", strconv.Itoa(comp.Plan.FramesPerSlide()),
		"-r", strconv.Itoa(FPS),
		"-c:v", videoEncoder(comp.Codec), "-preset", "veryfast", "-pix_fmt", "yuv420p",
		"-an",
		segmentPath,
	}
}

func finalArgs(comp Composition, listPath, outputPath string) []string {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", listPath,
	}
	if comp.AudioURL != "" {
		args = append(args, "-i", comp.AudioURL, "-map", "0:v:0", "-map", "1:a:0",
			"-c:a", "aac", "-b:a", "128k", "-af", "apad")
	} else {
		args = append(args, "-an")
	}
	args = append(args,
		"-c:v", "copy",
		"-frames:v", strconv.Itoa(comp.Plan.TotalFrames),
		"-t", strconv.Itoa(comp.Plan.TotalSeconds),
		"-metadata", "title="+comp.Title,
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}

func execCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		return fmt.Errorf("%s: %w: %s", filepath.Base(name), err, msg)
	}
	return nil
}
