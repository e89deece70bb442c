package slideshow

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// CompositionID names the single slideshow layout the renderer knows.
const CompositionID = "Slideshow"

// Output frame geometry and codec.
const (
	Width  = 1280
	Height = 720
	Codec  = "h264"
)

// Composition is everything the renderer needs for one render call.
type Composition struct {
	ID       string
	Title    string
	AudioURL string // empty when there is no narration
	Plan     Plan
	Codec    string
	Width    int
	Height   int
}

// Renderer produces a video file at outputPath from a composition.
type Renderer interface {
	Render(ctx context.Context, comp Composition, outputPath string) error
}

// Output is a rendered video held in memory. Scratch must be released by the caller.
type Output struct {
	Video   []byte
	Plan    Plan
	Scratch *Scratch
}

// Composer turns images, a title and optional narration into an MP4.
type Composer struct {
	renderer    Renderer
	scratchRoot string
	log         *zap.Logger
}

// NewComposer creates a composer. scratchRoot may be empty to use os.TempDir().
func NewComposer(renderer Renderer, scratchRoot string, log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{renderer: renderer, scratchRoot: scratchRoot, log: log}
}

// Compose renders the slideshow. On error the scratch directory is already gone.
func (c *Composer) Compose(ctx context.Context, images []string, title string, audioURL *string) (*Output, error) {
	if len(images) == 0 {
		return nil, errors.New("no images to compose")
	}
	plan := NewPlan(images)
	comp := Composition{
		ID:     CompositionID,
		Title:  title,
		Plan:   plan,
		Codec:  Codec,
		Width:  Width,
		Height: Height,
	}
	if audioURL != nil {
		comp.AudioURL = *audioURL
	}

	scratch, err := NewScratch(c.scratchRoot)
	if err != nil {
		return nil, err
	}
	out, err := c.render(ctx, scratch, comp)
	if err != nil {
		if relErr := scratch.Release(); relErr != nil {
			c.log.Warn("release scratch failed", zap.String("dir", scratch.Dir()), zap.Error(relErr))
		}
		return nil, err
	}
	return out, nil
}

func (c *Composer) render(ctx context.Context, scratch *Scratch, comp Composition) (*Output, error) {
	outputPath := scratch.Path("slideshow.mp4")
	c.log.Info("render starting",
		zap.String("dir", scratch.Dir()),
		zap.Int("slides", len(comp.Plan.Images)),
		zap.Int("seconds_per_slide", comp.Plan.SecondsPerSlide),
		zap.Int("total_frames", comp.Plan.TotalFrames),
		zap.Bool("narration", comp.AudioURL != ""),
	)
	if err := c.renderer.Render(ctx, comp, outputPath); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("render: %w", ctxErr)
		}
		return nil, fmt.Errorf("render: %w", err)
	}
	video, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("read rendered video: %w", err)
	}
	if len(video) == 0 {
		return nil, errors.New("renderer produced an empty video")
	}
	return &Output{Video: video, Plan: comp.Plan, Scratch: scratch}, nil
}
