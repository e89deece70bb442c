package videogen

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftcast/backend/internal/assets"
	"github.com/draftcast/backend/internal/models"
	"github.com/draftcast/backend/internal/slideshow"
)

// Narrator produces narration audio for a draft.
type Narrator interface {
	Synthesize(ctx context.Context, title, content string) ([]byte, error)
}

// Uploader stores an artifact and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, buf []byte, filename, contentType string) (string, error)
}

// Composer renders the slideshow video.
type Composer interface {
	Compose(ctx context.Context, images []string, title string, audioURL *string) (*slideshow.Output, error)
}

// RecordStore persists the finished video and back-links it to its draft.
type RecordStore interface {
	Create(ctx context.Context, v *models.Video) (string, error)
	LinkDraft(ctx context.Context, draftID, userID, videoURL, videoID string) error
}

// Result is a completed job.
type Result struct {
	VideoURL   string
	AudioURL   *string
	DocID      string
	Title      string
	SlideCount int
	Plan       slideshow.Plan
}

// Service runs the narrated slideshow pipeline synchronously, one call per request.
type Service struct {
	narrator      Narrator
	uploader      Uploader
	composer      Composer
	store         RecordStore
	renderTimeout time.Duration
	now           func() time.Time
	log           *zap.Logger
}

// NewService creates the pipeline. renderTimeout bounds the compose stage; zero means no deadline.
func NewService(narrator Narrator, uploader Uploader, composer Composer, store RecordStore, renderTimeout time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		narrator:      narrator,
		uploader:      uploader,
		composer:      composer,
		store:         store,
		renderTimeout: renderTimeout,
		now:           time.Now,
		log:           log,
	}
}

// Generate validates req and runs every stage. Narration failures are absorbed;
// composition, video upload and persistence failures are returned.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	job, err := Validate(req)
	if err != nil {
		return nil, err
	}
	log := s.log.With(zap.String("job_id", uuid.NewString()), zap.String("user_id", job.UserID), zap.Int("slides", len(job.Images)))
	if job.DraftID != nil {
		log = log.With(zap.String("draft_id", *job.DraftID))
	}
	log.Info("video job started")

	audioURL := s.narrate(ctx, job, log)

	out, err := s.compose(ctx, job, audioURL, log)
	if err != nil {
		return nil, err
	}
	defer s.cleanup(out.Scratch, log)

	videoURL, err := s.uploader.Upload(ctx, out.Video, assets.Filename(job.UserID, "video", "mp4"), assets.ContentTypeMP4)
	if err != nil {
		log.Error("video job failed", zap.String("stage", StageUploadVideo), zap.Error(err))
		return nil, &StageError{Stage: StageUploadVideo, Err: err}
	}

	record := &models.Video{
		VideoURL:  videoURL,
		AudioURL:  audioURL,
		Title:     job.Title,
		UserID:    job.UserID,
		DraftID:   job.DraftID,
		Status:    models.VideoStatusCompleted,
		CreatedAt: s.now().UTC(),
	}
	docID, err := s.store.Create(ctx, record)
	if err != nil {
		// The uploaded video has no record now; no rollback is attempted.
		log.Error("video record not persisted, uploaded artifact is orphaned",
			zap.String("stage", StagePersist), zap.String("video_url", videoURL), zap.Error(err))
		return nil, &PersistenceError{VideoURL: videoURL, Err: err}
	}

	if job.DraftID != nil {
		if err := s.store.LinkDraft(ctx, *job.DraftID, job.UserID, videoURL, docID); err != nil {
			log.Warn("draft back-link failed", zap.String("stage", StageBackLink), zap.String("video_id", docID), zap.Error(err))
		}
	}

	log.Info("video job completed",
		zap.String("video_id", docID),
		zap.Bool("narration", audioURL != nil),
		zap.Int("total_frames", out.Plan.TotalFrames),
	)
	return &Result{
		VideoURL:   videoURL,
		AudioURL:   audioURL,
		DocID:      docID,
		Title:      job.Title,
		SlideCount: len(job.Images),
		Plan:       out.Plan,
	}, nil
}

// narrate synthesizes and uploads narration. Any failure, including a panic, yields nil.
func (s *Service) narrate(ctx context.Context, job Job, log *zap.Logger) (audioURL *string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("narration panicked, continuing without audio", zap.Any("panic", r))
			audioURL = nil
		}
	}()

	audio, err := s.narrator.Synthesize(ctx, job.Title, job.Content)
	if err != nil {
		log.Warn("narration skipped", zap.String("stage", StageSynthesize), zap.Error(err))
		return nil
	}
	url, err := s.uploader.Upload(ctx, audio, assets.Filename(job.UserID, "narration", "mp3"), assets.ContentTypeMP3)
	if err != nil {
		log.Warn("narration skipped", zap.String("stage", StageUploadAudio), zap.Error(err))
		return nil
	}
	return &url
}

func (s *Service) compose(ctx context.Context, job Job, audioURL *string, log *zap.Logger) (*slideshow.Output, error) {
	renderCtx := ctx
	if s.renderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, s.renderTimeout)
		defer cancel()
	}
	out, err := s.composer.Compose(renderCtx, job.Images, job.Title, audioURL)
	if err != nil {
		log.Error("video job failed", zap.String("stage", StageCompose), zap.Error(err))
		return nil, &StageError{Stage: StageCompose, Err: err}
	}
	if out == nil || len(out.Video) == 0 {
		if out != nil {
			s.cleanup(out.Scratch, log)
		}
		return nil, &StageError{Stage: StageCompose, Err: errors.New("empty render output")}
	}
	return out, nil
}

func (s *Service) cleanup(scratch *slideshow.Scratch, log *zap.Logger) {
	if err := scratch.Release(); err != nil {
		log.Warn("scratch cleanup failed", zap.String("dir", scratch.Dir()), zap.Error(err))
	}
}
