package videos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftcast/backend/internal/models"
)

// ErrNotFound is returned when a video or draft does not exist.
var ErrNotFound = errors.New("not found")

// Store persists video records and back-links them to drafts.
type Store interface {
	Create(ctx context.Context, v *models.Video) (string, error)
	GetByID(ctx context.Context, id string) (*models.Video, error)
	LinkDraft(ctx context.Context, draftID, userID, videoURL, videoID string) error
}

// querier is the subset of pgxpool.Pool used by Repository.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles video persistence in PostgreSQL.
type Repository struct {
	db querier
}

// NewRepository creates a videos repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Create inserts a video record and returns its id.
func (r *Repository) Create(ctx context.Context, v *models.Video) (string, error) {
	const q = `INSERT INTO videos (id, video_url, audio_url, title, user_id, draft_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	id := uuid.New()
	if _, err := r.db.Exec(ctx, q, id, v.VideoURL, v.AudioURL, v.Title, v.UserID, v.DraftID, v.Status, v.CreatedAt); err != nil {
		return "", fmt.Errorf("insert video: %w", err)
	}
	v.ID = id.String()
	return v.ID, nil
}

// GetByID returns a video by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	videoID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	const q = `SELECT id, video_url, audio_url, title, user_id, draft_id, status, created_at FROM videos WHERE id = $1`
	var (
		v   models.Video
		vid uuid.UUID
	)
	err = r.db.QueryRow(ctx, q, videoID).Scan(&vid, &v.VideoURL, &v.AudioURL, &v.Title, &v.UserID, &v.DraftID, &v.Status, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.ID = vid.String()
	return &v, nil
}

// LinkDraft records the produced video on its originating draft. Only the draft's owner can link it.
func (r *Repository) LinkDraft(ctx context.Context, draftID, userID, videoURL, videoID string) error {
	const q = `UPDATE drafts SET video_url = $1, video_doc_id = $2, updated_at = NOW() WHERE id = $3 AND user_id = $4`
	tag, err := r.db.Exec(ctx, q, videoURL, videoID, draftID, userID)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("draft %s: %w", draftID, ErrNotFound)
	}
	return nil
}
