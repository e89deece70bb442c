package videos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/draftcast/backend/internal/models"
)

type fakeRow struct{ err error }

func (r fakeRow) Scan(...any) error { return r.err }

type fakeDB struct {
	sql     string
	args    []any
	tag     pgconn.CommandTag
	execErr error
	rowErr  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	return f.tag, f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql, f.args = sql, args
	return fakeRow{err: f.rowErr}
}

func TestCreateAssignsID(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := &Repository{db: db}
	draft := "d1"
	v := &models.Video{VideoURL: "https://v", Title: "t", UserID: "u1", DraftID: &draft, Status: models.VideoStatusCompleted, CreatedAt: time.Now()}

	id, err := repo.Create(context.Background(), v)
	require.NoError(t, err)
	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
	assert.Equal(t, id, v.ID)
	assert.Contains(t, db.sql, "INSERT INTO videos")
	assert.Equal(t, "https://v", db.args[1])
	assert.Nil(t, db.args[2].(*string))
}

func TestCreatePropagatesError(t *testing.T) {
	repo := &Repository{db: &fakeDB{execErr: errors.New("connection refused")}}
	_, err := repo.Create(context.Background(), &models.Video{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLinkDraft(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := &Repository{db: db}
	require.NoError(t, repo.LinkDraft(context.Background(), "d1", "u1", "https://v", "vid"))
	assert.Contains(t, db.sql, "UPDATE drafts SET video_url")
	assert.Contains(t, db.sql, "WHERE id = $3 AND user_id = $4")
	assert.Equal(t, []any{"https://v", "vid", "d1", "u1"}, db.args)
}

func TestLinkDraftMissingDraft(t *testing.T) {
	repo := &Repository{db: &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}}
	err := repo.LinkDraft(context.Background(), "nope", "u1", "https://v", "vid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkDraftOwnedByAnotherUser(t *testing.T) {
	// the owner predicate matches no row when the draft belongs to someone else
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}
	repo := &Repository{db: db}
	err := repo.LinkDraft(context.Background(), "bobs-draft", "alice", "https://v", "vid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "alice", db.args[3])
}

func TestGetByIDNotFound(t *testing.T) {
	repo := &Repository{db: &fakeDB{rowErr: pgx.ErrNoRows}}
	_, err := repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDraftFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, bson.M{"_id": oid, "userId": "u1"}, draftFilter(oid.Hex(), "u1"))
	assert.Equal(t, bson.M{"_id": "draft-abc", "userId": "u1"}, draftFilter("draft-abc", "u1"))
}
