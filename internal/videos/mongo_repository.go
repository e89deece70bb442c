package videos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/draftcast/backend/internal/models"
)

// Mongo collection names.
const (
	CollectionVideos = "videos"
	CollectionDrafts = "drafts"
)

// MongoRepository stores videos and drafts as MongoDB documents.
type MongoRepository struct {
	videos *mongo.Collection
	drafts *mongo.Collection
}

// NewMongoRepository creates a repository over db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		videos: db.Collection(CollectionVideos),
		drafts: db.Collection(CollectionDrafts),
	}
}

// Create inserts a video document and returns its ObjectID hex.
func (r *MongoRepository) Create(ctx context.Context, v *models.Video) (string, error) {
	res, err := r.videos.InsertOne(ctx, v)
	if err != nil {
		return "", fmt.Errorf("insert video: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id %T", res.InsertedID)
	}
	v.ID = oid.Hex()
	return v.ID, nil
}

// GetByID returns a video by ObjectID hex.
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var v models.Video
	if err := r.videos.FindOne(ctx, bson.M{"_id": oid}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.ID = id
	return &v, nil
}

// LinkDraft sets videoUrl and videoDocId on the draft document owned by userID.
func (r *MongoRepository) LinkDraft(ctx context.Context, draftID, userID, videoURL, videoID string) error {
	update := bson.M{"$set": bson.M{
		"videoUrl":   videoURL,
		"videoDocId": videoID,
		"updatedAt":  time.Now().UTC(),
	}}
	res, err := r.drafts.UpdateOne(ctx, draftFilter(draftID, userID), update)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("draft %s: %w", draftID, ErrNotFound)
	}
	return nil
}

// draftFilter matches the owner's draft keyed by ObjectID or by an opaque string id.
func draftFilter(draftID, userID string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(draftID); err == nil {
		return bson.M{"_id": oid, "userId": userID}
	}
	return bson.M{"_id": draftID, "userId": userID}
}
