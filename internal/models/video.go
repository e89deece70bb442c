package models

import (
	"time"
)

// VideoStatus values. Records are only written once a job has completed.
const (
	VideoStatusCompleted = "completed"
)

// Video is a generated narrated slideshow.
type Video struct {
	ID        string    `json:"id" bson:"-"`
	VideoURL  string    `json:"videoUrl" bson:"videoUrl"`
	AudioURL  *string   `json:"audioUrl" bson:"audioUrl"`
	Title     string    `json:"title" bson:"title"`
	UserID    string    `json:"userId" bson:"userId"`
	DraftID   *string   `json:"draftId" bson:"draftId"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
