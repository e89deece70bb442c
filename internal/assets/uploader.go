package assets

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Content types of generated artifacts.
const (
	ContentTypeMP3 = "audio/mpeg"
	ContentTypeMP4 = "video/mp4"
)

// BlobStore puts bytes under key and returns a public URL.
type BlobStore interface {
	Put(ctx context.Context, body []byte, key, contentType string) (string, error)
}

// UploadError is returned when the blob store rejects an upload. Message carries the provider's text.
type UploadError struct {
	Filename string
	Message  string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %s", e.Filename, e.Message)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Uploader pushes in-memory buffers to durable storage. Safe for concurrent use.
type Uploader struct {
	store  BlobStore
	prefix string
	log    *zap.Logger
}

// NewUploader creates an uploader writing objects under prefix.
func NewUploader(store BlobStore, prefix string, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{store: store, prefix: strings.Trim(prefix, "/"), log: log}
}

// Upload stores buf as filename and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, buf []byte, filename, contentType string) (string, error) {
	if len(buf) == 0 {
		return "", &UploadError{Filename: filename, Message: "empty buffer", Err: errors.New("empty buffer")}
	}
	key := path.Join(u.prefix, path.Clean("/" + filename)[1:])
	url, err := u.store.Put(ctx, buf, key, contentType)
	if err != nil {
		// the key carries the owner id; keep it out of the message
		msg := strings.ReplaceAll(err.Error(), key, "object")
		return "", &UploadError{Filename: filename, Message: msg, Err: err}
	}
	u.log.Info("asset uploaded", zap.String("key", key), zap.String("content_type", contentType), zap.Int("size", len(buf)))
	return url, nil
}

// Filename builds a unique object name: {owner}/{kind}-{unix-ms}-{rand}.{ext}.
func Filename(owner, kind, ext string) string {
	return fmt.Sprintf("%s/%s-%d-%s.%s", owner, kind, time.Now().UnixMilli(), uuid.NewString()[:8], strings.TrimPrefix(ext, "."))
}
