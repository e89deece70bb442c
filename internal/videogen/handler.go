package videogen

import (
	"context"
	"errors"
	"net/http"
	"os/exec"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/draftcast/backend/internal/assets"
	"github.com/draftcast/backend/internal/middleware"
	"github.com/draftcast/backend/pkg/response"
)

// Generator runs one video job.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// GenerateResponse is the 200 body of POST /video/generate.
type GenerateResponse struct {
	Success    bool    `json:"success"`
	VideoURL   string  `json:"videoUrl"`
	AudioURL   *string `json:"audioUrl"`
	DocID      string  `json:"docId"`
	Title      string  `json:"title"`
	SlideCount int     `json:"slideCount"`
}

// Handler serves the video generation endpoint.
type Handler struct {
	generator Generator
	logger    *zap.Logger
}

// NewHandler creates a video generation handler.
func NewHandler(generator Generator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{generator: generator, logger: logger}
}

// Generate handles POST /video/generate. The call blocks until the video is ready or the job fails.
func (h *Handler) Generate(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if verified := c.GetString(middleware.ContextUserID); verified != "" {
		if body := strings.TrimSpace(req.UserID); body != "" && body != verified {
			response.Unauthorized(c, "userId does not match token")
			return
		}
		req.UserID = verified
	}

	res, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{
		Success:    true,
		VideoURL:   res.VideoURL,
		AudioURL:   res.AudioURL,
		DocID:      res.DocID,
		Title:      res.Title,
		SlideCount: res.SlideCount,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		switch vErr.Status {
		case http.StatusUnauthorized:
			response.Unauthorized(c, vErr.Message)
		default:
			response.BadRequest(c, vErr.Message)
		}
		return
	}
	h.logger.Error("video generation failed", zap.Error(err))
	response.Internal(c, publicMessage(err))
}

// publicMessage keeps provider and encoder reasons but never stage names, local paths or object keys.
func publicMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "video generation timed out"
	}
	var persistErr *PersistenceError
	if errors.As(err, &persistErr) {
		return "failed to save video"
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		return "video generation failed"
	}
	switch stageErr.Stage {
	case StageCompose:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "video rendering failed: " + exitErr.String()
		}
		return "video rendering failed"
	case StageUploadVideo:
		var uploadErr *assets.UploadError
		if errors.As(err, &uploadErr) && uploadErr.Message != "" {
			return "video upload failed: " + uploadErr.Message
		}
		return "video upload failed"
	}
	return "video generation failed"
}
