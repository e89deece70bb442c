package videos

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/draftcast/backend/internal/middleware"
	"github.com/draftcast/backend/internal/models"
	"github.com/draftcast/backend/pkg/response"
)

// Getter loads a video record.
type Getter interface {
	GetByID(ctx context.Context, id string) (*models.Video, error)
}

// Handler serves stored video records.
type Handler struct {
	store  Getter
	logger *zap.Logger
}

// NewHandler creates a videos handler.
func NewHandler(store Getter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// Get handles GET /videos/:id. A verified caller only sees their own videos.
func (h *Handler) Get(c *gin.Context) {
	v, err := h.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "video not found")
			return
		}
		h.logger.Error("get video", zap.String("id", c.Param("id")), zap.Error(err))
		response.Internal(c, "failed to load video")
		return
	}
	if caller := c.GetString(middleware.ContextUserID); caller != "" && caller != v.UserID {
		response.NotFound(c, "video not found")
		return
	}
	response.OK(c, v)
}
