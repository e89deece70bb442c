package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/draftcast/backend/pkg/response"
)

// Counter counts hits in a fixed window keyed by caller.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit allows limit requests per window per caller, keyed by verified user ID or client IP.
// Counter errors let the request through.
func RateLimit(counter Counter, scope string, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}
		caller := c.GetString(ContextUserID)
		if caller == "" {
			caller = "ip:" + c.ClientIP()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", scope, caller)

		n, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if n > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.TooManyRequests(c, "too many video requests, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
