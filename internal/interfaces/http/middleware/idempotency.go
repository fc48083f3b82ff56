package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/retailos/backoffice/internal/infrastructure/cache"
	"github.com/retailos/backoffice/internal/interfaces/http/dto"
)

// IdempotencyHeader is the request header clients use to deduplicate
// settlement submissions on retry.
const IdempotencyHeader = "Idempotency-Key"

// Idempotency guards mutating endpoints against duplicate submissions.
// A request carrying an Idempotency-Key claims the key before the handler
// runs; a second request with the same key gets 409 while the claim holds.
// Keys are released when the handler fails, so clients can retry errors
// with the same key. Requests without the header pass through untouched.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		claimed, err := store.MarkProcessed(c.Request.Context(), key, ttl)
		if err != nil {
			// Store outage must not block settlements; log and continue.
			logger.Warn("idempotency store unavailable, skipping dedup check",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !claimed {
			requestID, _ := c.Get("request_id")
			rid, _ := requestID.(string)
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicate,
				"A request with this idempotency key was already processed",
				rid,
			))
			return
		}

		c.Next()

		// Failed requests release the key so the client can retry it.
		if c.Writer.Status() >= http.StatusInternalServerError {
			if err := store.Release(c.Request.Context(), key); err != nil {
				logger.Warn("failed to release idempotency key",
					zap.String("idempotency_key", key),
					zap.Error(err),
				)
			}
		}
	}
}
