package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lyra-backend-go/pkg/ratelimit"
)

// KeyFunc picks the rate limit key of a request. An empty key skips limiting.
type KeyFunc func(c *gin.Context) string

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// errors are logged and the request is let through.
func RateLimit(limiter ratelimit.Limiter, key KeyFunc, retryAfter time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	retry := strconv.Itoa(int(retryAfter.Seconds()))
	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}
		allowed, err := limiter.Allow(c.Request.Context(), k)
		if err != nil {
			logger.Error("Rate limiter unavailable", zap.String("key", k), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", retry)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded", Details: "try again later"})
			return
		}
		c.Next()
	}
}
