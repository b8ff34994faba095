package middleware

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"mojster_trust/internal/ratelimit"
	"mojster_trust/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultRateLimitMax      = 10
	defaultRateLimitWindowMS = 60000
)

// RateLimit gates write-heavy endpoints per actor. Anonymous requests fall
// back to the client IP as the key. Rejections carry a Retry-After header and
// retry_after_seconds in the error body.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	maxRequests := intFromEnv("RATE_LIMIT_MAX", defaultRateLimitMax)
	window := time.Duration(intFromEnv("RATE_LIMIT_WINDOW_MS", defaultRateLimitWindowMS)) * time.Millisecond

	return func(c *gin.Context) {
		key := c.ClientIP()
		if actor, ok := ActorFromContext(c); ok {
			key = actor.ID
		}

		decision := limiter.Allow(key, maxRequests, window)
		if !decision.Allowed {
			zap.S().Infof("[ratelimit][middleware] rejected key=%s retry_after=%ds", key, decision.RetryAfterSeconds)
			appErr := pkg.NewRateLimitError("RATE_LIMITED", "Too many requests", http.StatusTooManyRequests, int(decision.RetryAfterSeconds))
			c.Header("Retry-After", strconv.FormatInt(decision.RetryAfterSeconds, 10))
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		c.Next()
	}
}

func intFromEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
