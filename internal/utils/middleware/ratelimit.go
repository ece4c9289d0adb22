package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orderledger/server/internal/port/outbound"
	apperrors "github.com/orderledger/server/internal/utils/errors"
	"github.com/orderledger/server/internal/utils/logger"
)

const (
	// RateLimitRemaining is the header for remaining requests.
	RateLimitRemaining = "X-RateLimit-Remaining"
	// RateLimitLimit is the header for the limit.
	RateLimitLimit = "X-RateLimit-Limit"
	// RetryAfter is the header for retry time.
	RetryAfter = "Retry-After"
)

// RateLimitConfig holds rate limit configuration.
type RateLimitConfig struct {
	// Name separates the counters of independently limited routes.
	Name   string
	Limit  int
	Window time.Duration
	// KeyFunc identifies the caller. Defaults to ActorKeyFunc.
	KeyFunc func(*gin.Context) string
	Logger  *logger.Logger
}

// ActorKeyFunc keys authenticated callers by user id and others by client IP.
func ActorKeyFunc(c *gin.Context) string {
	if id := GetActor(c).UserIDPtr(); id != nil {
		return "user:" + id.String()
	}
	return "ip:" + c.ClientIP()
}

// RateLimit rejects callers over cfg.Limit requests per cfg.Window. A nil
// limiter disables it; limiter errors let the request through.
func RateLimit(limiter outbound.RateLimiterPort, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ActorKeyFunc
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New(nil)
	}

	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := cfg.Name + ":" + cfg.KeyFunc(c)
		ctx := c.Request.Context()

		allowed, err := limiter.Allow(ctx, key, cfg.Limit, cfg.Window)
		if err != nil {
			cfg.Logger.Warn("rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}

		c.Header(RateLimitLimit, strconv.Itoa(cfg.Limit))
		if remaining, err := limiter.GetRemaining(ctx, key, cfg.Limit, cfg.Window); err == nil {
			c.Header(RateLimitRemaining, strconv.Itoa(remaining))
		}

		if !allowed {
			c.Header(RetryAfter, strconv.Itoa(int(cfg.Window.Seconds())))
			appErr := apperrors.RateLimited("")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, appErr.ToResponse())
			return
		}

		c.Next()
	}
}
