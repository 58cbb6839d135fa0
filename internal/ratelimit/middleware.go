package ratelimit

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-gateway/internal/observability"
	"github.com/spec-kit/auth-gateway/internal/pathmatch"
	"github.com/spec-kit/auth-gateway/pkg/util"
)

// Config tunes the admission-control middleware.
type Config struct {
	MaxRequests   int64
	ExcludedPaths []string
}

// New returns a middleware that rejects requests over the per-client budget
// before they reach business logic. Store failures admit the request; losing
// a counter beats refusing traffic.
func New(store Store, cfg Config, logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	skip := pathmatch.Routes(cfg.ExcludedPaths)

	return func(c *fiber.Ctx) error {
		if skip.Matches(c.Path()) {
			return c.Next()
		}

		key := clientKey(c)
		count, resetAt, err := store.Hit(c.UserContext(), key)
		if err != nil {
			logger.Warn("rate limit store unavailable, admitting request",
				zap.Error(err), zap.String("client", key))
			return c.Next()
		}

		if count > cfg.MaxRequests {
			retryAfter := int64(math.Ceil(time.Until(resetAt).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			logger.Warn("rate limit exceeded",
				zap.String("client", key),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.Int64("count", count),
				zap.Int64("limit", cfg.MaxRequests))
			metrics.RecordRateLimitReject(key)
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))
			return util.NewRateLimited("Too many requests, please try again later", map[string]any{
				"retry_after_seconds": retryAfter,
			})
		}

		return c.Next()
	}
}

// clientKey resolves the counter key for a request. Fallback chain:
// framework-reported IP, transport remote address, literal "unknown".
func clientKey(c *fiber.Ctx) string {
	if ip := c.IP(); ip != "" {
		return ip
	}
	if addr := c.Context().RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
