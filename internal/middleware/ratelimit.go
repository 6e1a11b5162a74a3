package middleware

import (
	"net"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/VKx64/Farely-Backend/internal/apperr"
	"github.com/VKx64/Farely-Backend/internal/ratelimit"
)

// RateLimit gates requests through a fixed-window limiter, keyed by keyFunc.
func RateLimit(limiter ratelimit.Limiter, keyFunc func(c *fiber.Ctx) string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := limiter.Allow(c.Context(), keyFunc(c))
		if err != nil {
			log.Error("rate limiter check failed", zap.Error(err))
			return apperr.Internal("rate limiter error")
		}
		if !res.Allowed {
			log.Warn("rate limit exceeded",
				zap.String("path", c.Path()),
				zap.String("ip", ClientIP(c)),
			)
			return apperr.RateLimited(res.RetryAfterSeconds())
		}
		return c.Next()
	}
}

// ClientIP derives the caller address used as the general rate-limit key.
func ClientIP(c *fiber.Ctx) string {
	ip := c.IP()
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}
