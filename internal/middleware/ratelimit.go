package middleware

import (
	"log/slog"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
)

// RateLimit caps requests per client IP using the given limiter. Limiter
// failures let the request through.
func RateLimit(scope string, limiter ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := limiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			metrics.RateLimitDecisions.WithLabelValues(scope, "error").Inc()
			slog.Warn("rate limiter unavailable, allowing request",
				"scope", scope,
				"ip", c.IP(),
				"request_id", requestID(c),
				"error", err,
			)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			metrics.RateLimitDecisions.WithLabelValues(scope, "rejected").Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(ratelimit.RetryAfterSeconds(res.RetryAfter)))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error:   true,
				Code:    "rate_limited",
				Message: "Too many requests. Please try again later.",
			})
		}

		metrics.RateLimitDecisions.WithLabelValues(scope, "allowed").Inc()
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
