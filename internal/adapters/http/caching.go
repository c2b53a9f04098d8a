package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/v1/submissions":
			ttl = "private, max-age=0" // new submissions appear at any time

		case strings.HasPrefix(path, "/v1/search/"):
			ttl = "public, max-age=60"

		// Derived rows change only when a transform runs.
		case strings.HasSuffix(path, "/spatial") || strings.HasSuffix(path, "/metadata"):
			ttl = "public, max-age=120"

		case strings.HasPrefix(path, "/v1/submissions/"):
			ttl = "public, max-age=600" // submissions are immutable

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=60"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
