package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses by endpoint unless the
// handler already set one.
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
		case path == "/api/v1/health" || path == "/api/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/graphql":
			ttl = "private, max-age=0"

		case strings.Contains(path, "/test-sentry"), strings.Contains(path, "/examples/"):
			ttl = "no-store" // every call is a fresh event or timestamp

		case strings.HasSuffix(path, "/projects/nearby"):
			ttl = "public, max-age=60"

		case strings.Contains(path, "/projects"):
			ttl = "public, max-age=30"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
