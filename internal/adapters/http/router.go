package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/websocket/v2"

	"github.com/constructtrack/platform/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	if deps.Reporter != nil {
		app.Use(deps.Reporter.Middleware())
	}
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return utils.CopyString(c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	api := app.Group("/api", VersioningMiddleware(deps.Versioning))

	v1 := api.Group("/v1")

	// Health & readiness (no timeout, fast internal checks)
	v1.Get("/health", HealthHandler(deps))
	v1.Get("/ready", ReadyHandler(deps))

	v1.Get("/projects", timeout.NewWithContext(ListProjectsHandler(deps), requestTimeout))
	v1.Get("/projects/nearby", timeout.NewWithContext(NearbyProjectsHandler(deps), requestTimeout))
	v1.Get("/projects/:id", timeout.NewWithContext(GetProjectHandler(deps), requestTimeout))
	v1.Post("/projects", timeout.NewWithContext(CreateProjectHandler(deps), requestTimeout))

	v1.Get("/test-sentry", SentryTestHandler(deps))
	v1.Post("/test-sentry", SentryTestEventHandler(deps))

	v1.Post("/webhooks/notion", NotionWebhookHandler(deps))

	// The demo also answers unversioned so header and query detection can be tried.
	for _, r := range []fiber.Router{api.Group("/v2"), api} {
		r.Get("/examples/versioning-demo", VersioningDemoHandler())
		r.Post("/examples/versioning-demo", VersioningDemoEchoHandler())
	}

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
