package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/biohubbc/biohub/internal/pkg/metrics"
)

const (
	readTimeout      = 15 * time.Second
	transformTimeout = 60 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/submissions", timeout.NewWithContext(CreateSubmissionHandler(deps), readTimeout))
	v1.Get("/submissions", timeout.NewWithContext(ListSubmissionsHandler(deps), readTimeout))
	v1.Get("/submissions/:id", timeout.NewWithContext(GetSubmissionHandler(deps), readTimeout))
	v1.Post("/submissions/:id/transform", timeout.NewWithContext(TransformSubmissionHandler(deps), transformTimeout))
	v1.Get("/submissions/:id/transform", timeout.NewWithContext(LatestRunHandler(deps), readTimeout))
	v1.Get("/submissions/:id/spatial", timeout.NewWithContext(SubmissionSpatialHandler(deps), readTimeout))
	v1.Get("/submissions/:id/metadata", timeout.NewWithContext(SubmissionMetadataHandler(deps), readTimeout))

	v1.Get("/search/spatial", timeout.NewWithContext(SearchSpatialHandler(deps), readTimeout))
	v1.Get("/search/nearby", timeout.NewWithContext(SearchNearbyHandler(deps), readTimeout))
	v1.Get("/search/metadata", timeout.NewWithContext(SearchMetadataHandler(deps), readTimeout))

	v1.Post("/transform/preview", timeout.NewWithContext(PreviewTransformHandler(deps), transformTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket relay of transformed events
	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
