package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/nivharel/waymark/internal/pkg/metrics"
)

// SetupRoutes registers all REST and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP. The trail index and
	// routers behind us are shared public services; this is the first line
	// of protection for them.
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1. Provider-backed endpoints get a generous timeout; the
	// trail geometry query in particular can take tens of seconds.
	v1 := app.Group("/v1")
	v1.Get("/trips/:id/waypoints", timeout.NewWithContext(ListWaypointsHandler(deps), 15*time.Second))
	v1.Post("/trips/:id/waypoints", timeout.NewWithContext(AddWaypointHandler(deps), 30*time.Second))
	v1.Put("/trips/:id/waypoints/:index", timeout.NewWithContext(UpdateWaypointHandler(deps), 30*time.Second))
	v1.Delete("/trips/:id/waypoints/:index", timeout.NewWithContext(RemoveWaypointHandler(deps), 30*time.Second))
	v1.Post("/trips/:id/waypoints/order", timeout.NewWithContext(ReorderWaypointsHandler(deps), 30*time.Second))
	v1.Put("/trips/:id/anchor", timeout.NewWithContext(SetAnchorHandler(deps), 30*time.Second))
	v1.Delete("/trips/:id/anchor", timeout.NewWithContext(ClearAnchorHandler(deps), 30*time.Second))
	v1.Get("/trips/:id/route", timeout.NewWithContext(GetRouteHandler(deps), 15*time.Second))
	v1.Post("/trips/:id/route/recompute", timeout.NewWithContext(RecomputeRouteHandler(deps), 30*time.Second))
	v1.Get("/trips/:id/route/metrics", timeout.NewWithContext(RouteMetricsHandler(deps), 15*time.Second))
	v1.Get("/trips/:id/route/directions", timeout.NewWithContext(GetDirectionsHandler(deps), 30*time.Second))
	v1.Post("/trips/:id/route/trail", timeout.NewWithContext(ApplyTrailHandler(deps), 90*time.Second))
	v1.Post("/trips/:id/route/import", timeout.NewWithContext(ImportTrackHandler(deps), 60*time.Second))
	v1.Get("/trails", timeout.NewWithContext(SearchTrailsHandler(deps), 60*time.Second))
	v1.Get("/trails/:id/geometry", timeout.NewWithContext(TrailGeometryHandler(deps), 90*time.Second))

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
