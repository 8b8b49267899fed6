package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/mgoiri/geolens/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
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

	// Rate limiting: 120 requests per minute per IP
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
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Public auth endpoints
	v1.Post("/auth/register", timeout.NewWithContext(RegisterHandler(deps), 15*time.Second))
	v1.Post("/auth/login", timeout.NewWithContext(LoginHandler(deps), 15*time.Second))

	// Everything below requires a bearer token
	authed := v1.Group("", AuthMiddleware(deps))

	authed.Get("/me", timeout.NewWithContext(MeHandler(deps), 15*time.Second))

	// Datasets
	authed.Post("/datasets", timeout.NewWithContext(UploadDatasetHandler(deps), 60*time.Second))
	authed.Get("/datasets", timeout.NewWithContext(ListDatasetsHandler(deps), 15*time.Second))
	authed.Get("/datasets/:id", timeout.NewWithContext(GetDatasetHandler(deps), 15*time.Second))
	authed.Delete("/datasets/:id", timeout.NewWithContext(DeleteDatasetHandler(deps), 15*time.Second))

	// Analysis runs
	authed.Post("/datasets/:id/analyses", timeout.NewWithContext(AnalyzeDatasetHandler(deps), 60*time.Second))
	authed.Get("/datasets/:id/analyses", timeout.NewWithContext(ListAnalysisRunsHandler(deps), 15*time.Second))
	authed.Get("/analyses/:id", timeout.NewWithContext(GetAnalysisRunHandler(deps), 15*time.Second))

	// AI insights (model calls are slow, give them a longer budget)
	authed.Post("/analyses/:id/insights", timeout.NewWithContext(GenerateInsightHandler(deps), 90*time.Second))

	// Places
	authed.Post("/places", timeout.NewWithContext(CreatePlaceHandler(deps), 15*time.Second))
	authed.Get("/places", timeout.NewWithContext(ListPlacesHandler(deps), 15*time.Second))
	authed.Get("/places/nearby", timeout.NewWithContext(NearbyPlacesHandler(deps), 15*time.Second))
	authed.Get("/places/:id", timeout.NewWithContext(GetPlaceHandler(deps), 15*time.Second))
	authed.Put("/places/:id", timeout.NewWithContext(UpdatePlaceHandler(deps), 15*time.Second))
	authed.Delete("/places/:id", timeout.NewWithContext(DeletePlaceHandler(deps), 15*time.Second))

	// GraphQL (token checked inside the resolver context)
	app.Post("/graphql", AuthMiddleware(deps), GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
