package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/subtrackapp/subtrack-backend/internal/handlers"
)

func Setup(
	app *fiber.App,
	healthHandler *handlers.HealthHandler,
	transactionHandler *handlers.TransactionHandler,
	detectionHandler *handlers.DetectionHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Sync boundary: the aggregation client pushes transactions here.
	api.Post("/users/:userID/transactions", transactionHandler.Ingest)

	// Detection runs; ?dry_run=true returns diagnostics only.
	api.Post("/users/:userID/detect", detectionHandler.Run)

	api.Get("/users/:userID/subscriptions", subscriptionHandler.List)
	api.Patch("/subscriptions/:id/status", subscriptionHandler.SetStatus)
}
