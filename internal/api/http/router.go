package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aftercare-bot/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Export  *handlers.ExportHandler
	Webhook *handlers.WebhookHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/export/backup", cfg.Export.Download)

	if cfg.Webhook != nil {
		app.Post("/telegram/webhook", cfg.Webhook.Receive)
	}
}
