package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/email-approval/internal/api/http/handlers"
	"github.com/spec-kit/email-approval/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Events         *handlers.EventsHandler
	AuthMiddleware *auth.HostAuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	eventsGroup := app.Group("/events", cfg.AuthMiddleware.Handle)
	eventsGroup.Post("/account", cfg.Events.AccountEvent)
	eventsGroup.Post("/ticket", cfg.Events.TicketEvent)
}
