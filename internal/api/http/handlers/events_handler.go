package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/email-approval/internal/api/http/dto"
	"github.com/spec-kit/email-approval/internal/engine"
	apperrors "github.com/spec-kit/email-approval/pkg/util/errorutil"
)

// AccountEventHandler processes account mutation events.
type AccountEventHandler interface {
	Handle(ctx context.Context, event engine.AccountEvent) error
}

// TicketEventHandler processes ticket mutation events.
type TicketEventHandler interface {
	Handle(ctx context.Context, event engine.TicketEvent) error
}

// EventsHandler receives record mutation events from the dispatching host and
// routes them to the engine components. A fatal engine error maps to a
// non-2xx response, telling the host to roll back the triggering write.
type EventsHandler struct {
	interceptor AccountEventHandler
	resolver    TicketEventHandler
	logger      *zap.Logger
}

// NewEventsHandler returns a new handler instance.
func NewEventsHandler(interceptor AccountEventHandler, resolver TicketEventHandler, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{interceptor: interceptor, resolver: resolver, logger: logger}
}

// AccountEvent handles POST /events/account.
func (h *EventsHandler) AccountEvent(c *fiber.Ctx) error {
	var req dto.AccountEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid account event payload", map[string]any{
			"parse_error": err.Error(),
		})
	}
	if err := h.interceptor.Handle(c.UserContext(), req.ToEngineEvent()); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "processed"})
}

// TicketEvent handles POST /events/ticket.
func (h *EventsHandler) TicketEvent(c *fiber.Ctx) error {
	var req dto.TicketEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid ticket event payload", map[string]any{
			"parse_error": err.Error(),
		})
	}
	if err := h.resolver.Handle(c.UserContext(), req.ToEngineEvent()); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "processed"})
}
