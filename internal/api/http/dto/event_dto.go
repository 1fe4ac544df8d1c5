package dto

import (
	"time"

	"github.com/spec-kit/email-approval/internal/domain"
	"github.com/spec-kit/email-approval/internal/engine"
)

// AccountImageDTO mirrors an account snapshot in a host-delivered event.
type AccountImageDTO struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Email             *string `json:"email,omitempty"`
	PendingFromTicket *bool   `json:"pending_from_ticket,omitempty"`
}

// TicketImageDTO mirrors a ticket snapshot in a host-delivered event.
type TicketImageDTO struct {
	ID             string     `json:"id"`
	CustomerID     string     `json:"customer_id"`
	Category       string     `json:"category"`
	PreviousEmail  string     `json:"previous_email"`
	NewEmail       string     `json:"new_email"`
	LifecycleState string     `json:"lifecycle_state"`
	ChangeStatus   *string    `json:"change_status,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// AccountEventRequest is the webhook payload for an account mutation.
type AccountEventRequest struct {
	Kind   string           `json:"kind"`
	Depth  int              `json:"depth"`
	Fields []string         `json:"fields"`
	Before *AccountImageDTO `json:"before,omitempty"`
	After  *AccountImageDTO `json:"after,omitempty"`
}

// TicketEventRequest is the webhook payload for a ticket mutation.
type TicketEventRequest struct {
	Kind   string          `json:"kind"`
	Depth  int             `json:"depth"`
	Fields []string        `json:"fields"`
	Before *TicketImageDTO `json:"before,omitempty"`
	After  *TicketImageDTO `json:"after,omitempty"`
}

// ToEngineEvent converts the request to an engine event.
func (r AccountEventRequest) ToEngineEvent() engine.AccountEvent {
	return engine.AccountEvent{
		Kind:   engine.MessageKind(r.Kind),
		Depth:  r.Depth,
		Fields: r.Fields,
		Before: accountImage(r.Before),
		After:  accountImage(r.After),
	}
}

// ToEngineEvent converts the request to an engine event.
func (r TicketEventRequest) ToEngineEvent() engine.TicketEvent {
	return engine.TicketEvent{
		Kind:   engine.MessageKind(r.Kind),
		Depth:  r.Depth,
		Fields: r.Fields,
		Before: ticketImage(r.Before),
		After:  ticketImage(r.After),
	}
}

func accountImage(img *AccountImageDTO) *engine.AccountImage {
	if img == nil {
		return nil
	}
	return &engine.AccountImage{
		ID:                img.ID,
		Name:              img.Name,
		Email:             img.Email,
		PendingFromTicket: img.PendingFromTicket,
	}
}

func ticketImage(img *TicketImageDTO) *engine.TicketImage {
	if img == nil {
		return nil
	}
	out := &engine.TicketImage{
		ID:             img.ID,
		CustomerID:     img.CustomerID,
		Category:       img.Category,
		PreviousEmail:  img.PreviousEmail,
		NewEmail:       img.NewEmail,
		LifecycleState: domain.TicketLifecycle(img.LifecycleState),
	}
	if img.ChangeStatus != nil {
		status := domain.ChangeStatus(*img.ChangeStatus)
		out.ChangeStatus = &status
	}
	if img.CreatedAt != nil {
		out.CreatedAt = *img.CreatedAt
	}
	return out
}
