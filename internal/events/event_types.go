package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventChangeRequested EventType = "email_change_requested"
	EventChangeApplied   EventType = "email_change_applied"
)

// Event represents a workflow event emitted by the engine components.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ChangeRequestedPayload describes a newly opened change-request ticket.
type ChangeRequestedPayload struct {
	PreviousEmail string `json:"previous_email"`
	NewEmail      string `json:"new_email"`
}

// ChangeAppliedPayload describes a committed email change.
type ChangeAppliedPayload struct {
	Email string `json:"email"`
}
