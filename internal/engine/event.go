package engine

import (
	"time"

	"github.com/spec-kit/email-approval/internal/domain"
)

// MessageKind identifies the record-store mutation that fired a trigger.
type MessageKind string

const (
	KindCreate MessageKind = "create"
	KindUpdate MessageKind = "update"
)

// Field names the host reports in the submitted-field set.
const (
	FieldEmail        = "email"
	FieldChangeStatus = "change_status"
)

// AccountImage is a snapshot of an account record inside a mutation event.
// Pointer fields may be absent when the host did not capture them.
type AccountImage struct {
	ID                string
	Name              string
	Email             *string
	PendingFromTicket *bool
}

// TicketImage is a snapshot of a ticket record inside a mutation event.
type TicketImage struct {
	ID             string
	CustomerID     string
	Category       string
	PreviousEmail  string
	NewEmail       string
	LifecycleState domain.TicketLifecycle
	ChangeStatus   *domain.ChangeStatus
	CreatedAt      time.Time
}

// AccountEvent is a record-store mutation notification for an account. Depth
// counts cascading trigger hops; the host increments it across writes the
// engine itself performs.
type AccountEvent struct {
	Kind   MessageKind
	Depth  int
	Fields []string
	Before *AccountImage
	After  *AccountImage
}

// HasField reports whether the field was part of the submitted edit.
func (e AccountEvent) HasField(name string) bool {
	return hasField(e.Fields, name)
}

// TicketEvent is a record-store mutation notification for a ticket.
type TicketEvent struct {
	Kind   MessageKind
	Depth  int
	Fields []string
	Before *TicketImage
	After  *TicketImage
}

// HasField reports whether the field was part of the submitted edit.
func (e TicketEvent) HasField(name string) bool {
	return hasField(e.Fields, name)
}

func hasField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
