package domain

import "time"

// TicketLifecycle enumerates lifecycle states for change-request tickets.
type TicketLifecycle string

const (
	TicketLifecycleActive    TicketLifecycle = "ACTIVE"
	TicketLifecycleResolved  TicketLifecycle = "RESOLVED"
	TicketLifecycleCancelled TicketLifecycle = "CANCELLED"
)

// ChangeStatus tracks the approval progression of a change request.
type ChangeStatus string

const (
	ChangeStatusUnconfirmed ChangeStatus = "UNCONFIRMED"
	ChangeStatusConfirmed   ChangeStatus = "CONFIRMED"
	ChangeStatusApproved    ChangeStatus = "APPROVED"
	ChangeStatusDeclined    ChangeStatus = "DECLINED"
)

// Sub-status markers written alongside the terminal change statuses.
const (
	SubStatusApprovedConfirmed  = "Approved - Confirmed"
	SubStatusCancelledDuplicate = "Cancelled - Duplicate"
)

// Reason codes recorded on ticket lifecycle transitions.
const (
	ResolutionReasonConfirmed = "problem_solved"
	ResolutionReasonDuplicate = "duplicate_request"
)

// Ticket tracks a single email-change request for an account. Tickets are never
// deleted, only moved to a terminal lifecycle state.
type Ticket struct {
	ID               string
	CustomerID       string
	Category         string
	PreviousEmail    string
	NewEmail         string
	LifecycleState   TicketLifecycle
	ChangeStatus     ChangeStatus
	SubStatus        string
	ResolutionReason string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ResolvedAt       *time.Time
}

// Open reports whether the ticket belongs to the open set.
func (t *Ticket) Open() bool {
	return t.LifecycleState == TicketLifecycleActive
}
