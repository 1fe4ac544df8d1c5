package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/email-approval/internal/domain"
	"github.com/spec-kit/email-approval/internal/events"
	"github.com/spec-kit/email-approval/internal/observability"
	"github.com/spec-kit/email-approval/internal/repository"
	apperrors "github.com/spec-kit/email-approval/pkg/util/errorutil"
)

const interceptorName = "change_request_interceptor"

// ChangeRequestInterceptor reacts to account email edits: it reverts the field
// to its previous value and opens a ticket staging the change behind an
// external confirmation.
type ChangeRequestInterceptor struct {
	guard      ReentrancyGuard
	accounts   repository.AccountRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	category   string
}

// InterceptorDependencies bundles collaborators for the interceptor.
type InterceptorDependencies struct {
	Guard       ReentrancyGuard
	AccountRepo repository.AccountRepository
	TicketRepo  repository.TicketRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Category    string
}

// NewChangeRequestInterceptor constructs the interceptor.
func NewChangeRequestInterceptor(deps InterceptorDependencies) *ChangeRequestInterceptor {
	return &ChangeRequestInterceptor{
		guard:      deps.Guard,
		accounts:   deps.AccountRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		category:   deps.Category,
	}
}

// Handle processes one account mutation event. Precondition misses return nil
// silently; missing images and collaborator failures surface as fatal
// ExecutionErrors so the host rolls back the triggering edit.
func (i *ChangeRequestInterceptor) Handle(ctx context.Context, event AccountEvent) error {
	if !i.guard.Allow(event.Depth) {
		i.metrics.RecordAbort(interceptorName, "depth_exceeded")
		i.logger.Debug("depth exceeded, aborting",
			zap.String("component", interceptorName),
			zap.Int("depth", event.Depth))
		return nil
	}
	if event.Kind != KindUpdate || !event.HasField(FieldEmail) {
		i.metrics.RecordAbort(interceptorName, "not_email_update")
		return nil
	}
	if event.After != nil && event.After.PendingFromTicket != nil && *event.After.PendingFromTicket {
		// Resolver-driven commit; must not be re-staged.
		i.metrics.RecordAbort(interceptorName, "pending_from_ticket")
		return nil
	}

	if event.Before == nil || event.Before.Email == nil {
		return i.fail(apperrors.NewMissingData("account before-image is missing the email field", map[string]any{
			"component": interceptorName,
		}))
	}
	if event.After == nil || event.After.Email == nil {
		return i.fail(apperrors.NewMissingData("account after-image is missing the email field", map[string]any{
			"component": interceptorName,
		}))
	}

	previousEmail := *event.Before.Email
	newEmail := *event.After.Email
	accountID := event.After.ID

	if previousEmail == newEmail {
		i.metrics.RecordAbort(interceptorName, "noop_edit")
		i.logger.Debug("submitted email equals the current value, aborting",
			zap.String("account_id", accountID))
		return nil
	}

	i.logger.Info("staging email change",
		zap.String("account_id", accountID),
		zap.String("previous_email", previousEmail),
		zap.String("new_email", newEmail))

	account, err := i.accounts.GetByID(ctx, accountID)
	if err != nil {
		return i.collaboratorFailure("retrieve account", err, accountID, "")
	}

	// The new value must never be visible on the account until approval.
	account.Email = previousEmail
	if err := i.accounts.Update(ctx, account); err != nil {
		return i.collaboratorFailure("revert account email", err, accountID, "")
	}

	ticket := &domain.Ticket{
		CustomerID:     accountID,
		Category:       i.category,
		PreviousEmail:  previousEmail,
		NewEmail:       newEmail,
		LifecycleState: domain.TicketLifecycleActive,
		ChangeStatus:   domain.ChangeStatusUnconfirmed,
	}
	if err := i.tickets.Create(ctx, ticket); err != nil {
		return i.collaboratorFailure("create ticket", err, accountID, "")
	}
	i.logger.Info("change-request ticket created",
		zap.String("account_id", accountID),
		zap.String("ticket_id", ticket.ID))

	if err := i.publish(ctx, events.Event{
		Type:      events.EventChangeRequested,
		AccountID: accountID,
		TicketID:  ticket.ID,
		Payload: events.ChangeRequestedPayload{
			PreviousEmail: previousEmail,
			NewEmail:      newEmail,
		},
	}); err != nil {
		return i.collaboratorFailure("send opening notification", err, accountID, ticket.ID)
	}

	i.metrics.RecordHandled(interceptorName)
	return nil
}

func (i *ChangeRequestInterceptor) publish(ctx context.Context, event events.Event) error {
	if i.dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return i.dispatcher.Publish(ctx, event)
}

func (i *ChangeRequestInterceptor) fail(err error) error {
	execErr := apperrors.ToExecutionError(err)
	i.metrics.RecordFailure(interceptorName, execErr.Code)
	i.logger.Error("invocation failed",
		zap.String("component", interceptorName),
		zap.Error(execErr))
	return execErr
}

func (i *ChangeRequestInterceptor) collaboratorFailure(operation string, err error, accountID, ticketID string) error {
	execErr := apperrors.ToExecutionError(apperrors.NewCollaboratorFailure(interceptorName, operation, err))
	i.metrics.RecordFailure(interceptorName, execErr.Code)
	i.logger.Error("collaborator call failed",
		zap.String("component", interceptorName),
		zap.String("operation", operation),
		zap.String("account_id", accountID),
		zap.String("ticket_id", ticketID),
		zap.Error(err))
	return execErr
}
