package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/email-approval/internal/domain"
	"github.com/spec-kit/email-approval/internal/events"
	"github.com/spec-kit/email-approval/internal/lock"
	"github.com/spec-kit/email-approval/internal/observability"
	"github.com/spec-kit/email-approval/internal/repository"
	apperrors "github.com/spec-kit/email-approval/pkg/util/errorutil"
)

const resolverName = "ticket_confirmation_resolver"

// TicketConfirmationResolver reacts to a ticket being confirmed: it collapses
// the account's open set by approving the canonical ticket, committing the
// staged email change, and declining every other open ticket.
//
// The canonical ticket is the most recently created member of the open set,
// regardless of which ticket received the confirmation. Latest wins.
type TicketConfirmationResolver struct {
	guard      ReentrancyGuard
	accounts   repository.AccountRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	locker     lock.AccountLocker
	metrics    *observability.Metrics
	logger     *zap.Logger
	category   string
	now        func() time.Time
}

// ResolverDependencies bundles collaborators for the resolver.
type ResolverDependencies struct {
	Guard       ReentrancyGuard
	AccountRepo repository.AccountRepository
	TicketRepo  repository.TicketRepository
	Dispatcher  events.Dispatcher
	Locker      lock.AccountLocker
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Category    string
	Now         func() time.Time
}

// NewTicketConfirmationResolver constructs the resolver.
func NewTicketConfirmationResolver(deps ResolverDependencies) *TicketConfirmationResolver {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketConfirmationResolver{
		guard:      deps.Guard,
		accounts:   deps.AccountRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		locker:     deps.Locker,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		category:   deps.Category,
		now:        now,
	}
}

// Handle processes one ticket mutation event. Only edits that move
// change_status to Confirmed on a change-request ticket are acted on; all
// other edits return silently.
func (r *TicketConfirmationResolver) Handle(ctx context.Context, event TicketEvent) error {
	if !r.guard.Allow(event.Depth) {
		r.metrics.RecordAbort(resolverName, "depth_exceeded")
		r.logger.Debug("depth exceeded, aborting",
			zap.String("component", resolverName),
			zap.Int("depth", event.Depth))
		return nil
	}
	if event.Kind != KindUpdate || !event.HasField(FieldChangeStatus) {
		r.metrics.RecordAbort(resolverName, "not_status_update")
		return nil
	}

	after := event.After
	if after == nil || after.ChangeStatus == nil {
		return r.fail(apperrors.NewMissingData("ticket after-image is missing the change status", map[string]any{
			"component": resolverName,
		}))
	}
	if after.Category != r.category {
		r.metrics.RecordAbort(resolverName, "wrong_category")
		return nil
	}
	if *after.ChangeStatus != domain.ChangeStatusConfirmed {
		r.metrics.RecordAbort(resolverName, "not_confirmed")
		return nil
	}
	if after.CustomerID == "" {
		return r.fail(apperrors.NewMissingData("ticket after-image is missing the customer reference", map[string]any{
			"component": resolverName,
			"ticket_id": after.ID,
		}))
	}
	accountID := after.CustomerID

	if r.locker != nil {
		release, err := r.locker.Acquire(ctx, accountID)
		if err != nil {
			return r.collaboratorFailure("acquire account lease", err, accountID, after.ID)
		}
		defer release()
	}

	open, err := r.tickets.ListOpen(ctx, accountID, r.category)
	if err != nil {
		return r.collaboratorFailure("query open tickets", err, accountID, after.ID)
	}
	if len(open) == 0 {
		r.metrics.RecordAbort(resolverName, "empty_open_set")
		r.logger.Info("no open change-request tickets for account, aborting",
			zap.String("account_id", accountID))
		return nil
	}

	canonical := open[0]
	duplicates := open[1:]
	r.logger.Info("resolving confirmed change request",
		zap.String("account_id", accountID),
		zap.String("confirmed_ticket_id", after.ID),
		zap.String("canonical_ticket_id", canonical.ID),
		zap.Int("open_set_size", len(open)))

	resolvedAt := r.now()
	if err := r.tickets.UpdateChangeStatus(ctx, canonical.ID, domain.ChangeStatusApproved, domain.SubStatusApprovedConfirmed); err != nil {
		return r.collaboratorFailure("approve canonical ticket", err, accountID, canonical.ID)
	}
	if err := r.tickets.Transition(ctx, canonical.ID, domain.TicketLifecycleResolved, domain.ResolutionReasonConfirmed, &resolvedAt); err != nil {
		return r.collaboratorFailure("resolve canonical ticket", err, accountID, canonical.ID)
	}

	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return r.collaboratorFailure("retrieve account", err, accountID, canonical.ID)
	}
	account.Email = canonical.NewEmail
	account.PendingFromTicket = true
	if err := r.accounts.Update(ctx, account); err != nil {
		return r.collaboratorFailure("commit account email", err, accountID, canonical.ID)
	}
	r.logger.Info("account email committed",
		zap.String("account_id", accountID),
		zap.String("email", canonical.NewEmail))

	for _, duplicate := range duplicates {
		if err := r.tickets.UpdateChangeStatus(ctx, duplicate.ID, domain.ChangeStatusDeclined, domain.SubStatusCancelledDuplicate); err != nil {
			return r.collaboratorFailure("decline duplicate ticket", err, accountID, duplicate.ID)
		}
		if err := r.tickets.Transition(ctx, duplicate.ID, domain.TicketLifecycleCancelled, domain.ResolutionReasonDuplicate, nil); err != nil {
			return r.collaboratorFailure("cancel duplicate ticket", err, accountID, duplicate.ID)
		}
	}
	if len(duplicates) > 0 {
		r.logger.Info("declined duplicate change requests",
			zap.String("account_id", accountID),
			zap.Int("count", len(duplicates)))
	}

	// Business state is committed at this point; a notification failure aborts
	// the triggering edit but does not roll the commit back.
	if err := r.publish(ctx, events.Event{
		Type:      events.EventChangeApplied,
		AccountID: accountID,
		TicketID:  canonical.ID,
		Payload: events.ChangeAppliedPayload{
			Email: canonical.NewEmail,
		},
	}); err != nil {
		return r.collaboratorFailure("send applied notification", err, accountID, canonical.ID)
	}

	r.metrics.RecordHandled(resolverName)
	return nil
}

func (r *TicketConfirmationResolver) publish(ctx context.Context, event events.Event) error {
	if r.dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return r.dispatcher.Publish(ctx, event)
}

func (r *TicketConfirmationResolver) fail(err error) error {
	execErr := apperrors.ToExecutionError(err)
	r.metrics.RecordFailure(resolverName, execErr.Code)
	r.logger.Error("invocation failed",
		zap.String("component", resolverName),
		zap.Error(execErr))
	return execErr
}

func (r *TicketConfirmationResolver) collaboratorFailure(operation string, err error, accountID, ticketID string) error {
	execErr := apperrors.ToExecutionError(apperrors.NewCollaboratorFailure(resolverName, operation, err))
	r.metrics.RecordFailure(resolverName, execErr.Code)
	r.logger.Error("collaborator call failed",
		zap.String("component", resolverName),
		zap.String("operation", operation),
		zap.String("account_id", accountID),
		zap.String("ticket_id", ticketID),
		zap.Error(err))
	return execErr
}
