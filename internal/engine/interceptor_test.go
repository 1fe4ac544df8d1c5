package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/email-approval/internal/domain"
	"github.com/spec-kit/email-approval/internal/events"
	"github.com/spec-kit/email-approval/internal/observability"
	apperrors "github.com/spec-kit/email-approval/pkg/util/errorutil"
)

const testCategory = "email_change_request"

func newInterceptor(accounts *mockAccountRepo, tickets *mockTicketRepo, dispatcher *recordingDispatcher) *ChangeRequestInterceptor {
	return NewChangeRequestInterceptor(InterceptorDependencies{
		Guard:       NewReentrancyGuard(1),
		AccountRepo: accounts,
		TicketRepo:  tickets,
		Dispatcher:  dispatcher,
		Metrics:     observability.NewMetrics(),
		Logger:      zap.NewNop(),
		Category:    testCategory,
	})
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func accountEmailEdit(accountID, before, after string) AccountEvent {
	return AccountEvent{
		Kind:   KindUpdate,
		Depth:  1,
		Fields: []string{FieldEmail},
		Before: &AccountImage{ID: accountID, Email: strPtr(before)},
		After:  &AccountImage{ID: accountID, Email: strPtr(after)},
	}
}

func TestInterceptorStagesEmailChange(t *testing.T) {
	accounts := newMockAccountRepo(&domain.Account{ID: "a1", Name: "Acme", Email: "new@x.com"})
	tickets := &mockTicketRepo{}
	dispatcher := &recordingDispatcher{}
	interceptor := newInterceptor(accounts, tickets, dispatcher)

	err := interceptor.Handle(context.Background(), accountEmailEdit("a1", "old@x.com", "new@x.com"))
	require.NoError(t, err)

	// The account must keep its previous address until approval.
	require.Len(t, accounts.updates, 1)
	require.Equal(t, "old@x.com", accounts.updates[0].Email)

	require.Len(t, tickets.created, 1)
	ticket := tickets.created[0]
	require.Equal(t, "a1", ticket.CustomerID)
	require.Equal(t, testCategory, ticket.Category)
	require.Equal(t, "old@x.com", ticket.PreviousEmail)
	require.Equal(t, "new@x.com", ticket.NewEmail)
	require.Equal(t, domain.TicketLifecycleActive, ticket.LifecycleState)
	require.Equal(t, domain.ChangeStatusUnconfirmed, ticket.ChangeStatus)

	require.Len(t, dispatcher.published, 1)
	event := dispatcher.published[0]
	require.Equal(t, events.EventChangeRequested, event.Type)
	require.Equal(t, "a1", event.AccountID)
	require.Equal(t, ticket.ID, event.TicketID)
	payload, ok := event.Payload.(events.ChangeRequestedPayload)
	require.True(t, ok)
	require.Equal(t, "old@x.com", payload.PreviousEmail)
	require.Equal(t, "new@x.com", payload.NewEmail)
	require.NotEmpty(t, event.ID)
	require.False(t, event.Timestamp.IsZero())
}

func TestInterceptorIgnoresNoopEdit(t *testing.T) {
	accounts := newMockAccountRepo(&domain.Account{ID: "a1", Email: "same@x.com"})
	tickets := &mockTicketRepo{}
	dispatcher := &recordingDispatcher{}
	interceptor := newInterceptor(accounts, tickets, dispatcher)

	err := interceptor.Handle(context.Background(), accountEmailEdit("a1", "same@x.com", "same@x.com"))
	require.NoError(t, err)
	require.Empty(t, accounts.updates)
	require.Empty(t, tickets.created)
	require.Empty(t, dispatcher.published)
}

func TestInterceptorAbortsPastMaxDepth(t *testing.T) {
	accounts := newMockAccountRepo(&domain.Account{ID: "a1", Email: "new@x.com"})
	tickets := &mockTicketRepo{}
	dispatcher := &recordingDispatcher{}
	interceptor := newInterceptor(accounts, tickets, dispatcher)

	event := accountEmailEdit("a1", "old@x.com", "new@x.com")
	event.Depth = 2

	err := interceptor.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Empty(t, accounts.updates)
	require.Empty(t, tickets.created)
	require.Empty(t, dispatcher.published)
}

func TestInterceptorIgnoresNonEmailEdits(t *testing.T) {
	accounts := newMockAccountRepo(&domain.Account{ID: "a1", Email: "old@x.com"})
	tickets := &mockTicketRepo{}
	dispatcher := &recordingDispatcher{}
	interceptor := newInterceptor(accounts, tickets, dispatcher)

	event := accountEmailEdit("a1", "old@x.com", "new@x.com")
	event.Fields = []string{"name"}

	require.NoError(t, interceptor.Handle(context.Background(), event))
	require.Empty(t, accounts.updates)
	require.Empty(t, tickets.created)
}

func TestInterceptorIgnoresResolverCommit(t *testing.T) {
	accounts := newMockAccountRepo(&domain.Account{ID: "a1", Email: "new@x.com"})
	tickets := &mockTicketRepo{}
	dispatcher := &recordingDispatcher{}
	interceptor := newInterceptor(accounts, tickets, dispatcher)

	event := accountEmailEdit("a1", "old@x.com", "new@x.com")
	event.After.PendingFromTicket = boolPtr(true)

	require.NoError(t, interceptor.Handle(context.Background(), event))
	require.Empty(t, accounts.updates)
	require.Empty(t, tickets.created)
}

func TestInterceptorRequiresBeforeImage(t *testing.T) {
	accounts := newMockAccountRepo(&domain.Account{ID: "a1", Email: "new@x.com"})
	tickets := &mockTicketRepo{}
	dispatcher := &recordingDispatcher{}
	interceptor := newInterceptor(accounts, tickets, dispatcher)

	event := accountEmailEdit("a1", "old@x.com", "new@x.com")
	event.Before = nil

	err := interceptor.Handle(context.Background(), event)
	require.Error(t, err)
	var execErr *apperrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "MISSING_DATA", execErr.Code)
	require.Empty(t, accounts.updates)
	require.Empty(t, tickets.created)
}

func TestInterceptorRequiresAfterEmail(t *testing.T) {
	accounts := newMockAccountRepo(&domain.Account{ID: "a1", Email: "new@x.com"})
	tickets := &mockTicketRepo{}
	dispatcher := &recordingDispatcher{}
	interceptor := newInterceptor(accounts, tickets, dispatcher)

	event := accountEmailEdit("a1", "old@x.com", "new@x.com")
	event.After.Email = nil

	err := interceptor.Handle(context.Background(), event)
	var execErr *apperrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "MISSING_DATA", execErr.Code)
}

func TestInterceptorWrapsStoreFailure(t *testing.T) {
	accounts := newMockAccountRepo(&domain.Account{ID: "a1", Email: "new@x.com"})
	accounts.updateErr = errors.New("connection reset")
	tickets := &mockTicketRepo{}
	dispatcher := &recordingDispatcher{}
	interceptor := newInterceptor(accounts, tickets, dispatcher)

	err := interceptor.Handle(context.Background(), accountEmailEdit("a1", "old@x.com", "new@x.com"))
	var execErr *apperrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "COLLABORATOR_FAILURE", execErr.Code)
	require.Empty(t, tickets.created)
}

func TestInterceptorWrapsNotificationFailure(t *testing.T) {
	accounts := newMockAccountRepo(&domain.Account{ID: "a1", Email: "new@x.com"})
	tickets := &mockTicketRepo{}
	dispatcher := &recordingDispatcher{err: errors.New("smtp unreachable")}
	interceptor := newInterceptor(accounts, tickets, dispatcher)

	err := interceptor.Handle(context.Background(), accountEmailEdit("a1", "old@x.com", "new@x.com"))
	var execErr *apperrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "COLLABORATOR_FAILURE", execErr.Code)
	// The revert and the ticket already happened; only the send failed.
	require.Len(t, accounts.updates, 1)
	require.Len(t, tickets.created, 1)
}
