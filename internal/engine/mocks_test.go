package engine

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/email-approval/internal/domain"
	"github.com/spec-kit/email-approval/internal/events"
)

type mockAccountRepo struct {
	accounts  map[string]*domain.Account
	updates   []domain.Account
	getErr    error
	updateErr error
}

func newMockAccountRepo(accounts ...*domain.Account) *mockAccountRepo {
	m := &mockAccountRepo{accounts: map[string]*domain.Account{}}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	m.accounts[account.ID] = account
	return nil
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	account, ok := m.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (m *mockAccountRepo) Update(ctx context.Context, account *domain.Account) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, *account)
	clone := *account
	m.accounts[account.ID] = &clone
	return nil
}

type statusUpdate struct {
	id        string
	status    domain.ChangeStatus
	subStatus string
}

type transition struct {
	id         string
	state      domain.TicketLifecycle
	reason     string
	resolvedAt *time.Time
}

type mockTicketRepo struct {
	openSet       []domain.Ticket
	created       []*domain.Ticket
	statusUpdates []statusUpdate
	transitions   []transition
	createErr     error
	listErr       error
	updateErr     error
	transitionErr error
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if m.createErr != nil {
		return m.createErr
	}
	ticket.ID = "ticket-" + time.Now().Format("150405.000000000")
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	m.created = append(m.created, ticket)
	return nil
}

func (m *mockTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	for _, t := range m.openSet {
		if t.ID == id {
			clone := t
			return &clone, nil
		}
	}
	for _, t := range m.created {
		if t.ID == id {
			clone := *t
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockTicketRepo) ListOpen(ctx context.Context, customerID, category string) ([]domain.Ticket, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []domain.Ticket
	for _, t := range m.openSet {
		if t.CustomerID == customerID && t.Category == category && t.Open() {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTicketRepo) UpdateChangeStatus(ctx context.Context, id string, status domain.ChangeStatus, subStatus string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.statusUpdates = append(m.statusUpdates, statusUpdate{id: id, status: status, subStatus: subStatus})
	return nil
}

func (m *mockTicketRepo) Transition(ctx context.Context, id string, state domain.TicketLifecycle, reason string, resolvedAt *time.Time) error {
	if m.transitionErr != nil {
		return m.transitionErr
	}
	m.transitions = append(m.transitions, transition{id: id, state: state, reason: reason, resolvedAt: resolvedAt})
	return nil
}

type recordingDispatcher struct {
	published []events.Event
	err       error
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	if d.err != nil {
		return d.err
	}
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

type mockLocker struct {
	acquired []string
	released int
	err      error
}

func (l *mockLocker) Acquire(ctx context.Context, accountID string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired = append(l.acquired, accountID)
	return func() { l.released++ }, nil
}
