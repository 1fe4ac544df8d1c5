package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/email-approval/internal/domain"
)

// TicketRepository is the record-store client for change-request tickets.
// ListOpen returns the open set: Active tickets for one customer and category,
// most recently created first.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListOpen(ctx context.Context, customerID, category string) ([]domain.Ticket, error)
	UpdateChangeStatus(ctx context.Context, id string, status domain.ChangeStatus, subStatus string) error
	Transition(ctx context.Context, id string, state domain.TicketLifecycle, reason string, resolvedAt *time.Time) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (customer_id, category, previous_email, new_email, lifecycle_state, change_status, sub_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CustomerID,
		ticket.Category,
		ticket.PreviousEmail,
		ticket.NewEmail,
		ticket.LifecycleState,
		ticket.ChangeStatus,
		ticket.SubStatus,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, customer_id, category, previous_email, new_email,
               lifecycle_state, change_status, sub_status, resolution_reason, created_at, updated_at, resolved_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.CustomerID,
		&ticket.Category,
		&ticket.PreviousEmail,
		&ticket.NewEmail,
		&ticket.LifecycleState,
		&ticket.ChangeStatus,
		&ticket.SubStatus,
		&ticket.ResolutionReason,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListOpen(ctx context.Context, customerID, category string) ([]domain.Ticket, error) {
	const query = `
        SELECT id, customer_id, category, previous_email, new_email,
               lifecycle_state, change_status, sub_status, resolution_reason, created_at, updated_at, resolved_at
        FROM tickets
        WHERE customer_id=$1 AND category=$2 AND lifecycle_state=$3
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, customerID, category, domain.TicketLifecycleActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateChangeStatus(ctx context.Context, id string, status domain.ChangeStatus, subStatus string) error {
	const query = `
        UPDATE tickets SET change_status=$1, sub_status=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, status, subStatus, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Transition(ctx context.Context, id string, state domain.TicketLifecycle, reason string, resolvedAt *time.Time) error {
	const query = `
        UPDATE tickets SET lifecycle_state=$1, resolution_reason=$2, resolved_at=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, state, reason, resolvedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.CustomerID,
			&ticket.Category,
			&ticket.PreviousEmail,
			&ticket.NewEmail,
			&ticket.LifecycleState,
			&ticket.ChangeStatus,
			&ticket.SubStatus,
			&ticket.ResolutionReason,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
