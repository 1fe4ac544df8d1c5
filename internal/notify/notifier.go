package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/email-approval/internal/config"
	"github.com/spec-kit/email-approval/internal/domain"
	"github.com/spec-kit/email-approval/internal/events"
	"github.com/spec-kit/email-approval/internal/repository"
)

const (
	openingSubject = "Email change request confirmation"
	appliedSubject = "Email successfully changed"
)

// ConfirmationNotifier sends the two workflow notifications: the opening
// message asking the account holder to confirm a staged change, and the
// applied message once the change is committed. Both use a fixed system
// sender identity from config.
type ConfirmationNotifier struct {
	transport  Transport
	accounts   repository.AccountRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewConfirmationNotifier creates the notifier.
func NewConfirmationNotifier(transport Transport, accounts repository.AccountRepository, tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *ConfirmationNotifier {
	return &ConfirmationNotifier{
		transport:  transport,
		accounts:   accounts,
		tickets:    tickets,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to workflow events.
func (n *ConfirmationNotifier) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventChangeRequested, n.handleChangeRequested)
	n.dispatcher.Subscribe(events.EventChangeApplied, n.handleChangeApplied)
}

func (n *ConfirmationNotifier) handleChangeRequested(ctx context.Context, event events.Event) error {
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	account, err := n.accounts.GetByID(ctx, ticket.CustomerID)
	if err != nil {
		return err
	}
	return n.NotifyOpening(ctx, account, ticket)
}

func (n *ConfirmationNotifier) handleChangeApplied(ctx context.Context, event events.Event) error {
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	account, err := n.accounts.GetByID(ctx, event.AccountID)
	if err != nil {
		return err
	}
	if err := n.NotifyApplied(ctx, account, ticket); err != nil {
		return err
	}
	// The commit marker has served its purpose once the applied message is out.
	if account.PendingFromTicket {
		account.PendingFromTicket = false
		if err := n.accounts.Update(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

// NotifyOpening asks the account holder to confirm a staged change. The
// message goes to the previous address: the change is unconfirmed, so the old
// address is still authoritative.
func (n *ConfirmationNotifier) NotifyOpening(ctx context.Context, account *domain.Account, ticket *domain.Ticket) error {
	msg := Message{
		From:           n.cfg.SenderAddress,
		FromName:       n.cfg.SenderName,
		To:             ticket.PreviousEmail,
		Subject:        openingSubject,
		CorrelationRef: ticket.ID,
		Body: fmt.Sprintf("Hello, %s.\n"+
			"We received your request to change your primary email address from %s to %s.\n"+
			"Please CLICK HERE to confirm your request",
			account.Name, ticket.PreviousEmail, ticket.NewEmail),
	}
	if err := n.transport.Send(ctx, msg); err != nil {
		n.logger.Error("opening notification failed",
			zap.String("account_id", account.ID),
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		return err
	}
	n.logger.Info("opening notification sent",
		zap.String("account_id", account.ID),
		zap.String("ticket_id", ticket.ID),
		zap.String("to", ticket.PreviousEmail))
	return nil
}

// NotifyApplied informs the account holder that the change is committed. The
// message goes to the newly committed address.
func (n *ConfirmationNotifier) NotifyApplied(ctx context.Context, account *domain.Account, ticket *domain.Ticket) error {
	msg := Message{
		From:           n.cfg.SenderAddress,
		FromName:       n.cfg.SenderName,
		To:             account.Email,
		Subject:        appliedSubject,
		CorrelationRef: ticket.ID,
		Body: fmt.Sprintf("Hello, %s.\n"+
			"We are writing you to inform you that your primary email was successfully changed to %s.\n"+
			"Thank you for using our services!",
			account.Name, account.Email),
	}
	if err := n.transport.Send(ctx, msg); err != nil {
		n.logger.Error("applied notification failed",
			zap.String("account_id", account.ID),
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		return err
	}
	n.logger.Info("applied notification sent",
		zap.String("account_id", account.ID),
		zap.String("ticket_id", ticket.ID),
		zap.String("to", account.Email))
	return nil
}
