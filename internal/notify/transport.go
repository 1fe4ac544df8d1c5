package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/spec-kit/email-approval/internal/config"
)

// Message is one outbound notification. CorrelationRef carries the originating
// ticket id for correlation in the outbound record.
type Message struct {
	From           string
	FromName       string
	To             string
	Subject        string
	Body           string
	CorrelationRef string
}

// Transport delivers a message. A delivery failure is fatal to the triggering
// operation; no transport retries here.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// NewTransport selects a transport from config. Provider "ses" uses AWS SES,
// "smtp" a plain SMTP relay; anything else falls back to a log-only transport.
func NewTransport(cfg config.NotificationConfig, logger *zap.Logger) Transport {
	switch cfg.Provider {
	case "ses":
		awsCfg := aws.Config{
			Region: cfg.SES.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					cfg.SES.AccessKeyID,
					cfg.SES.SecretAccessKey,
					"",
				),
			),
		}
		return &sesTransport{client: ses.NewFromConfig(awsCfg), logger: logger}
	case "smtp":
		return &smtpTransport{cfg: cfg.SMTP, logger: logger}
	default:
		logger.Warn("unknown notification provider, using noop", zap.String("provider", cfg.Provider))
		return &noopTransport{logger: logger}
	}
}

type sesTransport struct {
	client *ses.Client
	logger *zap.Logger
}

func (t *sesTransport) Send(ctx context.Context, msg Message) error {
	source := msg.From
	if msg.FromName != "" {
		source = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}
	input := &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(msg.Body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}
	result, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("send email via SES: %w", err)
	}
	t.logger.Info("notification sent",
		zap.String("transport", "ses"),
		zap.String("message_id", aws.ToString(result.MessageId)),
		zap.String("correlation_ref", msg.CorrelationRef))
	return nil
}

type smtpTransport struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

func (t *smtpTransport) Send(ctx context.Context, msg Message) error {
	addr := t.cfg.Host + ":" + t.cfg.Port
	var auth smtp.Auth
	if t.cfg.Username != "" {
		auth = smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
	}
	payload := []byte("From: " + msg.From + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"\r\n" +
		msg.Body + "\r\n")
	if err := smtp.SendMail(addr, auth, msg.From, []string{msg.To}, payload); err != nil {
		return fmt.Errorf("send email via SMTP: %w", err)
	}
	t.logger.Info("notification sent",
		zap.String("transport", "smtp"),
		zap.String("correlation_ref", msg.CorrelationRef))
	return nil
}

type noopTransport struct {
	logger *zap.Logger
}

func (t *noopTransport) Send(ctx context.Context, msg Message) error {
	t.logger.Info("notification would be sent (noop)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("correlation_ref", msg.CorrelationRef))
	return nil
}
