package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mail "github.com/wneessen/go-mail"
)

// ErrDeliveryFailed indicates the transport could not hand the message to
// the SMTP server. Callers see only this; transport details stay in logs.
var ErrDeliveryFailed = errors.New("mail delivery failed")

// Mailer delivers transactional mail. Implementations are fire-and-forget:
// a nil error means the message was accepted by the transport, nothing more.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
	logger *slog.Logger
}

// SMTPConfig carries relay settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPMailer configures an SMTP-backed mailer.
func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("build smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From, logger: logger}, nil
}

// Send delivers the message, reporting only success or ErrDeliveryFailed.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		m.logger.Error("invalid sender address", slog.String("from", m.from), slog.Any("error", err))
		return ErrDeliveryFailed
	}
	if err := msg.To(to); err != nil {
		m.logger.Error("invalid recipient address", slog.String("to", to), slog.Any("error", err))
		return ErrDeliveryFailed
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, textBody)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Error("smtp send failed", slog.String("to", to), slog.Any("error", err))
		return ErrDeliveryFailed
	}

	m.logger.Info("mail sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

// LogMailer writes messages to the structured logger instead of sending
// them. Used in development mode when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer constructs a logging mailer stub.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send writes the message to the structured logger.
func (m *LogMailer) Send(_ context.Context, to, subject, textBody, _ string) error {
	if m == nil || m.logger == nil {
		return nil
	}
	m.logger.Info("mail (log only)", slog.String("to", to), slog.String("subject", subject), slog.String("body", textBody))
	return nil
}
