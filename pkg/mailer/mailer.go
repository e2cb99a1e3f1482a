// Package mailer delivers transactional e-mail over SMTP.
package mailer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/anonto42/inkwell/backend/pkg/logger"
)

// Message is a plain-text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the relay settings. An empty Host disables delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender opens one connection per message.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return errors.Wrap(err, "mail from")
	}
	if err := m.To(msg.To); err != nil {
		return errors.Wrap(err, "mail to")
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "smtp client")
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return nil
}

// NopSender is used when no SMTP host is configured.
type NopSender struct{}

func (NopSender) Send(_ context.Context, msg Message) error {
	logger.Debug("mail skipped, smtp not configured", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
