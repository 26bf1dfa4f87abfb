package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog"

	"webnotifier/internal/common"
	"webnotifier/internal/config"
)

// EmailMessage is a rendered notification ready for delivery.
type EmailMessage struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// EmailNotifier delivers notifications over SMTP.
type EmailNotifier struct {
	cfg    config.NotificationConfig
	logger zerolog.Logger
}

// NewEmailNotifier creates a new EmailNotifier.
func NewEmailNotifier(cfg config.NotificationConfig, logger zerolog.Logger) (*EmailNotifier, error) {
	if !cfg.Enabled() {
		return nil, common.NewValidationError("notification_config", cfg.SMTPHost, "smtp host, from address and recipients are required")
	}

	return &EmailNotifier{
		cfg:    cfg,
		logger: logger.With().Str("component", "EmailNotifier").Logger(),
	}, nil
}

// Send delivers a message to all configured recipients. The context bounds
// the whole delivery attempt.
func (en *EmailNotifier) Send(ctx context.Context, msg EmailMessage) error {
	mail := email.NewEmail()
	mail.From = en.cfg.FromAddress
	mail.To = en.cfg.Recipients
	mail.Subject = msg.Subject
	mail.Text = []byte(msg.TextBody)
	if en.cfg.SendHTML && msg.HTMLBody != "" {
		mail.HTML = []byte(msg.HTMLBody)
	}

	done := make(chan error, 1)
	go func() {
		done <- en.send(mail)
	}()

	select {
	case <-ctx.Done():
		return common.WrapError(ctx.Err(), "email delivery aborted")
	case err := <-done:
		if err != nil {
			en.logger.Error().Err(err).Str("subject", msg.Subject).Msg("Failed to send notification email")
			return common.WrapError(err, "failed to send notification email")
		}
	}

	en.logger.Info().Str("subject", msg.Subject).Int("recipients", len(en.cfg.Recipients)).Msg("Notification email sent")
	return nil
}

func (en *EmailNotifier) send(mail *email.Email) error {
	addr := fmt.Sprintf("%s:%d", en.cfg.SMTPHost, en.cfg.SMTPPort)

	var auth smtp.Auth
	if en.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", en.cfg.SMTPUsername, en.cfg.SMTPPassword, en.cfg.SMTPHost)
	}

	err := mail.Send(addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		// Local relays frequently accept mail without authentication.
		err = mail.Send(addr, nil)
	}
	return err
}
