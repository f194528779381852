package notification

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/lib/smtp"
)

// SMTPSender отправляет письма напрямую через SMTP сервер.
type SMTPSender struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSMTPSender создает новый экземпляр SMTPSender.
func NewSMTPSender(transport smtp.TransportInterface, log *slog.Logger) *SMTPSender {
	return &SMTPSender{
		transport: transport,
		log:       log,
	}
}

// Send рендерит письмо и отправляет его.
func (s *SMTPSender) Send(ctx context.Context, to string, kind Kind, params map[string]string) error {
	email, err := Render(to, kind, params)
	if err != nil {
		return err
	}
	return s.sendEmail(ctx, email)
}

func buildMessage(from string, email Email) string {
	return strings.Join([]string{
		"From: " + from,
		"To: " + email.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", email.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		email.HTML,
	}, "\r\n")
}

func (s *SMTPSender) sendEmail(ctx context.Context, email Email) error {
	const op = "notification.SMTPSender.sendEmail"
	log := s.log.With(sl.Op(op), slog.String("kind", email.Tag))
	from := s.transport.GetSMTPUser()

	client, err := s.transport.Connect(ctx)
	if err != nil {
		log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Rcpt(email.To); err != nil {
		log.Error("failed to set RCPT TO", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	wc, err := client.Data()
	if err != nil {
		log.Error("failed to get Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = wc.Write([]byte(buildMessage(from, email))); err != nil {
		_ = wc.Close()
		log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		log.Error("failed to close Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = client.Quit(); err != nil {
		log.Warn("failed to quit SMTP client", sl.Err(err))
	}

	log.Info("email sent successfully")
	return nil
}
