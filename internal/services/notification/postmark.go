package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// ErrInvalidConfig возвращается при неполной конфигурации провайдера.
var ErrInvalidConfig = errors.New("invalid notifier config")

// PostmarkAPI часть клиента Postmark, используемая отправителем.
type PostmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkConfig адреса и токены Postmark.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	SenderEmail  string
	SupportEmail string
}

// PostmarkSender отправляет письма через Postmark API.
type PostmarkSender struct {
	client  PostmarkAPI
	from    string
	replyTo string
}

// NewPostmarkSender создает отправителя с клиентом Postmark.
func NewPostmarkSender(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: sender email is required", ErrInvalidConfig)
	}
	return newPostmarkSender(postmark.NewClient(cfg.ServerToken, cfg.AccountToken), cfg), nil
}

func newPostmarkSender(client PostmarkAPI, cfg PostmarkConfig) *PostmarkSender {
	replyTo := cfg.SupportEmail
	if replyTo == "" {
		replyTo = cfg.SenderEmail
	}
	return &PostmarkSender{client: client, from: cfg.SenderEmail, replyTo: replyTo}
}

// Send рендерит письмо и отправляет его через Postmark.
func (p *PostmarkSender) Send(ctx context.Context, to string, kind Kind, params map[string]string) error {
	const op = "notification.PostmarkSender.Send"

	email, err := Render(to, kind, params)
	if err != nil {
		return err
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       p.from,
		ReplyTo:    p.replyTo,
		To:         email.To,
		Subject:    email.Subject,
		Tag:        email.Tag,
		HTMLBody:   email.HTML,
		TrackOpens: false,
		TrackLinks: "None",
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("%s: postmark error: %d - %s", op, resp.ErrorCode, resp.Message)
	}
	return nil
}
