// Package notification отправляет пользователям письма трех видов:
// подтверждение почты, приветствие и сброс пароля. Письмо рендерится из
// встроенного HTML шаблона и доставляется выбранным провайдером: SMTP,
// Postmark, очередь RabbitMQ или лог для локальной разработки.
package notification

import (
	"context"
	"errors"
)

// Kind вид уведомления.
type Kind string

const (
	KindVerification  Kind = "verification"
	KindWelcome       Kind = "welcome"
	KindPasswordReset Kind = "password_reset"
)

// Ключи параметров шаблонов.
const (
	ParamUsername         = "username"
	ParamVerificationLink = "verification_link"
	ParamLoginURL         = "login_url"
	ParamResetLink        = "reset_link"
)

var (
	// ErrUnknownKind возвращается для вида уведомления без шаблона.
	ErrUnknownKind = errors.New("unknown notification kind")
	// ErrInvalidRecipient возвращается при пустом адресе получателя.
	ErrInvalidRecipient = errors.New("invalid recipient")
)

// Sender доставляет уведомление получателю. Ошибка означает, что письмо не отправлено.
type Sender interface {
	Send(ctx context.Context, to string, kind Kind, params map[string]string) error
}

// Message уведомление в виде, пригодном для передачи через очередь.
type Message struct {
	To     string            `json:"to"`
	Kind   Kind              `json:"kind"`
	Params map[string]string `json:"params"`
}
