package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(
	template.New("").Option("missingkey=error").ParseFS(templatesFS, "templates/*.html"),
)

var kinds = map[Kind]struct {
	file    string
	subject string
}{
	KindVerification:  {file: "verification.html", subject: "Email Verification"},
	KindWelcome:       {file: "welcome.html", subject: "Welcome to Application"},
	KindPasswordReset: {file: "reset_password.html", subject: "Reset your Password"},
}

// Email готовое к отправке письмо.
type Email struct {
	To      string
	Subject string
	HTML    string
	Tag     string
}

// Render подставляет параметры в шаблон вида kind.
func Render(to string, kind Kind, params map[string]string) (Email, error) {
	const op = "notification.Render"

	if strings.TrimSpace(to) == "" {
		return Email{}, fmt.Errorf("%s: %w", op, ErrInvalidRecipient)
	}
	meta, ok := kinds[kind]
	if !ok {
		return Email{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownKind, kind)
	}
	if params == nil {
		params = map[string]string{}
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, meta.file, params); err != nil {
		return Email{}, fmt.Errorf("%s: %w", op, err)
	}
	return Email{
		To:      to,
		Subject: meta.subject,
		HTML:    buf.String(),
		Tag:     string(kind),
	}, nil
}
