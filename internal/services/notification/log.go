package notification

import (
	"context"
	"log/slog"
)

// LogSender пишет отрендеренные письма в лог вместо отправки.
// Предназначен для локальной разработки.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (l *LogSender) Send(ctx context.Context, to string, kind Kind, params map[string]string) error {
	email, err := Render(to, kind, params)
	if err != nil {
		return err
	}
	attrs := []any{
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
		slog.String("kind", string(kind)),
	}
	for k, v := range params {
		attrs = append(attrs, slog.String(k, v))
	}
	l.log.InfoContext(ctx, "notification", attrs...)
	return nil
}
