package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/content-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
)

// QueueSender публикует уведомления в RabbitMQ, доставкой занимается
// отдельный процесс notification-sender.
type QueueSender struct {
	publisher  rabbitmq.Publisher
	exchange   string
	routingKey string
}

// NewQueueSender создает отправителя, публикующего в exchange с ключом routingKey.
func NewQueueSender(publisher rabbitmq.Publisher, exchange, routingKey string) *QueueSender {
	return &QueueSender{publisher: publisher, exchange: exchange, routingKey: routingKey}
}

// Send проверяет, что письмо рендерится, и публикует сообщение.
func (q *QueueSender) Send(_ context.Context, to string, kind Kind, params map[string]string) error {
	const op = "notification.QueueSender.Send"

	if _, err := Render(to, kind, params); err != nil {
		return err
	}
	msg := Message{To: to, Kind: kind, Params: params}
	if err := rabbitmq.PublishMessage(q.publisher, q.exchange, q.routingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MessageHandler возвращает обработчик сообщений очереди, доставляющий их через sender.
func MessageHandler(sender Sender, log *slog.Logger) func(context.Context, []byte) error {
	return func(ctx context.Context, body []byte) error {
		const op = "notification.MessageHandler"

		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := sender.Send(ctx, msg.To, msg.Kind, msg.Params); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}
}
