// Package sender собирает фоновый сервис доставки писем из очереди RabbitMQ.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/content-api/internal/config"
	"github.com/magabrotheeeer/content-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/lib/smtp"
	"github.com/magabrotheeeer/content-api/internal/services/notification"
)

// App потребитель очереди уведомлений.
type App struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	sender notification.Sender
	logger *slog.Logger
}

// New подключается к брокеру и готовит SMTP-отправителя.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sender.New"

	if cfg.RabbitMQ.URL == "" || cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("%s: rabbitmq.url and smtp.host are required", op)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, []rabbitmq.QueueConfig{
		{QueueName: cfg.RabbitMQ.Queue, RoutingKey: cfg.RabbitMQ.RoutingKey},
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		conn:   conn,
		ch:     ch,
		queue:  cfg.RabbitMQ.Queue,
		sender: notification.NewSMTPSender(smtp.NewTransport(cfg.SMTP, logger), logger),
		logger: logger,
	}, nil
}

// Run потребляет очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, a.queue, a.logger, notification.MessageHandler(a.sender, a.logger))
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", a.queue), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
