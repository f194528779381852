package contentapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/content-api/internal/cache"
	"github.com/magabrotheeeer/content-api/internal/config"
	"github.com/magabrotheeeer/content-api/internal/lib/jwt"
	"github.com/magabrotheeeer/content-api/internal/lib/password"
	"github.com/magabrotheeeer/content-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/lib/smtp"
	"github.com/magabrotheeeer/content-api/internal/migrations"
	authservice "github.com/magabrotheeeer/content-api/internal/services/auth"
	"github.com/magabrotheeeer/content-api/internal/services/notification"
	userservice "github.com/magabrotheeeer/content-api/internal/services/user"
	"github.com/magabrotheeeer/content-api/internal/services/verification"
	"github.com/magabrotheeeer/content-api/internal/storage/memory"
	"github.com/magabrotheeeer/content-api/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение и ресурсы, которые нужно закрыть при остановке.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []io.Closer
}

// New создаёт приложение по конфигурации. При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "contentapi.New"

	app := &App{logger: logger}
	fail := func(err error) (*App, error) {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	store, err := app.initStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	notifier, err := app.initNotifier(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	hasher := password.NewHasher(password.Params{
		Memory:      cfg.Password.Memory,
		Iterations:  cfg.Password.Iterations,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  password.DefaultParams.SaltLength,
		KeyLength:   password.DefaultParams.KeyLength,
	})
	tokens := verification.NewManager(store, verification.Config{
		VerificationTTL: cfg.Tokens.VerificationTTL,
		ResetTTL:        cfg.Tokens.ResetTTL,
	})

	authService := authservice.New(
		store,
		hasher,
		jwt.NewJWTMaker(cfg.JWT.Secret),
		tokens,
		notifier,
		authservice.Config{
			LoginTTL:   cfg.JWT.LoginTTL,
			SessionTTL: cfg.JWT.SessionTTL(),
			FrontURL:   cfg.Links.FrontURL,
			APIURL:     cfg.Links.APIURL,
		},
		logger,
	)
	userService := userservice.New(store, hasher, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, userService, registry, cfg.Limits)

	app.server = &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	return app, nil
}

// initStore выбирает хранилище пользователей и при наличии адреса Redis
// оборачивает его кэшем.
func (a *App) initStore(ctx context.Context, cfg *config.Config) (cache.UserStore, error) {
	var store cache.UserStore

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		a.logger.Warn("using in-memory user storage, data is lost on restart")
		store = memory.New()
	default:
		db, err := repository.New(ctx, cfg.Storage.ConnectionString)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		if err := prepareSchema(ctx, db, cfg.Storage.MigrationsPath, a.logger); err != nil {
			return nil, err
		}
		store = db
	}

	if cfg.Redis.Address == "" {
		return store, nil
	}
	redisCache, err := cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, redisCache)
	return cache.NewUserCache(store, redisCache, cfg.Redis.UserTTL, a.logger), nil
}

// prepareSchema применяет миграции и проверяет, что схема пригодна к работе:
// миграция не оборвана на середине и таблица users существует.
func prepareSchema(ctx context.Context, db *repository.Storage, path string, log *slog.Logger) error {
	const op = "contentapi.prepareSchema"

	if err := migrations.Run(db.DB, path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	version, dirty, err := migrations.Version(db.DB, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if dirty {
		return fmt.Errorf("%s: schema version %d is dirty", op, version)
	}
	if err := repository.CheckDatabaseReady(ctx, db); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("database schema is ready", slog.Uint64("version", uint64(version)))
	return nil
}

// initNotifier создаёт отправителя писем выбранного провайдера.
func (a *App) initNotifier(ctx context.Context, cfg *config.Config) (notification.Sender, error) {
	switch cfg.Notifier.Provider {
	case config.NotifierPostmark:
		return notification.NewPostmarkSender(notification.PostmarkConfig{
			ServerToken:  cfg.Postmark.ServerToken,
			AccountToken: cfg.Postmark.AccountToken,
			SenderEmail:  cfg.Postmark.SenderEmail,
			SupportEmail: cfg.Postmark.SupportEmail,
		})
	case config.NotifierQueue:
		conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn)
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, []rabbitmq.QueueConfig{
			{QueueName: cfg.RabbitMQ.Queue, RoutingKey: cfg.RabbitMQ.RoutingKey},
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ch)
		return notification.NewQueueSender(ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey), nil
	case config.NotifierLog:
		return notification.NewLogSender(a.logger), nil
	default:
		return notification.NewSMTPSender(smtp.NewTransport(cfg.SMTP, a.logger), a.logger), nil
	}
}

// Run запускает HTTP-сервер и останавливает его после отмены ctx,
// давая активным запросам shutdownTimeout на завершение.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

// close закрывает ресурсы в обратном порядке открытия.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
