// Package assistant HTTP API ассистента парковок: отчеты водителей,
// подписки, реферальная программа и управление парковками.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/parking-assistant/internal/cache"
	"github.com/magabrotheeeer/parking-assistant/internal/config"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/jwt"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/keylock"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/timeutil"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/whatsapp"
	"github.com/magabrotheeeer/parking-assistant/internal/migrations"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
	"github.com/magabrotheeeer/parking-assistant/internal/services/gate"
	"github.com/magabrotheeeer/parking-assistant/internal/services/lot"
	"github.com/magabrotheeeer/parking-assistant/internal/services/manager"
	"github.com/magabrotheeeer/parking-assistant/internal/services/notify"
	"github.com/magabrotheeeer/parking-assistant/internal/services/referral"
	"github.com/magabrotheeeer/parking-assistant/internal/services/report"
	"github.com/magabrotheeeer/parking-assistant/internal/services/subscription"
	"github.com/magabrotheeeer/parking-assistant/internal/storage/memory"
	"github.com/magabrotheeeer/parking-assistant/internal/storage/repository"
)

// Store хранилище всех сервисов: PostgreSQL или память процесса.
type Store interface {
	lot.Repository
	report.Repository
	subscription.Repository
	referral.Repository
	manager.UserRepository
}

// App HTTP-приложение.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []func() error
}

// New собирает приложение. Без строки подключения к PostgreSQL данные
// хранятся в памяти, без Redis блокировки парковок локальные.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.assistant.New"
	app := &App{logger: logger}

	store, err := app.initStore(ctx, cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		locker   report.Locker = keylock.New()
		lotCache lot.Cache
	)
	if cfg.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, redisCache.Close)
		lotCache = redisCache
		locker = cache.NewLocker(redisCache, cfg.LockTTL, cfg.LockWait)
		logger.Info("redis cache and lot locks enabled", slog.String("addr", cfg.AddressRedis))
	}

	dispatcher, err := app.initDispatcher(ctx, cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	clock := timeutil.New(cfg.Timezone)
	var lots *lot.Service
	subscriptions := subscription.New(store, lotGetter{&lots}, clock, logger)
	notifier := notify.New(subscriptions, dispatcher, clock, cfg.FanOutWorkers, logger)
	lots = lot.New(store, lotCache, cfg.LotCacheTTL, notifier, clock, logger)
	referrals := referral.New(store, clock, referral.Config{
		GrantDays:    cfg.ReferralGrantDays,
		CodeLength:   cfg.ReferralCodeLength,
		CodeAttempts: cfg.ReferralCodeAttempts,
	}, nil, logger)
	reports := report.New(store, lots, notifier, locker, referrals, clock, report.Config{
		Threshold:         cfg.ReportThreshold,
		ActivationTimeout: cfg.ActivationTimeout,
		NotifyTimeout:     cfg.NotifyTimeout,
	}, logger)
	if cfg.JWTSecretKey == "" {
		app.close()
		return nil, fmt.Errorf("%s: jwt secret key is empty", op)
	}
	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	managers := manager.New(store, lots, tokens, clock, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Reports:       reports,
		Subscriptions: subscriptions,
		Referrals:     referrals,
		Lots:          lots,
		Managers:      managers,
		Gate:          gate.New(referrals, logger),
		Tokens:        tokens,
	}, cfg.RateLimit, cfg.RateBurst)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) initStore(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.StorageConnectionString == "" {
		a.logger.Warn("storage connection string is empty, using in-memory storage")
		return memory.New(), nil
	}

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	if err := repository.CheckDatabaseReady(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func (a *App) initDispatcher(ctx context.Context, cfg *config.Config) (notify.Dispatcher, error) {
	if cfg.NotificationMode == config.NotificationModeDirect {
		a.logger.Info("notifications are sent directly to whatsapp")
		return notify.NewDirectDispatcher(whatsapp.New(cfg.WhatsApp, a.logger)), nil
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues(), 1)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return closeChannel(ch) })

	a.logger.Info("notifications are published to rabbitmq", slog.String("exchange", rabbitmq.Exchange))
	return notify.NewQueueDispatcher(rabbitmq.NewPublisher(ch)), nil
}

func closeChannel(ch *amqp.Channel) error {
	if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}

// close освобождает ресурсы в обратном порядке.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
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
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

// Handler корневой обработчик, для тестов.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// lotGetter откладывает обращение к сервису парковок до его создания:
// подписки нужны уведомлениям, а уведомления сервису парковок.
type lotGetter struct{ svc **lot.Service }

func (g lotGetter) Get(ctx context.Context, id string) (*models.Lot, error) {
	return (*g.svc).Get(ctx, id)
}
