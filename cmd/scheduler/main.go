package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/adapters/storage"
	"github.com/sanjaykhatri/lead-management-backend/internal/billing"
	"github.com/sanjaykhatri/lead-management-backend/internal/email"
	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	"github.com/sanjaykhatri/lead-management-backend/internal/notification"
	"github.com/sanjaykhatri/lead-management-backend/internal/notification/sms"
	"github.com/sanjaykhatri/lead-management-backend/internal/providers"
	"github.com/sanjaykhatri/lead-management-backend/internal/scheduler"
	"github.com/sanjaykhatri/lead-management-backend/internal/settings"
	"github.com/sanjaykhatri/lead-management-backend/platform/config"
	"github.com/sanjaykhatri/lead-management-backend/platform/db"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"
	"github.com/sanjaykhatri/lead-management-backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	var sender email.Sender = email.NoopSender{}
	if cfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
	}

	// Worker-side notification wiring: the outbox handler needs the runtime
	// toggles and contact lookups, no HTTP handlers are registered here.
	settingsModule, err := settings.NewModule(ctx, pool, cfg, log)
	if err != nil {
		log.Error("failed to initialize settings module", "error", err)
		panic("failed to initialize settings module: " + err.Error())
	}
	defer func() { _ = settingsModule.Close() }()

	providersModule := providers.NewModule(pool, validator.New(), log)
	billingModule := billing.NewModule(pool, providersModule.Service(), eventBus, cfg, log)

	notificationModule := notification.NewModule(pool, sender, sms.NewClient(cfg, log),
		settingsModule.Service(), providersModule.Service(), billingModule.Service(),
		cfg.GetFrontendURL(), log)
	notificationModule.RegisterDeliveryHandlers(eventBus)

	dispatcher, err := scheduler.NewOutboxDispatcher(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize outbox dispatcher", "error", err)
		panic("failed to initialize outbox dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()
	go dispatcher.Run(ctx)

	storageSvc, err := storage.New(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, pool, eventBus, storageSvc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
