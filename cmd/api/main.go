package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/adapters/storage"
	"github.com/sanjaykhatri/lead-management-backend/internal/analytics"
	"github.com/sanjaykhatri/lead-management-backend/internal/billing"
	"github.com/sanjaykhatri/lead-management-backend/internal/email"
	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	"github.com/sanjaykhatri/lead-management-backend/internal/exports"
	apphttp "github.com/sanjaykhatri/lead-management-backend/internal/http"
	"github.com/sanjaykhatri/lead-management-backend/internal/http/router"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads"
	"github.com/sanjaykhatri/lead-management-backend/internal/locations"
	"github.com/sanjaykhatri/lead-management-backend/internal/notification"
	"github.com/sanjaykhatri/lead-management-backend/internal/notification/sms"
	"github.com/sanjaykhatri/lead-management-backend/internal/providers"
	"github.com/sanjaykhatri/lead-management-backend/internal/settings"
	"github.com/sanjaykhatri/lead-management-backend/migrations"
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
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// MinIO storage for export archives; nil when MINIO_ENDPOINT is unset
	storageSvc, err := storage.New(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if storageSvc.Enabled() {
		if err := withRetry(ctx, log, "ensure exports bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		log.Info("storage service initialized", "bucket", cfg.GetMinioBucketLeadExports())
	}

	var sender email.Sender = email.NoopSender{}
	if cfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
		log.Info("smtp email sender initialized", "host", cfg.GetSMTPHost())
	}

	smsClient := sms.NewClient(cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	settingsModule, err := settings.NewModule(ctx, pool, cfg, log)
	if err != nil {
		log.Error("failed to initialize settings module", "error", err)
		panic("failed to initialize settings module: " + err.Error())
	}
	defer func() { _ = settingsModule.Close() }()

	locationsModule := locations.NewModule(pool, log)
	providersModule := providers.NewModule(pool, val, log)
	billingModule := billing.NewModule(pool, providersModule.Service(), eventBus, cfg, log)
	leadsModule := leads.NewModule(pool, providersModule.Service(), eventBus, log)

	// Notification module subscribes to domain events and also serves the feed
	notificationModule := notification.NewModule(pool, sender, smsClient,
		settingsModule.Service(), providersModule.Service(), billingModule.Service(),
		cfg.GetFrontendURL(), log)
	notificationModule.RegisterEventHandlers(eventBus)

	exportsModule := exports.NewModule(pool, storageSvc, log)
	analyticsModule := analytics.NewModule(pool)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			settingsModule,
			locationsModule,
			providersModule,
			leadsModule,
			billingModule,
			notificationModule,
			exportsModule,
			analyticsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
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
