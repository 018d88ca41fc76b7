package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visitops_backend/internal/adapters"
	"visitops_backend/internal/duplicates"
	"visitops_backend/internal/duplicates/scoring"
	"visitops_backend/internal/email"
	"visitops_backend/internal/escalation"
	"visitops_backend/internal/events"
	apphttp "visitops_backend/internal/http"
	"visitops_backend/internal/http/router"
	"visitops_backend/internal/inventory"
	"visitops_backend/internal/leads"
	"visitops_backend/internal/ledger"
	"visitops_backend/internal/notification"
	"visitops_backend/internal/reports"
	"visitops_backend/internal/storage"
	"visitops_backend/internal/uniqueness"
	"visitops_backend/internal/verification"
	"visitops_backend/internal/visits"
	"visitops_backend/migrations"
	"visitops_backend/platform/config"
	"visitops_backend/platform/db"
	"visitops_backend/platform/logger"
	"visitops_backend/platform/validator"

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
		return db.Migrate(cfg.GetDatabaseURL(), migrations.FS)
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

	// Shared validator instance for dependency injection
	val := validator.New()

	// Object storage for completion fallback photos. Optional: when MinIO is
	// not configured the photo fallback path rejects uploads.
	var photoStore storage.PhotoStore
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure visit photo bucket", 5, 2*time.Second, func() error {
			return minioSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketVisitPhotos())
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		photoStore = minioSvc
		log.Info("storage service initialized", "visitPhotosBucket", cfg.GetMinioBucketVisitPhotos())
	} else {
		log.Warn("MinIO not configured; photo fallback uploads disabled")
	}

	// Ops alert emails for incident SLA breaches
	var sender email.Sender
	if cfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
	} else {
		sender = email.NewNoopSender(log)
	}
	emailSub := email.NewSubscriber(sender, log)
	emailSub.RegisterHandlers(eventBus)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	ledgerModule := ledger.NewModule(pool, eventBus, log)
	duplicatesModule := duplicates.NewModule(pool, scoring.DefaultScorer, eventBus, val, log)

	standing := &adapters.BrokerStanding{Ledger: ledgerModule.Service()}
	flagIssuer := &adapters.FlagIssuer{Ledger: ledgerModule.Service()}

	escalationModule := escalation.NewModule(pool, flagIssuer, eventBus, val, log)

	inventoryModule := inventory.NewModule(pool,
		&adapters.DuplicateEvaluator{Duplicates: duplicatesModule.Service()},
		standing, val, log)

	visitsModule := visits.NewModule(pool,
		&adapters.PropertyReader{Repo: inventoryModule.Repository()},
		standing,
		&adapters.IncidentRecorder{Escalation: escalationModule.Service()},
		cfg, eventBus, val, log)

	classifier := uniqueness.NewClassifier(uniqueness.NewPgStore(pool), log)

	verificationModule := verification.NewModule(pool, visitsModule.Repository(),
		&adapters.PropertyLocator{Repo: inventoryModule.Repository()},
		classifier, photoStore, cfg.GetMinioBucketVisitPhotos(), eventBus, val, log)

	notificationModule, err := notification.NewModule(pool, visitsModule.Repository(), eventBus, log)
	if err != nil {
		log.Error("failed to initialize notification module", "error", err)
		panic("failed to initialize notification module: " + err.Error())
	}

	leadsModule := leads.NewModule(pool, visitsModule.Repository(), cfg, log)
	reportsModule := reports.NewModule(pool, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			inventoryModule,
			visitsModule,
			verificationModule,
			duplicatesModule,
			escalationModule,
			ledgerModule,
			leadsModule,
			notificationModule,
			reportsModule,
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
