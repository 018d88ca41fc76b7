package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	leadsrepo "visitops_backend/internal/leads/repository"
	leadsservice "visitops_backend/internal/leads/service"
	notifrepo "visitops_backend/internal/notification/repository"
	notifservice "visitops_backend/internal/notification/service"
	"visitops_backend/internal/notification/templates"
	"visitops_backend/internal/scheduler"
	visitsrepo "visitops_backend/internal/visits/repository"
	"visitops_backend/platform/config"
	"visitops_backend/platform/db"
	"visitops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

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

	visits := visitsrepo.New(pool)
	leadsSvc := leadsservice.New(leadsrepo.New(pool), visits, log)

	catalog, err := templates.LoadCatalog()
	if err != nil {
		log.Error("failed to load notification templates", "error", err)
		panic("failed to load notification templates: " + err.Error())
	}
	notifSvc := notifservice.New(notifrepo.New(pool), visits, catalog, log)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	dispatcher := scheduler.NewDispatcher(cfg, client, log)

	worker, err := scheduler.NewWorker(cfg, leadsSvc, notifSvc, cfg.GetLeadsImportFile(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("worker stopped", "error", err)
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
