package scheduler

import (
	"context"
	"fmt"

	leads "visitops_backend/internal/leads/service"
	notification "visitops_backend/internal/notification/service"
	"visitops_backend/platform/config"
	"visitops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultOutboxBatchSize = 50

type Worker struct {
	server        *asynq.Server
	mux           *asynq.ServeMux
	leads         *leads.Service
	notifications *notification.Service
	importFile    string
	log           *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, leadsSvc *leads.Service, notifSvc *notification.Service, importFile string, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:        server,
		mux:           mux,
		leads:         leadsSvc,
		notifications: notifSvc,
		importFile:    importFile,
		log:           log,
	}

	mux.HandleFunc(TaskLeadSync, w.handleLeadSync)
	mux.HandleFunc(TaskOutboxDispatch, w.handleOutboxDispatch)

	return w, nil
}

func (w *Worker) handleLeadSync(ctx context.Context, task *asynq.Task) error {
	if w.leads == nil {
		return nil
	}

	if _, err := ParseLeadSyncPayload(task); err != nil {
		return err
	}

	if w.importFile == "" {
		w.log.Info("lead sync skipped, no import file configured")
		return nil
	}

	result, err := w.leads.ImportFile(ctx, w.importFile)
	if err != nil {
		return err
	}

	w.log.Info("lead sync completed",
		"rows", result.Rows,
		"imported", result.Imported,
		"updated", result.Updated,
		"skipped", result.Skipped)
	return nil
}

func (w *Worker) handleOutboxDispatch(ctx context.Context, task *asynq.Task) error {
	if w.notifications == nil {
		return nil
	}

	payload, err := ParseOutboxDispatchPayload(task)
	if err != nil {
		return err
	}

	batch := payload.BatchSize
	if batch < 1 {
		batch = defaultOutboxBatchSize
	}

	sent, err := w.notifications.DispatchQueued(ctx, batch)
	if err != nil {
		return err
	}

	if sent > 0 {
		w.log.Info("notification outbox dispatched", "sent", sent)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
