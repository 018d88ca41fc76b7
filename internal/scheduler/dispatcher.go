package scheduler

import (
	"context"
	"time"

	"visitops_backend/platform/config"
	"visitops_backend/platform/logger"
)

const outboxDispatchInterval = 30 * time.Second

// Dispatcher enqueues the recurring tasks the worker consumes.
type Dispatcher struct {
	client       *Client
	syncInterval time.Duration
	log          *logger.Logger
}

func NewDispatcher(cfg config.SchedulerConfig, client *Client, log *logger.Logger) *Dispatcher {
	syncInterval := cfg.GetLeadSyncInterval()
	if syncInterval <= 0 {
		syncInterval = 30 * time.Minute
	}

	return &Dispatcher{
		client:       client,
		syncInterval: syncInterval,
		log:          log,
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	outboxTicker := time.NewTicker(outboxDispatchInterval)
	defer outboxTicker.Stop()

	leadTicker := time.NewTicker(d.syncInterval)
	defer leadTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-outboxTicker.C:
			err := d.client.ScheduleOutboxDispatch(ctx, OutboxDispatchPayload{BatchSize: defaultOutboxBatchSize}, time.Now())
			if err != nil {
				d.log.Warn("outbox dispatch enqueue failed", "error", err)
			}
		case <-leadTicker.C:
			err := d.client.ScheduleLeadSync(ctx, LeadSyncPayload{Source: "scheduled_sync"}, time.Now())
			if err != nil {
				d.log.Warn("lead sync enqueue failed", "error", err)
			}
		}
	}
}
