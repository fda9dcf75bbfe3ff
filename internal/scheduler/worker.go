package scheduler

import (
	"context"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	"github.com/sanjaykhatri/lead-management-backend/internal/notification/outbox"
	"github.com/sanjaykhatri/lead-management-backend/platform/config"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExportPruner removes export archives older than the retention window.
type ExportPruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Worker consumes the asynq queue and finishes outbox deliveries.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	outbox *outbox.Repository
	bus    events.Bus
	pruner ExportPruner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, pruner ExportPruner, log *logger.Logger) (*Worker, error) {
	opt, queue, err := connectionFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		outbox: outbox.New(pool),
		bus:    bus,
		pruner: pruner,
		log:    log,
	}

	mux.HandleFunc(TaskNotificationOutboxDue, w.handleNotificationOutboxDue)
	mux.HandleFunc(TaskLeadExportCleanup, w.handleLeadExportCleanup)

	return w, nil
}

// handleNotificationOutboxDue republishes the record on the bus so delivery
// subscribers run, then settles the row. A handler error marks the row
// failed; asynq retries are not wanted once the row records the outcome.
func (w *Worker) handleNotificationOutboxDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return err
	}
	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	if err := w.bus.PublishSync(ctx, events.NotificationOutboxDue{
		BaseEvent: events.NewBaseEvent(),
		OutboxID:  outboxID,
	}); err != nil {
		w.log.Warn("outbox delivery failed", "outboxId", outboxID, "error", err)
		return w.outbox.MarkFailed(ctx, outboxID, err.Error())
	}
	return w.outbox.MarkSent(ctx, outboxID)
}

func (w *Worker) handleLeadExportCleanup(ctx context.Context, task *asynq.Task) error {
	if w.pruner == nil {
		return nil
	}
	payload, err := ParseLeadExportCleanupPayload(task)
	if err != nil {
		return err
	}
	retention := payload.RetentionDays
	if retention < 1 {
		retention = 30
	}

	pruned, err := w.pruner.PruneOlderThan(ctx, time.Now().AddDate(0, 0, -retention))
	if err != nil {
		return err
	}
	if pruned > 0 {
		w.log.Info("expired lead exports pruned", "count", pruned)
	}
	return nil
}

// Run serves the queue until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
