package outboxdispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	batchSize = 100

	// grace keeps the replayer away from transitions the synchronous path
	// is still working on.
	grace = time.Minute
)

// Worker replays pending subscription transitions left behind by crashes
// between the record and apply steps.
type Worker struct {
	replayer Replayer
	logger   *slog.Logger
	cron     *cron.Cron
}

func NewWorker(replayer Replayer, logger *slog.Logger) *Worker {
	return &Worker{
		replayer: replayer,
		logger:   logger,
		cron:     cron.New(),
	}
}

func (w *Worker) Name() string {
	return "outbox-dispatch"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc("@every 30s", func() {
		ctx := context.Background()
		if err := w.replayer.ReplayPending(ctx, grace, batchSize); err != nil {
			w.logger.Error("Outbox replay failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule outbox dispatch worker: %w", err)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping outbox dispatch worker")
	w.cron.Stop()
}
