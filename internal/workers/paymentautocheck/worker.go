package paymentautocheck

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

const batchSize = 100

// Worker polls pending payments against their provider, picking up
// completions whose callbacks never arrived.
type Worker struct {
	payments PaymentPoller
	logger   *slog.Logger
	cron     *cron.Cron
}

func NewWorker(payments PaymentPoller, logger *slog.Logger) *Worker {
	return &Worker{
		payments: payments,
		logger:   logger,
		cron:     cron.New(),
	}
}

func (w *Worker) Name() string {
	return "payment-autocheck"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc("@every 1m", func() {
		ctx := context.Background()
		if err := w.payments.PollPending(ctx, batchSize); err != nil {
			w.logger.Error("Payment autocheck failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule payment autocheck worker: %w", err)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping payment autocheck worker")
	w.cron.Stop()
}
