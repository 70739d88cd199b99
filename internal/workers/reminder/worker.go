package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"membify/internal/stories/members"
)

// maxWindowDays caps the lookahead so one query covers every community's
// reminder_days setting.
const maxWindowDays = 30

const batchSize = 500

// Worker sends renewal reminders ahead of subscription expiry, honoring
// each community's reminder window and quiet hours.
type Worker struct {
	storage     Storage
	settings    SettingsProvider
	communities CommunityProvider
	notifier    Notifier
	logger      *slog.Logger
	cron        *cron.Cron
	now         func() time.Time
}

func NewWorker(
	storage Storage,
	settings SettingsProvider,
	communities CommunityProvider,
	notifier Notifier,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		storage:     storage,
		settings:    settings,
		communities: communities,
		notifier:    notifier,
		logger:      logger,
		cron:        cron.New(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (w *Worker) Name() string {
	return "reminder"
}

func (w *Worker) Start() error {
	// Runs daily at 18:00
	_, err := w.cron.AddFunc("0 18 * * *", func() {
		ctx := context.Background()
		if err := w.run(ctx); err != nil {
			w.logger.Error("Reminder worker failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder worker: %w", err)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping reminder worker")
	w.cron.Stop()
}

func (w *Worker) run(ctx context.Context) error {
	now := w.now()
	windowEnd := now.AddDate(0, 0, maxWindowDays)

	expiring, err := w.storage.ListSubscribers(ctx, members.ListCriteria{
		SubStatus:      []members.SubStatus{members.SubStatusActive},
		ExpiringAfter:  &now,
		ExpiringBefore: &windowEnd,
		Limit:          batchSize,
	})
	if err != nil {
		return fmt.Errorf("list expiring subscribers: %w", err)
	}

	w.logger.Info("Found expiring subscriptions", "count", len(expiring))

	sent := 0
	for _, subscriber := range expiring {
		ok, err := w.remind(ctx, subscriber, now)
		if err != nil {
			w.logger.Error("Failed to send reminder",
				"subscriber_id", subscriber.ID,
				"error", err)
			continue
		}
		if ok {
			sent++
		}
	}

	w.logger.Info("Reminder worker execution completed", "sent", sent)
	return nil
}

func (w *Worker) remind(ctx context.Context, subscriber *members.Subscriber, now time.Time) (bool, error) {
	if subscriber.SubscriptionEnd == nil {
		return false, nil
	}

	settings, err := w.settings.GetOrDefault(ctx, subscriber.CommunityID)
	if err != nil {
		return false, fmt.Errorf("get settings: %w", err)
	}

	reminderWindow := now.AddDate(0, 0, settings.ReminderDays)
	if subscriber.SubscriptionEnd.After(reminderWindow) {
		return false, nil
	}

	if settings.InQuietHours(now.Hour()) {
		w.logger.Info("Skipping reminder during quiet hours",
			"subscriber_id", subscriber.ID,
			"community_id", subscriber.CommunityID)
		return false, nil
	}

	community, err := w.communities.Get(ctx, subscriber.CommunityID)
	if err != nil {
		return false, fmt.Errorf("get community %d: %w", subscriber.CommunityID, err)
	}
	if community == nil {
		return false, fmt.Errorf("community %d not found", subscriber.CommunityID)
	}

	return w.notifier.SendReminder(ctx, subscriber.TelegramUserID, community, subscriber.Username, subscriber.SubscriptionEnd), nil
}
