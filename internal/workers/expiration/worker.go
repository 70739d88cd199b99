package expiration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"membify/internal/outbox"
	"membify/internal/stories/members"
)

const batchSize = 500

// Worker moves lapsed subscriptions to expired and kicks the member out of
// the community chat.
type Worker struct {
	storage     Storage
	transitions TransitionOutbox
	communities CommunityProvider
	chat        ChatGateway
	logger      *slog.Logger
	cron        *cron.Cron
	now         func() time.Time
}

func NewWorker(
	storage Storage,
	transitions TransitionOutbox,
	communities CommunityProvider,
	chat ChatGateway,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		storage:     storage,
		transitions: transitions,
		communities: communities,
		chat:        chat,
		logger:      logger,
		cron:        cron.New(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (w *Worker) Name() string {
	return "expiration"
}

func (w *Worker) Start() error {
	// Runs daily at 00:10
	_, err := w.cron.AddFunc("10 0 * * *", func() {
		ctx := context.Background()
		if err := w.run(ctx); err != nil {
			w.logger.Error("Expiration worker failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule expiration worker: %w", err)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping expiration worker")
	w.cron.Stop()
}

func (w *Worker) run(ctx context.Context) error {
	now := w.now()

	expired, err := w.storage.ListSubscribers(ctx, members.ListCriteria{
		SubStatus:      []members.SubStatus{members.SubStatusActive},
		ExpiringBefore: &now,
		Limit:          batchSize,
	})
	if err != nil {
		return fmt.Errorf("list expired subscribers: %w", err)
	}

	w.logger.Info("Found expired subscriptions", "count", len(expired))

	for _, subscriber := range expired {
		if err := w.expire(ctx, subscriber); err != nil {
			w.logger.Error("Failed to expire subscription",
				"subscriber_id", subscriber.ID,
				"error", err)
		}
	}

	return nil
}

func (w *Worker) expire(ctx context.Context, subscriber *members.Subscriber) error {
	// The transition carries Notify, so the outbox apply delivers the
	// expiry message even when it happens on replay.
	transition, err := w.transitions.Record(ctx, outbox.Transition{
		SubscriberID: subscriber.ID,
		Kind:         outbox.KindDeactivate,
		NewStatus:    members.SubStatusExpired,
		Notify:       true,
	})
	if err != nil {
		return fmt.Errorf("record deactivate transition: %w", err)
	}

	if err := w.transitions.Apply(ctx, transition); err != nil {
		return fmt.Errorf("apply deactivate transition: %w", err)
	}

	community, err := w.communities.Get(ctx, subscriber.CommunityID)
	if err != nil {
		return fmt.Errorf("get community %d: %w", subscriber.CommunityID, err)
	}
	if community == nil {
		return fmt.Errorf("community %d not found", subscriber.CommunityID)
	}

	// kick: the chat_member webhook that follows reconciles is_active
	if err := w.chat.BanChatMember(community.ChatID, subscriber.TelegramUserID); err != nil {
		w.logger.Warn("Failed to remove expired member from chat",
			"subscriber_id", subscriber.ID,
			"chat_id", community.ChatID,
			"error", err)
	} else if err := w.chat.UnbanChatMember(community.ChatID, subscriber.TelegramUserID); err != nil {
		w.logger.Warn("Failed to lift removal ban",
			"subscriber_id", subscriber.ID,
			"chat_id", community.ChatID,
			"error", err)
	}

	w.logger.Info("Subscription expired",
		"subscriber_id", subscriber.ID,
		"community_id", subscriber.CommunityID)

	return nil
}
