package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"membify/internal/stories/communities"
	"membify/internal/stories/members"
)

const maxAttempts = 5

// Service records and applies subscriber state transitions.
type Service struct {
	storage     Storage
	subscribers SubscriberStorage
	communities CommunityStorage
	notifier    Notifier
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(
	storage Storage,
	subscribers SubscriberStorage,
	communityStorage CommunityStorage,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:     storage,
		subscribers: subscribers,
		communities: communityStorage,
		notifier:    notifier,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Record persists the intended transition without touching the subscriber.
func (s *Service) Record(ctx context.Context, transition Transition) (*Transition, error) {
	transition.Status = StatusPending
	created, err := s.storage.CreateTransition(ctx, transition)
	if err != nil {
		return nil, fmt.Errorf("create transition: %w", err)
	}
	return created, nil
}

// Apply moves the subscriber to the transition's target state and marks the
// transition applied, atomically, then dispatches the notification for
// transitions flagged Notify. Safe to call again for an already-applied
// transition: the subscriber update is a plain overwrite to the same values.
func (s *Service) Apply(ctx context.Context, transition *Transition) error {
	subscriber, err := s.subscribers.GetSubscriber(ctx, members.GetCriteria{ID: &transition.SubscriberID})
	if err != nil {
		return fmt.Errorf("get subscriber: %w", err)
	}
	if subscriber == nil {
		return fmt.Errorf("subscriber %d not found", transition.SubscriberID)
	}
	// Deactivation clears the end date; remember it for the expiry message.
	previousEnd := subscriber.SubscriptionEnd

	params := members.UpdateParams{
		SubStatus: lo.ToPtr(transition.NewStatus),
	}

	switch transition.Kind {
	case KindActivate:
		params.IsActive = lo.ToPtr(true)
		params.SubscriptionStart = transition.SubscriptionStart
		params.SubscriptionEnd = transition.SubscriptionEnd
		params.PlanID = transition.PlanID
	case KindDeactivate:
		params.ClearSubscription = true
	default:
		return fmt.Errorf("unknown transition kind: %q", transition.Kind)
	}

	if err := s.storage.ApplyTransition(ctx, transition.ID, transition.SubscriberID, params); err != nil {
		return fmt.Errorf("apply transition: %w", err)
	}

	s.logger.Info("Transition applied",
		"transition_id", transition.ID,
		"subscriber_id", transition.SubscriberID,
		"kind", string(transition.Kind))

	if transition.Notify {
		s.notifyApplied(ctx, transition, subscriber, previousEnd)
	}

	return nil
}

func (s *Service) notifyApplied(ctx context.Context, transition *Transition, subscriber *members.Subscriber, previousEnd *time.Time) {
	community, err := s.communities.GetCommunity(ctx, communities.GetCriteria{ID: &subscriber.CommunityID})
	if err != nil || community == nil {
		s.logger.Warn("Skipping transition notification, community lookup failed",
			"transition_id", transition.ID,
			"community_id", subscriber.CommunityID,
			"error", err)
		return
	}

	switch transition.Kind {
	case KindActivate:
		s.notifier.SendWelcome(ctx, subscriber.TelegramUserID, community, subscriber.Username, transition.SubscriptionEnd)
	case KindDeactivate:
		s.notifier.SendExpiry(ctx, subscriber.TelegramUserID, community, subscriber.Username, previousEnd)
	}
}

// ReplayPending re-applies transitions that were recorded but never marked
// applied, skipping ones younger than grace to avoid racing the hot path.
func (s *Service) ReplayPending(ctx context.Context, grace time.Duration, limit int) error {
	cutoff := s.now().Add(-grace)
	pending, err := s.storage.ListTransitions(ctx, ListCriteria{
		Status:        []Status{StatusPending},
		CreatedBefore: &cutoff,
		Limit:         limit,
	})
	if err != nil {
		return fmt.Errorf("list pending transitions: %w", err)
	}

	for _, transition := range pending {
		if transition.Attempts >= maxAttempts {
			if err := s.storage.MarkTransitionFailed(ctx, transition.ID, "max attempts exceeded"); err != nil {
				s.logger.Error("Failed to mark transition failed",
					"transition_id", transition.ID, "error", err)
			}
			continue
		}

		if err := s.storage.IncrementTransitionAttempts(ctx, transition.ID); err != nil {
			s.logger.Error("Failed to increment transition attempts",
				"transition_id", transition.ID, "error", err)
			continue
		}

		if err := s.Apply(ctx, transition); err != nil {
			s.logger.Error("Failed to replay transition",
				"transition_id", transition.ID,
				"attempt", transition.Attempts+1,
				"error", err)
			continue
		}

		s.logger.Info("Transition replayed", "transition_id", transition.ID)
	}

	return nil
}
