package outbox

import (
	"context"
	"time"

	"membify/internal/stories/communities"
	"membify/internal/stories/members"
)

type (
	Storage interface {
		CreateTransition(ctx context.Context, transition Transition) (*Transition, error)
		ListTransitions(ctx context.Context, criteria ListCriteria) ([]*Transition, error)
		ApplyTransition(ctx context.Context, transitionID, subscriberID int64, params members.UpdateParams) error
		MarkTransitionFailed(ctx context.Context, transitionID int64, lastError string) error
		IncrementTransitionAttempts(ctx context.Context, transitionID int64) error
	}

	SubscriberStorage interface {
		GetSubscriber(ctx context.Context, criteria members.GetCriteria) (*members.Subscriber, error)
	}

	CommunityStorage interface {
		GetCommunity(ctx context.Context, criteria communities.GetCriteria) (*communities.Community, error)
	}

	// Notifier delivers the subscriber-facing message for transitions
	// flagged Notify. Soft failures: a false return never blocks the apply.
	Notifier interface {
		SendWelcome(ctx context.Context, userID int64, community *communities.Community, username string, expires *time.Time) bool
		SendExpiry(ctx context.Context, userID int64, community *communities.Community, username string, expires *time.Time) bool
	}
)
