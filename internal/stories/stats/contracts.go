package stats

import (
	"context"
	"time"
)

type (
	// Storage provides the aggregate queries backing the dashboard.
	Storage interface {
		CountActiveSubscribers(ctx context.Context, communityID int64) (int, error)
		CountMembers(ctx context.Context, communityID int64) (int, error)
		CountCompletedPayments(ctx context.Context, communityID int64) (int, error)
		SumCompletedPayments(ctx context.Context, communityID int64) (int64, error)
		ListCompletedPayments(ctx context.Context, communityID int64, since time.Time) ([]CompletedPayment, error)
		ListSubscriberJoins(ctx context.Context, communityID int64, since time.Time) ([]SubscriberJoin, error)
	}
)
