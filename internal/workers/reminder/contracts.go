package reminder

import (
	"context"
	"time"

	"membify/internal/stories/botsettings"
	"membify/internal/stories/communities"
	"membify/internal/stories/members"
)

type (
	// Storage provides database operations
	Storage interface {
		ListSubscribers(ctx context.Context, criteria members.ListCriteria) ([]*members.Subscriber, error)
	}

	SettingsProvider interface {
		GetOrDefault(ctx context.Context, communityID int64) (*botsettings.Settings, error)
	}

	CommunityProvider interface {
		Get(ctx context.Context, id int64) (*communities.Community, error)
	}

	Notifier interface {
		SendReminder(ctx context.Context, userID int64, community *communities.Community, username string, expires *time.Time) bool
	}
)
