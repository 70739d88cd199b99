package cmds

import (
	"context"

	"membify/internal/stories/communities"
	"membify/internal/stories/stats"
)

type (
	Sender interface {
		SendMessage(chatID int64, text string) error
	}

	CommunityLister interface {
		ListByOwner(ctx context.Context, ownerTelegramID int64) ([]*communities.Community, error)
		RefreshMemberCount(ctx context.Context, communityID int64) error
	}

	StatsProvider interface {
		Summary(ctx context.Context, communityID int64) (*stats.Summary, error)
	}
)
