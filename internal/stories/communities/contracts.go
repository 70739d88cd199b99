package communities

import "context"

type (
	Storage interface {
		CreateCommunity(ctx context.Context, community Community) (*Community, error)
		GetCommunity(ctx context.Context, criteria GetCriteria) (*Community, error)
		UpdateCommunity(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Community, error)
		ListCommunities(ctx context.Context, criteria ListCriteria) ([]*Community, error)
	}

	// ChatInfoProvider resolves live chat data from the Telegram Bot API.
	ChatInfoProvider interface {
		GetChatTitle(ctx context.Context, chatID int64) (string, error)
		GetChatMemberCount(ctx context.Context, chatID int64) (int, error)
	}
)
