package expiration

import (
	"context"

	"membify/internal/outbox"
	"membify/internal/stories/communities"
	"membify/internal/stories/members"
)

type (
	// Storage provides database operations
	Storage interface {
		ListSubscribers(ctx context.Context, criteria members.ListCriteria) ([]*members.Subscriber, error)
	}

	TransitionOutbox interface {
		Record(ctx context.Context, transition outbox.Transition) (*outbox.Transition, error)
		Apply(ctx context.Context, transition *outbox.Transition) error
	}

	CommunityProvider interface {
		Get(ctx context.Context, id int64) (*communities.Community, error)
	}

	// ChatGateway removes expired members from the community chat. Ban plus
	// immediate unban is Telegram's kick: the user is out but can rejoin via
	// invite link after renewing.
	ChatGateway interface {
		BanChatMember(chatID, userID int64) error
		UnbanChatMember(chatID, userID int64) error
	}
)
