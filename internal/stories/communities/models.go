package communities

import "time"

// Community is a managed Telegram group/channel with paid subscriptions
// enabled.
type Community struct {
	ID              int64
	OwnerTelegramID int64
	ChatID          int64
	Title           string
	InviteLink      *string
	PhotoURL        *string
	// Counters are recomputed by the stats read models, not maintained
	// transactionally.
	MemberCount     int
	SubscriberCount int
	TotalRevenue    int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type GetCriteria struct {
	ID     *int64
	ChatID *int64
}

type ListCriteria struct {
	OwnerTelegramIDs []int64
	Limit            int
	Offset           int
}

type UpdateParams struct {
	Title           *string
	InviteLink      *string
	PhotoURL        *string
	MemberCount     *int
	SubscriberCount *int
	TotalRevenue    *int64
}
