package stats

import "time"

// Summary is the dashboard headline for one community.
type Summary struct {
	CommunityID           int64  `json:"communityId"`
	MemberCount           int    `json:"memberCount"`
	ActiveSubscriberCount int    `json:"activeSubscriberCount"`
	CompletedPaymentCount int    `json:"completedPaymentCount"`
	TotalRevenue          int64  `json:"totalRevenue"`
	Status                string `json:"status"`
}

// MonthPoint is one bucket of a monthly chart series.
type MonthPoint struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"`
	Revenue int64 `json:"revenue"`
	Count   int   `json:"count"`
}

// CompletedPayment is the slice of a payment row the revenue series needs.
type CompletedPayment struct {
	Amount      int64
	ProcessedAt time.Time
}

// SubscriberJoin is the slice of a subscriber row the growth series needs.
type SubscriberJoin struct {
	JoinedAt time.Time
}
