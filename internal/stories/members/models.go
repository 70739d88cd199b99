package members

import "time"

// SubStatus is the single representation of a subscriber's paid-subscription
// state. Membership (is_active) and subscription state are tracked
// separately: a chat member without a paid plan is active with status none.
type SubStatus string

const (
	SubStatusNone    SubStatus = "none"
	SubStatusActive  SubStatus = "active"
	SubStatusExpired SubStatus = "expired"
)

// Subscriber is one Telegram user tracked against one community. Rows are
// never hard-deleted, only flagged inactive.
type Subscriber struct {
	ID                int64
	CommunityID       int64
	TelegramUserID    int64
	Username          string
	JoinedAt          time.Time
	IsActive          bool
	SubStatus         SubStatus
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
	PlanID            *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Membership is the reconciler's reading of a Telegram-reported member
// status string.
type Membership int

const (
	MembershipUnknown Membership = iota
	MembershipActive
	MembershipRemoved
)

// ParseMemberStatus maps the Telegram chat-member status to a membership
// verdict. Unknown strings yield MembershipUnknown and are ignored by the
// reconciler.
func ParseMemberStatus(status string) Membership {
	switch status {
	case "member", "administrator", "creator", "restricted":
		return MembershipActive
	case "left", "kicked":
		return MembershipRemoved
	default:
		return MembershipUnknown
	}
}

// Event describes what a reconciliation run concluded, so callers can decide
// whether a welcome/removal notification is due.
type Event string

const (
	EventNone   Event = ""
	EventJoined Event = "joined"
	EventLeft   Event = "left"
)

// Outcome is the result of one reconciliation.
type Outcome struct {
	Subscriber *Subscriber
	Event      Event
}

type GetCriteria struct {
	ID             *int64
	CommunityID    *int64
	TelegramUserID *int64
}

type ListCriteria struct {
	CommunityIDs []int64
	IsActive     *bool
	SubStatus    []SubStatus
	// ExpiringBefore selects subscribers whose subscription_end falls before
	// the given instant.
	ExpiringBefore *time.Time
	// ExpiringAfter bounds ExpiringBefore from below for reminder windows.
	ExpiringAfter *time.Time
	Limit         int
	Offset        int
}

type UpdateParams struct {
	Username          *string
	IsActive          *bool
	SubStatus         *SubStatus
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
	ClearSubscription bool
	PlanID            *int64
}
