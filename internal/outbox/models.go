package outbox

import (
	"time"

	"membify/internal/stories/members"
)

// Kind names the intended subscriber state change.
type Kind string

const (
	KindActivate   Kind = "activate"
	KindDeactivate Kind = "deactivate"
)

// Status tracks a transition through the outbox.
type Status string

const (
	StatusPending Status = "pending"
	StatusApplied Status = "applied"
	StatusFailed  Status = "failed"
)

// Transition is a persisted intent to move a subscriber to a new
// subscription state. It is written before the subscriber row is touched,
// applied, then marked applied, so a crash between the two writes can be
// repaired by replay instead of leaving the records silently inconsistent.
type Transition struct {
	ID                int64
	SubscriberID      int64
	PaymentID         *int64
	Kind              Kind
	NewStatus         members.SubStatus
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
	PlanID            *int64
	Notify            bool
	Status            Status
	Attempts          int
	LastError         string
	AppliedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ListCriteria struct {
	Status        []Status
	CreatedBefore *time.Time
	Limit         int
}
