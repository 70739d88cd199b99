package payment

import (
	"fmt"
	"time"
)

type Provider string

const (
	ProviderStripe   Provider = "stripe"
	ProviderCrypto   Provider = "crypto"
	ProviderTelegram Provider = "telegram"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Payment records a single payment attempt and its outcome. Amount is in
// minor currency units.
type Payment struct {
	ID                int64
	CommunityID       int64
	SubscriberID      int64
	PlanID            int64
	Provider          Provider
	ProviderPaymentID *string
	Amount            int64
	Currency          string
	Status            Status
	PaymentURL        *string
	ProcessedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type GetCriteria struct {
	ID                *int64
	Provider          *Provider
	ProviderPaymentID *string
}

type ListCriteria struct {
	CommunityIDs  []int64
	SubscriberIDs []int64
	Status        []Status
	Limit         int
	Offset        int
}

type UpdateParams struct {
	Status            *Status
	ProviderPaymentID *string
	PaymentURL        *string
	ProcessedAt       *time.Time
}

// MapCryptoStatus maps a crypto-provider payment status to the internal
// status. The switch is exhaustive over the provider's documented statuses;
// anything else is an error so new provider states fail loudly instead of
// being silently dropped.
func MapCryptoStatus(providerStatus string) (Status, error) {
	switch providerStatus {
	case "waiting", "confirming", "sending", "partially_paid":
		return StatusPending, nil
	case "finished", "confirmed":
		return StatusCompleted, nil
	case "failed", "refunded", "expired", "cancelled":
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("unmapped crypto payment status: %q", providerStatus)
	}
}

// MapStripeEventType maps a Stripe webhook event type to the internal
// status. The second return is false for event types the updater does not
// act on.
func MapStripeEventType(eventType string) (Status, bool) {
	switch eventType {
	case "payment_intent.succeeded":
		return StatusCompleted, true
	case "payment_intent.payment_failed", "payment_intent.canceled":
		return StatusFailed, true
	default:
		return "", false
	}
}

// MapStripeIntentStatus maps a polled PaymentIntent status to the internal
// status.
func MapStripeIntentStatus(intentStatus string) (Status, error) {
	switch intentStatus {
	case "succeeded":
		return StatusCompleted, nil
	case "canceled":
		return StatusFailed, nil
	case "processing", "requires_payment_method", "requires_confirmation",
		"requires_action", "requires_capture":
		return StatusPending, nil
	default:
		return "", fmt.Errorf("unmapped stripe intent status: %q", intentStatus)
	}
}
