package payment

import (
	"context"

	"membify/internal/outbox"
	"membify/internal/stories/plans"
)

type (
	// Storage provides database operations for payments.
	Storage interface {
		CreatePayment(ctx context.Context, payment Payment) (*Payment, error)
		GetPayment(ctx context.Context, criteria GetCriteria) (*Payment, error)
		UpdatePayment(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Payment, error)
		ListPayments(ctx context.Context, criteria ListCriteria) ([]*Payment, error)
	}

	PlanStorage interface {
		GetPlan(ctx context.Context, criteria plans.GetCriteria) (*plans.Plan, error)
	}

	// TransitionOutbox records and applies subscriber state transitions.
	TransitionOutbox interface {
		Record(ctx context.Context, transition outbox.Transition) (*outbox.Transition, error)
		Apply(ctx context.Context, transition *outbox.Transition) error
	}

	// StripeClient creates and inspects Stripe payment intents.
	StripeClient interface {
		CreatePaymentIntent(ctx context.Context, amount int64, currency, description string, metadata map[string]string) (id, clientSecret string, err error)
		GetPaymentIntentStatus(ctx context.Context, intentID string) (string, error)
	}

	// CryptoClient creates and inspects crypto-provider invoices.
	CryptoClient interface {
		CreateInvoice(ctx context.Context, amount int64, currency, description string) (id, invoiceURL string, err error)
		GetInvoiceStatus(ctx context.Context, invoiceID string) (string, error)
	}
)
