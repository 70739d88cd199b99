package paymentautocheck

import "context"

type (
	// PaymentPoller checks pending payments against their provider.
	PaymentPoller interface {
		PollPending(ctx context.Context, limit int) error
	}
)
