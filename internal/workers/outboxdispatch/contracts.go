package outboxdispatch

import (
	"context"
	"time"
)

type (
	// Replayer re-applies subscription transitions that were recorded but
	// never marked applied.
	Replayer interface {
		ReplayPending(ctx context.Context, grace time.Duration, limit int) error
	}
)
