package members

import "context"

type (
	Storage interface {
		CreateSubscriber(ctx context.Context, subscriber Subscriber) (*Subscriber, error)
		GetSubscriber(ctx context.Context, criteria GetCriteria) (*Subscriber, error)
		UpdateSubscriber(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Subscriber, error)
		ListSubscribers(ctx context.Context, criteria ListCriteria) ([]*Subscriber, error)
	}
)
