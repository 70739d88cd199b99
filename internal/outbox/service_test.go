package outbox

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/samber/lo"

	"membify/internal/stories/communities"
	"membify/internal/stories/members"
)

type fakeStorage struct {
	transitions map[int64]*Transition
	nextID      int64
	applied     []int64
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{transitions: make(map[int64]*Transition)}
}

func (f *fakeStorage) CreateTransition(_ context.Context, t Transition) (*Transition, error) {
	f.nextID++
	t.ID = f.nextID
	row := t
	f.transitions[row.ID] = &row
	return &row, nil
}

func (f *fakeStorage) ListTransitions(_ context.Context, criteria ListCriteria) ([]*Transition, error) {
	var out []*Transition
	for _, t := range f.transitions {
		for _, st := range criteria.Status {
			if t.Status == st {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (f *fakeStorage) ApplyTransition(_ context.Context, transitionID, _ int64, _ members.UpdateParams) error {
	f.applied = append(f.applied, transitionID)
	if t, ok := f.transitions[transitionID]; ok {
		t.Status = StatusApplied
	}
	return nil
}

func (f *fakeStorage) MarkTransitionFailed(_ context.Context, transitionID int64, lastError string) error {
	if t, ok := f.transitions[transitionID]; ok {
		t.Status = StatusFailed
		t.LastError = lastError
	}
	return nil
}

func (f *fakeStorage) IncrementTransitionAttempts(_ context.Context, transitionID int64) error {
	if t, ok := f.transitions[transitionID]; ok {
		t.Attempts++
	}
	return nil
}

type fakeSubscribers struct {
	byID map[int64]*members.Subscriber
}

func (f *fakeSubscribers) GetSubscriber(_ context.Context, criteria members.GetCriteria) (*members.Subscriber, error) {
	if criteria.ID == nil {
		return nil, nil
	}
	return f.byID[*criteria.ID], nil
}

type fakeCommunities struct {
	byID map[int64]*communities.Community
}

func (f *fakeCommunities) GetCommunity(_ context.Context, criteria communities.GetCriteria) (*communities.Community, error) {
	if criteria.ID == nil {
		return nil, nil
	}
	return f.byID[*criteria.ID], nil
}

type notification struct {
	userID  int64
	expires *time.Time
}

type fakeNotifier struct {
	welcomes []notification
	expiries []notification
}

func (f *fakeNotifier) SendWelcome(_ context.Context, userID int64, _ *communities.Community, _ string, expires *time.Time) bool {
	f.welcomes = append(f.welcomes, notification{userID, expires})
	return true
}

func (f *fakeNotifier) SendExpiry(_ context.Context, userID int64, _ *communities.Community, _ string, expires *time.Time) bool {
	f.expiries = append(f.expiries, notification{userID, expires})
	return true
}

type fixture struct {
	storage     *fakeStorage
	subscribers *fakeSubscribers
	communities *fakeCommunities
	notifier    *fakeNotifier
	service     *Service
}

func newFixture() *fixture {
	f := &fixture{
		storage: newFakeStorage(),
		subscribers: &fakeSubscribers{byID: map[int64]*members.Subscriber{
			1: {ID: 1, CommunityID: 7, TelegramUserID: 100, Username: "alice"},
		}},
		communities: &fakeCommunities{byID: map[int64]*communities.Community{
			7: {ID: 7, ChatID: -100500, Title: "X"},
		}},
		notifier: &fakeNotifier{},
	}
	f.service = NewService(f.storage, f.subscribers, f.communities, f.notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.service.now = func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func TestApplyActivateSendsWelcome(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	end := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	transition, err := f.service.Record(ctx, Transition{
		SubscriberID:    1,
		Kind:            KindActivate,
		NewStatus:       members.SubStatusActive,
		SubscriptionEnd: &end,
		Notify:          true,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := f.service.Apply(ctx, transition); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(f.notifier.welcomes) != 1 {
		t.Fatalf("welcomes = %d, want 1", len(f.notifier.welcomes))
	}
	got := f.notifier.welcomes[0]
	if got.userID != 100 {
		t.Errorf("welcome userID = %d, want 100", got.userID)
	}
	if got.expires == nil || !got.expires.Equal(end) {
		t.Errorf("welcome expires = %v, want %v", got.expires, end)
	}
}

func TestApplyDeactivateSendsExpiryWithPreviousEnd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	end := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	f.subscribers.byID[1].SubscriptionEnd = &end

	transition, err := f.service.Record(ctx, Transition{
		SubscriberID: 1,
		Kind:         KindDeactivate,
		NewStatus:    members.SubStatusExpired,
		Notify:       true,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := f.service.Apply(ctx, transition); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(f.notifier.expiries) != 1 {
		t.Fatalf("expiries = %d, want 1", len(f.notifier.expiries))
	}
	got := f.notifier.expiries[0]
	if got.expires == nil || !got.expires.Equal(end) {
		t.Errorf("expiry date = %v, want the end the subscription had before the clear (%v)", got.expires, end)
	}
}

func TestApplyWithoutNotifySendsNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	transition, err := f.service.Record(ctx, Transition{
		SubscriberID: 1,
		Kind:         KindActivate,
		NewStatus:    members.SubStatusActive,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := f.service.Apply(ctx, transition); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(f.notifier.welcomes) != 0 || len(f.notifier.expiries) != 0 {
		t.Errorf("notifications sent for Notify=false transition: %d welcomes, %d expiries",
			len(f.notifier.welcomes), len(f.notifier.expiries))
	}
}

func TestReplayPendingNotifies(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	transition, err := f.service.Record(ctx, Transition{
		SubscriberID: 1,
		Kind:         KindActivate,
		NewStatus:    members.SubStatusActive,
		SubscriptionEnd: lo.ToPtr(
			time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)),
		Notify: true,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	// Simulate a crash between record and apply: the transition sits
	// pending until the replay worker picks it up.
	transition.CreatedAt = time.Date(2024, 6, 15, 11, 0, 0, 0, time.UTC)

	if err := f.service.ReplayPending(ctx, time.Minute, 10); err != nil {
		t.Fatalf("ReplayPending: %v", err)
	}

	if len(f.storage.applied) != 1 {
		t.Fatalf("applied = %d, want 1", len(f.storage.applied))
	}
	if len(f.notifier.welcomes) != 1 {
		t.Errorf("welcomes = %d, want 1 from the replayed activation", len(f.notifier.welcomes))
	}
}

func TestReplayMarksFailedAfterMaxAttempts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	transition, err := f.service.Record(ctx, Transition{
		SubscriberID: 1,
		Kind:         KindActivate,
		NewStatus:    members.SubStatusActive,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	transition.Attempts = maxAttempts

	if err := f.service.ReplayPending(ctx, time.Minute, 10); err != nil {
		t.Fatalf("ReplayPending: %v", err)
	}

	if got := f.storage.transitions[transition.ID].Status; got != StatusFailed {
		t.Errorf("status = %q, want failed after %d attempts", got, maxAttempts)
	}
	if len(f.storage.applied) != 0 {
		t.Errorf("applied = %d, want 0", len(f.storage.applied))
	}
}
