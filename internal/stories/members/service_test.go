package members

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeStorage struct {
	rows   map[int64]*Subscriber
	nextID int64
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{rows: make(map[int64]*Subscriber), nextID: 1}
}

func (f *fakeStorage) CreateSubscriber(_ context.Context, subscriber Subscriber) (*Subscriber, error) {
	subscriber.ID = f.nextID
	f.nextID++
	subscriber.CreatedAt = time.Now()
	subscriber.UpdatedAt = subscriber.CreatedAt
	row := subscriber
	f.rows[row.ID] = &row
	return &row, nil
}

func (f *fakeStorage) GetSubscriber(_ context.Context, criteria GetCriteria) (*Subscriber, error) {
	for _, row := range f.rows {
		if criteria.ID != nil && row.ID == *criteria.ID {
			return row, nil
		}
		if criteria.CommunityID != nil && criteria.TelegramUserID != nil &&
			row.CommunityID == *criteria.CommunityID &&
			row.TelegramUserID == *criteria.TelegramUserID {
			return row, nil
		}
	}
	return nil, nil
}

func (f *fakeStorage) UpdateSubscriber(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Subscriber, error) {
	row, err := f.GetSubscriber(ctx, criteria)
	if err != nil || row == nil {
		return nil, err
	}
	if params.Username != nil {
		row.Username = *params.Username
	}
	if params.IsActive != nil {
		row.IsActive = *params.IsActive
	}
	if params.SubStatus != nil {
		row.SubStatus = *params.SubStatus
	}
	if params.ClearSubscription {
		row.SubscriptionStart = nil
		row.SubscriptionEnd = nil
		row.PlanID = nil
	}
	if params.SubscriptionStart != nil {
		row.SubscriptionStart = params.SubscriptionStart
	}
	if params.SubscriptionEnd != nil {
		row.SubscriptionEnd = params.SubscriptionEnd
	}
	if params.PlanID != nil {
		row.PlanID = params.PlanID
	}
	row.UpdatedAt = time.Now()
	return row, nil
}

func (f *fakeStorage) ListSubscribers(_ context.Context, _ ListCriteria) ([]*Subscriber, error) {
	var out []*Subscriber
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func newTestService(storage Storage) *Service {
	return NewService(storage, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseMemberStatus(t *testing.T) {
	tests := []struct {
		status string
		want   Membership
	}{
		{"member", MembershipActive},
		{"administrator", MembershipActive},
		{"creator", MembershipActive},
		{"restricted", MembershipActive},
		{"left", MembershipRemoved},
		{"kicked", MembershipRemoved},
		{"banned", MembershipUnknown},
		{"", MembershipUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := ParseMemberStatus(tt.status); got != tt.want {
				t.Errorf("ParseMemberStatus(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestReconcileNewMemberCreatesActiveRow(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage)

	outcome, err := svc.Reconcile(context.Background(), ReconcileRequest{
		CommunityID:    1,
		TelegramUserID: 42,
		Username:       "alice",
		NewStatus:      "member",
	})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	if outcome.Event != EventJoined {
		t.Errorf("event = %q, want %q", outcome.Event, EventJoined)
	}
	if !outcome.Subscriber.IsActive {
		t.Error("subscriber should be active after join")
	}
	if outcome.Subscriber.SubStatus != SubStatusNone {
		t.Errorf("sub status = %q, want %q", outcome.Subscriber.SubStatus, SubStatusNone)
	}
	if outcome.Subscriber.JoinedAt.IsZero() {
		t.Error("joined_at should be stamped")
	}
}

func TestReconcileLeaveDeactivatesAndClearsSubscription(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage)
	ctx := context.Background()

	end := time.Now().Add(20 * 24 * time.Hour)
	planID := int64(7)
	created, err := storage.CreateSubscriber(ctx, Subscriber{
		CommunityID:     1,
		TelegramUserID:  42,
		Username:        "alice",
		JoinedAt:        time.Now(),
		IsActive:        true,
		SubStatus:       SubStatusActive,
		SubscriptionEnd: &end,
		PlanID:          &planID,
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, status := range []string{"left", "kicked"} {
		outcome, err := svc.Reconcile(ctx, ReconcileRequest{
			CommunityID:    1,
			TelegramUserID: 42,
			NewStatus:      status,
		})
		if err != nil {
			t.Fatalf("Reconcile(%s) returned error: %v", status, err)
		}

		if outcome.Subscriber.IsActive {
			t.Errorf("subscriber should be inactive after %q", status)
		}
		if outcome.Subscriber.SubStatus != SubStatusNone {
			t.Errorf("sub status after %q = %q, want cleared", status, outcome.Subscriber.SubStatus)
		}
		if outcome.Subscriber.SubscriptionEnd != nil || outcome.Subscriber.PlanID != nil {
			t.Errorf("subscription linkage should be cleared after %q", status)
		}
	}

	if storage.rows[created.ID] == nil {
		t.Error("subscriber row must not be deleted")
	}
}

func TestReconcileLeaveEmitsEventOnlyOnce(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage)
	ctx := context.Background()

	if _, err := svc.Reconcile(ctx, ReconcileRequest{CommunityID: 1, TelegramUserID: 42, NewStatus: "member"}); err != nil {
		t.Fatal(err)
	}

	first, err := svc.Reconcile(ctx, ReconcileRequest{CommunityID: 1, TelegramUserID: 42, NewStatus: "left"})
	if err != nil {
		t.Fatal(err)
	}
	if first.Event != EventLeft {
		t.Errorf("first leave event = %q, want %q", first.Event, EventLeft)
	}

	second, err := svc.Reconcile(ctx, ReconcileRequest{CommunityID: 1, TelegramUserID: 42, NewStatus: "left"})
	if err != nil {
		t.Fatal(err)
	}
	if second.Event != EventNone {
		t.Errorf("repeated leave event = %q, want none", second.Event)
	}
}

func TestReconcileUnknownStatusIsIgnored(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage)

	outcome, err := svc.Reconcile(context.Background(), ReconcileRequest{
		CommunityID:    1,
		TelegramUserID: 42,
		NewStatus:      "mystery",
	})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if outcome.Subscriber != nil || outcome.Event != EventNone {
		t.Error("unknown status must not touch storage")
	}
	if len(storage.rows) != 0 {
		t.Error("no rows should be created for unknown status")
	}
}

func TestReconcileLeaveForUnseenUserSendsNothing(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage)

	outcome, err := svc.Reconcile(context.Background(), ReconcileRequest{
		CommunityID:    1,
		TelegramUserID: 42,
		NewStatus:      "kicked",
	})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if outcome.Event != EventNone {
		t.Errorf("event = %q, want none for unseen user leave", outcome.Event)
	}
	if outcome.Subscriber == nil || outcome.Subscriber.IsActive {
		t.Error("row should exist inactive so repeated leave webhooks stay idempotent")
	}
}

func TestReconcileUpdatesUsername(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage)
	ctx := context.Background()

	if _, err := svc.Reconcile(ctx, ReconcileRequest{CommunityID: 1, TelegramUserID: 42, Username: "alice", NewStatus: "member"}); err != nil {
		t.Fatal(err)
	}

	outcome, err := svc.Reconcile(ctx, ReconcileRequest{CommunityID: 1, TelegramUserID: 42, Username: "alice_new", NewStatus: "administrator"})
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Subscriber.Username != "alice_new" {
		t.Errorf("username = %q, want alice_new", outcome.Subscriber.Username)
	}
}

func TestEnsureCreatesInactiveRowBeforeJoin(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage)

	subscriber, err := svc.Ensure(context.Background(), 1, 42, "alice")
	if err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}

	if subscriber.IsActive {
		t.Error("pre-join subscriber should be inactive")
	}
	if subscriber.SubStatus != SubStatusNone {
		t.Errorf("sub status = %q, want none", subscriber.SubStatus)
	}
	if subscriber.Username != "alice" {
		t.Errorf("username = %q, want alice", subscriber.Username)
	}
}

func TestEnsureReturnsExistingRow(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage)
	ctx := context.Background()

	first, err := svc.Ensure(ctx, 1, 42, "alice")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Ensure(ctx, 1, 42, "alice")
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Errorf("second Ensure created a new row: %d != %d", second.ID, first.ID)
	}
	if len(storage.rows) != 1 {
		t.Errorf("subscriber rows = %d, want 1", len(storage.rows))
	}
}
