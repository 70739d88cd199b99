package reminder

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"membify/internal/stories/botsettings"
	"membify/internal/stories/communities"
	"membify/internal/stories/members"
)

type fakeStorage struct {
	subscribers []*members.Subscriber
}

func (f *fakeStorage) ListSubscribers(_ context.Context, _ members.ListCriteria) ([]*members.Subscriber, error) {
	return f.subscribers, nil
}

type fakeSettings struct {
	byCommunity map[int64]*botsettings.Settings
}

func (f *fakeSettings) GetOrDefault(_ context.Context, communityID int64) (*botsettings.Settings, error) {
	if s, ok := f.byCommunity[communityID]; ok {
		return s, nil
	}
	return &botsettings.Settings{CommunityID: communityID, ReminderDays: botsettings.DefaultReminderDays}, nil
}

type fakeCommunities struct{}

func (fakeCommunities) Get(_ context.Context, id int64) (*communities.Community, error) {
	return &communities.Community{ID: id, Title: "X"}, nil
}

type fakeNotifier struct {
	remindedTo []int64
}

func (f *fakeNotifier) SendReminder(_ context.Context, userID int64, _ *communities.Community, _ string, _ *time.Time) bool {
	f.remindedTo = append(f.remindedTo, userID)
	return true
}

var testNow = time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

func newTestWorker(storage *fakeStorage, settings *fakeSettings, notifier *fakeNotifier) *Worker {
	w := NewWorker(storage, settings, fakeCommunities{}, notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.now = func() time.Time { return testNow }
	return w
}

func endIn(days int) *time.Time {
	end := testNow.AddDate(0, 0, days)
	return &end
}

func TestRunRemindsInsideWindow(t *testing.T) {
	storage := &fakeStorage{subscribers: []*members.Subscriber{
		{ID: 1, CommunityID: 7, TelegramUserID: 100, SubscriptionEnd: endIn(2)},
		{ID: 2, CommunityID: 7, TelegramUserID: 200, SubscriptionEnd: endIn(10)},
	}}
	notifier := &fakeNotifier{}

	w := newTestWorker(storage, &fakeSettings{}, notifier)

	if err := w.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// default window is 3 days, only the first subscriber qualifies
	if len(notifier.remindedTo) != 1 || notifier.remindedTo[0] != 100 {
		t.Errorf("reminded = %v, want [100]", notifier.remindedTo)
	}
}

func TestRunUsesCommunityReminderDays(t *testing.T) {
	storage := &fakeStorage{subscribers: []*members.Subscriber{
		{ID: 1, CommunityID: 7, TelegramUserID: 100, SubscriptionEnd: endIn(10)},
	}}
	settings := &fakeSettings{byCommunity: map[int64]*botsettings.Settings{
		7: {CommunityID: 7, ReminderDays: 14},
	}}
	notifier := &fakeNotifier{}

	w := newTestWorker(storage, settings, notifier)

	if err := w.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(notifier.remindedTo) != 1 {
		t.Errorf("reminded = %v, want one reminder with 14-day window", notifier.remindedTo)
	}
}

func TestRunSkipsQuietHours(t *testing.T) {
	storage := &fakeStorage{subscribers: []*members.Subscriber{
		{ID: 1, CommunityID: 7, TelegramUserID: 100, SubscriptionEnd: endIn(1)},
	}}
	settings := &fakeSettings{byCommunity: map[int64]*botsettings.Settings{
		7: {CommunityID: 7, ReminderDays: 3, QuietHoursStart: 17, QuietHoursEnd: 22},
	}}
	notifier := &fakeNotifier{}

	w := newTestWorker(storage, settings, notifier)

	if err := w.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(notifier.remindedTo) != 0 {
		t.Errorf("reminded = %v, want none during quiet hours", notifier.remindedTo)
	}
}

func TestRunSkipsOpenEndedSubscriptions(t *testing.T) {
	storage := &fakeStorage{subscribers: []*members.Subscriber{
		{ID: 1, CommunityID: 7, TelegramUserID: 100, SubscriptionEnd: nil},
	}}
	notifier := &fakeNotifier{}

	w := newTestWorker(storage, &fakeSettings{}, notifier)

	if err := w.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(notifier.remindedTo) != 0 {
		t.Errorf("reminded = %v, want none for open-ended subscription", notifier.remindedTo)
	}
}
