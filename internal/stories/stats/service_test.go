package stats

import (
	"context"
	"testing"
	"time"
)

type fakeStatsStorage struct {
	members    int
	activeSubs int
	completed  int
	revenue    int64
	payments   []CompletedPayment
	joins      []SubscriberJoin
}

func (f *fakeStatsStorage) CountActiveSubscribers(context.Context, int64) (int, error) {
	return f.activeSubs, nil
}
func (f *fakeStatsStorage) CountMembers(context.Context, int64) (int, error) {
	return f.members, nil
}
func (f *fakeStatsStorage) CountCompletedPayments(context.Context, int64) (int, error) {
	return f.completed, nil
}
func (f *fakeStatsStorage) SumCompletedPayments(context.Context, int64) (int64, error) {
	return f.revenue, nil
}
func (f *fakeStatsStorage) ListCompletedPayments(_ context.Context, _ int64, since time.Time) ([]CompletedPayment, error) {
	var out []CompletedPayment
	for _, p := range f.payments {
		if !p.ProcessedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}
func (f *fakeStatsStorage) ListSubscriberJoins(_ context.Context, _ int64, since time.Time) ([]SubscriberJoin, error) {
	var out []SubscriberJoin
	for _, j := range f.joins {
		if !j.JoinedAt.Before(since) {
			out = append(out, j)
		}
	}
	return out, nil
}

func fixedNowService(storage Storage, now time.Time) *Service {
	svc := NewService(storage)
	svc.now = func() time.Time { return now }
	return svc
}

func TestSummaryWithoutPaymentsIsInactive(t *testing.T) {
	storage := &fakeStatsStorage{members: 12}
	svc := NewService(storage)

	summary, err := svc.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}

	if summary.TotalRevenue != 0 {
		t.Errorf("totalRevenue = %d, want 0", summary.TotalRevenue)
	}
	if summary.Status != "inactive" {
		t.Errorf("status = %q, want inactive", summary.Status)
	}
	if summary.MemberCount != 12 {
		t.Errorf("memberCount = %d, want 12", summary.MemberCount)
	}
}

func TestSummaryWithPaymentsIsActive(t *testing.T) {
	storage := &fakeStatsStorage{completed: 3, revenue: 3000, activeSubs: 3}
	svc := NewService(storage)

	summary, err := svc.Summary(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Status != "active" {
		t.Errorf("status = %q, want active", summary.Status)
	}
	if summary.TotalRevenue != 3000 {
		t.Errorf("totalRevenue = %d, want 3000", summary.TotalRevenue)
	}
}

func TestMonthlyRevenueBucketsByMonth(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	storage := &fakeStatsStorage{
		payments: []CompletedPayment{
			{Amount: 1000, ProcessedAt: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)},
			{Amount: 1000, ProcessedAt: time.Date(2026, time.January, 25, 0, 0, 0, 0, time.UTC)},
			{Amount: 2500, ProcessedAt: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	svc := fixedNowService(storage, now)

	series, err := svc.MonthlyRevenue(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("MonthlyRevenue returned error: %v", err)
	}

	if len(series) != 3 {
		t.Fatalf("series length = %d, want 3", len(series))
	}

	jan, feb, mar := series[0], series[1], series[2]
	if jan.Revenue != 2000 || jan.Count != 2 {
		t.Errorf("january = %+v, want revenue 2000 count 2", jan)
	}
	if feb.Revenue != 0 || feb.Count != 0 {
		t.Errorf("february = %+v, want empty bucket", feb)
	}
	if mar.Revenue != 2500 || mar.Count != 1 {
		t.Errorf("march = %+v, want revenue 2500 count 1", mar)
	}
}

func TestGrowthCurveCountsJoins(t *testing.T) {
	now := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
	storage := &fakeStatsStorage{
		joins: []SubscriberJoin{
			{JoinedAt: time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)},
			{JoinedAt: time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC)},
			{JoinedAt: time.Date(2026, time.February, 8, 0, 0, 0, 0, time.UTC)},
		},
	}
	svc := fixedNowService(storage, now)

	series, err := svc.GrowthCurve(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(series) != 2 {
		t.Fatalf("series length = %d, want 2", len(series))
	}
	if series[0].Count != 1 {
		t.Errorf("january joins = %d, want 1", series[0].Count)
	}
	if series[1].Count != 2 {
		t.Errorf("february joins = %d, want 2", series[1].Count)
	}
}
