package stats

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Service computes the dashboard read models. Counts and sums come from the
// database; chart series are bucketed in memory.
type Service struct {
	storage Storage
	now     func() time.Time
}

func NewService(storage Storage) *Service {
	return &Service{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Summary aggregates the headline figures. A community with zero completed
// payments reports totalRevenue 0 and status "inactive".
func (s *Service) Summary(ctx context.Context, communityID int64) (*Summary, error) {
	memberCount, err := s.storage.CountMembers(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	activeSubs, err := s.storage.CountActiveSubscribers(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("count active subscribers: %w", err)
	}

	completed, err := s.storage.CountCompletedPayments(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("count completed payments: %w", err)
	}

	revenue, err := s.storage.SumCompletedPayments(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("sum completed payments: %w", err)
	}

	status := "inactive"
	if completed > 0 {
		status = "active"
	}

	return &Summary{
		CommunityID:           communityID,
		MemberCount:           memberCount,
		ActiveSubscriberCount: activeSubs,
		CompletedPaymentCount: completed,
		TotalRevenue:          revenue,
		Status:                status,
	}, nil
}

// MonthlyRevenue returns a month-bucketed revenue series covering the last
// `months` months, oldest first, with empty months filled in.
func (s *Service) MonthlyRevenue(ctx context.Context, communityID int64, months int) ([]MonthPoint, error) {
	since := monthStart(s.now()).AddDate(0, -(months - 1), 0)

	payments, err := s.storage.ListCompletedPayments(ctx, communityID, since)
	if err != nil {
		return nil, fmt.Errorf("list completed payments: %w", err)
	}

	buckets := make(map[string]*MonthPoint)
	for _, p := range payments {
		key, year, month := monthKey(p.ProcessedAt)
		point, ok := buckets[key]
		if !ok {
			point = &MonthPoint{Year: year, Month: month}
			buckets[key] = point
		}
		point.Revenue += p.Amount
		point.Count++
	}

	return fillSeries(buckets, since, s.now()), nil
}

// GrowthCurve returns monthly subscriber-join counts over the last
// `months` months.
func (s *Service) GrowthCurve(ctx context.Context, communityID int64, months int) ([]MonthPoint, error) {
	since := monthStart(s.now()).AddDate(0, -(months - 1), 0)

	joins, err := s.storage.ListSubscriberJoins(ctx, communityID, since)
	if err != nil {
		return nil, fmt.Errorf("list subscriber joins: %w", err)
	}

	buckets := make(map[string]*MonthPoint)
	for _, j := range joins {
		key, year, month := monthKey(j.JoinedAt)
		point, ok := buckets[key]
		if !ok {
			point = &MonthPoint{Year: year, Month: month}
			buckets[key] = point
		}
		point.Count++
	}

	return fillSeries(buckets, since, s.now()), nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthKey(t time.Time) (string, int, int) {
	return t.Format("2006-01"), t.Year(), int(t.Month())
}

func fillSeries(buckets map[string]*MonthPoint, since, until time.Time) []MonthPoint {
	var series []MonthPoint
	for cursor := monthStart(since); !cursor.After(until); cursor = cursor.AddDate(0, 1, 0) {
		key, year, month := monthKey(cursor)
		if point, ok := buckets[key]; ok {
			series = append(series, *point)
		} else {
			series = append(series, MonthPoint{Year: year, Month: month})
		}
	}

	sort.Slice(series, func(i, j int) bool {
		if series[i].Year != series[j].Year {
			return series[i].Year < series[j].Year
		}
		return series[i].Month < series[j].Month
	})

	return series
}
