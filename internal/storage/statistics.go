package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"membify/internal/stories/members"
	"membify/internal/stories/payment"
	"membify/internal/stories/stats"
)

func (s *storageImpl) CountActiveSubscribers(ctx context.Context, communityID int64) (int, error) {
	return s.countSubscribers(ctx, sq.Eq{
		"community_id": communityID,
		"sub_status":   string(members.SubStatusActive),
	})
}

func (s *storageImpl) CountMembers(ctx context.Context, communityID int64) (int, error) {
	return s.countSubscribers(ctx, sq.Eq{
		"community_id": communityID,
		"is_active":    true,
	})
}

func (s *storageImpl) countSubscribers(ctx context.Context, where sq.Eq) (int, error) {
	q, args, err := s.stmpBuilder().
		Select("COUNT(*)").
		From(subscribersTable).
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sql query: %w", err)
	}

	var count int
	err = s.db.GetContext(ctx, &count, q, args...)
	if err != nil {
		return 0, fmt.Errorf("db.GetContext: %w", err)
	}

	return count, nil
}

func (s *storageImpl) CountCompletedPayments(ctx context.Context, communityID int64) (int, error) {
	q, args, err := s.stmpBuilder().
		Select("COUNT(*)").
		From(paymentsTable).
		Where(sq.Eq{
			"community_id": communityID,
			"status":       string(payment.StatusCompleted),
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sql query: %w", err)
	}

	var count int
	err = s.db.GetContext(ctx, &count, q, args...)
	if err != nil {
		return 0, fmt.Errorf("db.GetContext: %w", err)
	}

	return count, nil
}

func (s *storageImpl) SumCompletedPayments(ctx context.Context, communityID int64) (int64, error) {
	q, args, err := s.stmpBuilder().
		Select("COALESCE(SUM(amount), 0)").
		From(paymentsTable).
		Where(sq.Eq{
			"community_id": communityID,
			"status":       string(payment.StatusCompleted),
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sql query: %w", err)
	}

	var total int64
	err = s.db.GetContext(ctx, &total, q, args...)
	if err != nil {
		return 0, fmt.Errorf("db.GetContext: %w", err)
	}

	return total, nil
}

func (s *storageImpl) ListCompletedPayments(ctx context.Context, communityID int64, since time.Time) ([]stats.CompletedPayment, error) {
	q, args, err := s.stmpBuilder().
		Select("amount", "processed_at").
		From(paymentsTable).
		Where(sq.Eq{
			"community_id": communityID,
			"status":       string(payment.StatusCompleted),
		}).
		Where(sq.NotEq{"processed_at": nil}).
		Where(sq.GtOrEq{"processed_at": since}).
		OrderBy("processed_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []struct {
		Amount      int64     `db:"amount"`
		ProcessedAt time.Time `db:"processed_at"`
	}
	err = s.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make([]stats.CompletedPayment, 0, len(rows))
	for _, row := range rows {
		result = append(result, stats.CompletedPayment{
			Amount:      row.Amount,
			ProcessedAt: row.ProcessedAt,
		})
	}

	return result, nil
}

func (s *storageImpl) ListSubscriberJoins(ctx context.Context, communityID int64, since time.Time) ([]stats.SubscriberJoin, error) {
	q, args, err := s.stmpBuilder().
		Select("joined_at").
		From(subscribersTable).
		Where(sq.Eq{"community_id": communityID}).
		Where(sq.GtOrEq{"joined_at": since}).
		OrderBy("joined_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []struct {
		JoinedAt time.Time `db:"joined_at"`
	}
	err = s.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make([]stats.SubscriberJoin, 0, len(rows))
	for _, row := range rows {
		result = append(result, stats.SubscriberJoin{JoinedAt: row.JoinedAt})
	}

	return result, nil
}
