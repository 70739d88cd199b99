package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"membify/internal/stories/members"
)

const subscribersTable = "subscribers"

var subscriberRowFields = fields(subscriberRow{})

type subscriberRow struct {
	ID                int64      `db:"id"`
	CommunityID       int64      `db:"community_id"`
	TelegramUserID    int64      `db:"telegram_user_id"`
	Username          string     `db:"username"`
	JoinedAt          time.Time  `db:"joined_at"`
	IsActive          bool       `db:"is_active"`
	SubStatus         string     `db:"sub_status"`
	SubscriptionStart *time.Time `db:"subscription_start"`
	SubscriptionEnd   *time.Time `db:"subscription_end"`
	PlanID            *int64     `db:"plan_id"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func (r subscriberRow) ToModel() *members.Subscriber {
	return &members.Subscriber{
		ID:                r.ID,
		CommunityID:       r.CommunityID,
		TelegramUserID:    r.TelegramUserID,
		Username:          r.Username,
		JoinedAt:          r.JoinedAt,
		IsActive:          r.IsActive,
		SubStatus:         members.SubStatus(r.SubStatus),
		SubscriptionStart: r.SubscriptionStart,
		SubscriptionEnd:   r.SubscriptionEnd,
		PlanID:            r.PlanID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func (s *storageImpl) CreateSubscriber(ctx context.Context, subscriber members.Subscriber) (*members.Subscriber, error) {
	now := s.now()

	if subscriber.SubStatus == "" {
		subscriber.SubStatus = members.SubStatusNone
	}

	params := map[string]interface{}{
		"community_id":       subscriber.CommunityID,
		"telegram_user_id":   subscriber.TelegramUserID,
		"username":           subscriber.Username,
		"joined_at":          subscriber.JoinedAt,
		"is_active":          subscriber.IsActive,
		"sub_status":         string(subscriber.SubStatus),
		"subscription_start": subscriber.SubscriptionStart,
		"subscription_end":   subscriber.SubscriptionEnd,
		"plan_id":            subscriber.PlanID,
		"created_at":         now,
		"updated_at":         now,
	}

	q, args, err := s.stmpBuilder().
		Insert(subscribersTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId: %w", err)
	}

	return s.GetSubscriber(ctx, members.GetCriteria{ID: &id})
}

func (s *storageImpl) GetSubscriber(ctx context.Context, criteria members.GetCriteria) (*members.Subscriber, error) {
	query := s.stmpBuilder().
		Select(subscriberRowFields).
		From(subscribersTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.CommunityID != nil {
		query = query.Where(sq.Eq{"community_id": *criteria.CommunityID})
	}
	if criteria.TelegramUserID != nil {
		query = query.Where(sq.Eq{"telegram_user_id": *criteria.TelegramUserID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row subscriberRow
	err = s.db.GetContext(ctx, &row, q, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return row.ToModel(), nil
}

func (s *storageImpl) subscriberUpdateQuery(criteria members.GetCriteria, params members.UpdateParams) sq.UpdateBuilder {
	query := s.stmpBuilder().
		Update(subscribersTable).
		Set("updated_at", s.now())

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.CommunityID != nil {
		query = query.Where(sq.Eq{"community_id": *criteria.CommunityID})
	}
	if criteria.TelegramUserID != nil {
		query = query.Where(sq.Eq{"telegram_user_id": *criteria.TelegramUserID})
	}

	if params.Username != nil {
		query = query.Set("username", *params.Username)
	}
	if params.IsActive != nil {
		query = query.Set("is_active", *params.IsActive)
	}
	if params.SubStatus != nil {
		query = query.Set("sub_status", string(*params.SubStatus))
	}
	if params.ClearSubscription {
		query = query.Set("subscription_start", nil).
			Set("subscription_end", nil).
			Set("plan_id", nil)
	}
	if params.SubscriptionStart != nil {
		query = query.Set("subscription_start", *params.SubscriptionStart)
	}
	if params.SubscriptionEnd != nil {
		query = query.Set("subscription_end", *params.SubscriptionEnd)
	}
	if params.PlanID != nil {
		query = query.Set("plan_id", *params.PlanID)
	}

	return query
}

func (s *storageImpl) UpdateSubscriber(ctx context.Context, criteria members.GetCriteria, params members.UpdateParams) (*members.Subscriber, error) {
	q, args, err := s.subscriberUpdateQuery(criteria, params).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetSubscriber(ctx, criteria)
}

func (s *storageImpl) ListSubscribers(ctx context.Context, criteria members.ListCriteria) ([]*members.Subscriber, error) {
	query := s.stmpBuilder().
		Select(subscriberRowFields).
		From(subscribersTable)

	if len(criteria.CommunityIDs) > 0 {
		query = query.Where(sq.Eq{"community_id": criteria.CommunityIDs})
	}
	if criteria.IsActive != nil {
		query = query.Where(sq.Eq{"is_active": *criteria.IsActive})
	}
	if len(criteria.SubStatus) > 0 {
		statuses := make([]string, 0, len(criteria.SubStatus))
		for _, st := range criteria.SubStatus {
			statuses = append(statuses, string(st))
		}
		query = query.Where(sq.Eq{"sub_status": statuses})
	}
	if criteria.ExpiringBefore != nil {
		query = query.Where(sq.NotEq{"subscription_end": nil}).
			Where(sq.Lt{"subscription_end": *criteria.ExpiringBefore})
	}
	if criteria.ExpiringAfter != nil {
		query = query.Where(sq.GtOrEq{"subscription_end": *criteria.ExpiringAfter})
	}

	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		query = query.Offset(uint64(criteria.Offset))
	}

	query = query.OrderBy("created_at DESC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []subscriberRow
	err = s.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	var result []*members.Subscriber
	for _, row := range rows {
		result = append(result, row.ToModel())
	}

	return result, nil
}
