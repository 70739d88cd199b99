package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"membify/internal/outbox"
	"membify/internal/stories/members"
)

const transitionsTable = "sub_transitions"

var transitionRowFields = fields(transitionRow{})

type transitionRow struct {
	ID                int64      `db:"id"`
	SubscriberID      int64      `db:"subscriber_id"`
	PaymentID         *int64     `db:"payment_id"`
	Kind              string     `db:"kind"`
	NewStatus         string     `db:"new_status"`
	SubscriptionStart *time.Time `db:"subscription_start"`
	SubscriptionEnd   *time.Time `db:"subscription_end"`
	PlanID            *int64     `db:"plan_id"`
	Notify            bool       `db:"notify"`
	Status            string     `db:"status"`
	Attempts          int        `db:"attempts"`
	LastError         string     `db:"last_error"`
	AppliedAt         *time.Time `db:"applied_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func (r transitionRow) ToModel() *outbox.Transition {
	return &outbox.Transition{
		ID:                r.ID,
		SubscriberID:      r.SubscriberID,
		PaymentID:         r.PaymentID,
		Kind:              outbox.Kind(r.Kind),
		NewStatus:         members.SubStatus(r.NewStatus),
		SubscriptionStart: r.SubscriptionStart,
		SubscriptionEnd:   r.SubscriptionEnd,
		PlanID:            r.PlanID,
		Notify:            r.Notify,
		Status:            outbox.Status(r.Status),
		Attempts:          r.Attempts,
		LastError:         r.LastError,
		AppliedAt:         r.AppliedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func (s *storageImpl) CreateTransition(ctx context.Context, transition outbox.Transition) (*outbox.Transition, error) {
	now := s.now()

	status := transition.Status
	if status == "" {
		status = outbox.StatusPending
	}

	params := map[string]interface{}{
		"subscriber_id":      transition.SubscriberID,
		"payment_id":         transition.PaymentID,
		"kind":               string(transition.Kind),
		"new_status":         string(transition.NewStatus),
		"subscription_start": transition.SubscriptionStart,
		"subscription_end":   transition.SubscriptionEnd,
		"plan_id":            transition.PlanID,
		"notify":             transition.Notify,
		"status":             string(status),
		"attempts":           transition.Attempts,
		"last_error":         transition.LastError,
		"created_at":         now,
		"updated_at":         now,
	}

	q, args, err := s.stmpBuilder().
		Insert(transitionsTable).
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

	return s.getTransition(ctx, id)
}

func (s *storageImpl) getTransition(ctx context.Context, id int64) (*outbox.Transition, error) {
	q, args, err := s.stmpBuilder().
		Select(transitionRowFields).
		From(transitionsTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row transitionRow
	err = s.db.GetContext(ctx, &row, q, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return row.ToModel(), nil
}

func (s *storageImpl) ListTransitions(ctx context.Context, criteria outbox.ListCriteria) ([]*outbox.Transition, error) {
	query := s.stmpBuilder().
		Select(transitionRowFields).
		From(transitionsTable)

	if len(criteria.Status) > 0 {
		statuses := make([]string, 0, len(criteria.Status))
		for _, st := range criteria.Status {
			statuses = append(statuses, string(st))
		}
		query = query.Where(sq.Eq{"status": statuses})
	}
	if criteria.CreatedBefore != nil {
		query = query.Where(sq.Lt{"created_at": *criteria.CreatedBefore})
	}

	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}

	query = query.OrderBy("created_at ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []transitionRow
	err = s.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	var result []*outbox.Transition
	for _, row := range rows {
		result = append(result, row.ToModel())
	}

	return result, nil
}

// ApplyTransition moves the subscriber to the transition's target state and
// marks the transition applied in one transaction, so a crash between the
// two writes never leaves them disagreeing.
func (s *storageImpl) ApplyTransition(ctx context.Context, transitionID, subscriberID int64, params members.UpdateParams) error {
	now := s.now()

	subQ, subArgs, err := s.subscriberUpdateQuery(members.GetCriteria{ID: &subscriberID}, params).ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	markQ, markArgs, err := s.stmpBuilder().
		Update(transitionsTable).
		Set("status", string(outbox.StatusApplied)).
		Set("applied_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": transitionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	return s.txm(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, subQ, subArgs...); err != nil {
			return fmt.Errorf("update subscriber: %w", err)
		}
		if _, err := tx.ExecContext(ctx, markQ, markArgs...); err != nil {
			return fmt.Errorf("mark transition applied: %w", err)
		}
		return nil
	})
}

func (s *storageImpl) MarkTransitionFailed(ctx context.Context, transitionID int64, lastError string) error {
	q, args, err := s.stmpBuilder().
		Update(transitionsTable).
		Set("status", string(outbox.StatusFailed)).
		Set("last_error", lastError).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": transitionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}

	return nil
}

func (s *storageImpl) IncrementTransitionAttempts(ctx context.Context, transitionID int64) error {
	q, args, err := s.stmpBuilder().
		Update(transitionsTable).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": transitionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}

	return nil
}
