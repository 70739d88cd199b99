package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"membify/internal/stories/plans"
)

const plansTable = "plans"

var planRowFields = fields(planRow{})

type planRow struct {
	ID           int64     `db:"id"`
	CommunityID  int64     `db:"community_id"`
	Name         string    `db:"name"`
	Price        int64     `db:"price"`
	Currency     string    `db:"currency"`
	IntervalDays int       `db:"interval_days"`
	Features     string    `db:"features"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r planRow) ToModel() (*plans.Plan, error) {
	var features []string
	if r.Features != "" {
		if err := json.Unmarshal([]byte(r.Features), &features); err != nil {
			return nil, fmt.Errorf("unmarshal plan features: %w", err)
		}
	}

	return &plans.Plan{
		ID:           r.ID,
		CommunityID:  r.CommunityID,
		Name:         r.Name,
		Price:        r.Price,
		Currency:     r.Currency,
		IntervalDays: r.IntervalDays,
		Features:     features,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func marshalFeatures(features []string) (string, error) {
	if features == nil {
		features = []string{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("marshal plan features: %w", err)
	}
	return string(raw), nil
}

func (s *storageImpl) CreatePlan(ctx context.Context, plan plans.Plan) (*plans.Plan, error) {
	now := s.now()

	featuresJSON, err := marshalFeatures(plan.Features)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"community_id":  plan.CommunityID,
		"name":          plan.Name,
		"price":         plan.Price,
		"currency":      plan.Currency,
		"interval_days": plan.IntervalDays,
		"features":      featuresJSON,
		"is_active":     plan.IsActive,
		"created_at":    now,
		"updated_at":    now,
	}

	q, args, err := s.stmpBuilder().
		Insert(plansTable).
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

	return s.GetPlan(ctx, plans.GetCriteria{ID: &id})
}

func (s *storageImpl) GetPlan(ctx context.Context, criteria plans.GetCriteria) (*plans.Plan, error) {
	query := s.stmpBuilder().
		Select(planRowFields).
		From(plansTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row planRow
	err = s.db.GetContext(ctx, &row, q, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return row.ToModel()
}

func (s *storageImpl) UpdatePlan(ctx context.Context, criteria plans.GetCriteria, params plans.UpdateParams) (*plans.Plan, error) {
	query := s.stmpBuilder().
		Update(plansTable).
		Set("updated_at", s.now())

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}

	if params.Name != nil {
		query = query.Set("name", *params.Name)
	}
	if params.Price != nil {
		query = query.Set("price", *params.Price)
	}
	if params.IntervalDays != nil {
		query = query.Set("interval_days", *params.IntervalDays)
	}
	if params.Features != nil {
		featuresJSON, err := marshalFeatures(params.Features)
		if err != nil {
			return nil, err
		}
		query = query.Set("features", featuresJSON)
	}
	if params.IsActive != nil {
		query = query.Set("is_active", *params.IsActive)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetPlan(ctx, criteria)
}

func (s *storageImpl) ListPlans(ctx context.Context, criteria plans.ListCriteria) ([]*plans.Plan, error) {
	query := s.stmpBuilder().
		Select(planRowFields).
		From(plansTable)

	if len(criteria.CommunityIDs) > 0 {
		query = query.Where(sq.Eq{"community_id": criteria.CommunityIDs})
	}
	if criteria.IsActive != nil {
		query = query.Where(sq.Eq{"is_active": *criteria.IsActive})
	}

	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		query = query.Offset(uint64(criteria.Offset))
	}

	query = query.OrderBy("price ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []planRow
	err = s.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	var result []*plans.Plan
	for _, row := range rows {
		plan, err := row.ToModel()
		if err != nil {
			return nil, err
		}
		result = append(result, plan)
	}

	return result, nil
}

func (s *storageImpl) CountPaymentsForPlan(ctx context.Context, planID int64) (int, error) {
	query := s.stmpBuilder().
		Select("COUNT(*)").
		From(paymentsTable).
		Where(sq.Eq{"plan_id": planID})

	q, args, err := query.ToSql()
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
