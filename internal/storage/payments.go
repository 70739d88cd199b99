package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"membify/internal/stories/payment"
)

const paymentsTable = "payments"

var paymentRowFields = fields(paymentRow{})

type paymentRow struct {
	ID                int64      `db:"id"`
	CommunityID       int64      `db:"community_id"`
	SubscriberID      int64      `db:"subscriber_id"`
	PlanID            int64      `db:"plan_id"`
	Provider          string     `db:"provider"`
	ProviderPaymentID *string    `db:"provider_payment_id"`
	Amount            int64      `db:"amount"`
	Currency          string     `db:"currency"`
	Status            string     `db:"status"`
	PaymentURL        *string    `db:"payment_url"`
	ProcessedAt       *time.Time `db:"processed_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func (r paymentRow) ToModel() *payment.Payment {
	return &payment.Payment{
		ID:                r.ID,
		CommunityID:       r.CommunityID,
		SubscriberID:      r.SubscriberID,
		PlanID:            r.PlanID,
		Provider:          payment.Provider(r.Provider),
		ProviderPaymentID: r.ProviderPaymentID,
		Amount:            r.Amount,
		Currency:          r.Currency,
		Status:            payment.Status(r.Status),
		PaymentURL:        r.PaymentURL,
		ProcessedAt:       r.ProcessedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func (s *storageImpl) CreatePayment(ctx context.Context, p payment.Payment) (*payment.Payment, error) {
	now := s.now()

	status := p.Status
	if status == "" {
		status = payment.StatusPending
	}

	params := map[string]interface{}{
		"community_id":        p.CommunityID,
		"subscriber_id":       p.SubscriberID,
		"plan_id":             p.PlanID,
		"provider":            string(p.Provider),
		"provider_payment_id": p.ProviderPaymentID,
		"amount":              p.Amount,
		"currency":            p.Currency,
		"status":              string(status),
		"payment_url":         p.PaymentURL,
		"processed_at":        p.ProcessedAt,
		"created_at":          now,
		"updated_at":          now,
	}

	q, args, err := s.stmpBuilder().
		Insert(paymentsTable).
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

	return s.GetPayment(ctx, payment.GetCriteria{ID: &id})
}

func (s *storageImpl) GetPayment(ctx context.Context, criteria payment.GetCriteria) (*payment.Payment, error) {
	query := s.stmpBuilder().
		Select(paymentRowFields).
		From(paymentsTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.Provider != nil {
		query = query.Where(sq.Eq{"provider": string(*criteria.Provider)})
	}
	if criteria.ProviderPaymentID != nil {
		query = query.Where(sq.Eq{"provider_payment_id": *criteria.ProviderPaymentID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row paymentRow
	err = s.db.GetContext(ctx, &row, q, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return row.ToModel(), nil
}

func (s *storageImpl) UpdatePayment(ctx context.Context, criteria payment.GetCriteria, params payment.UpdateParams) (*payment.Payment, error) {
	query := s.stmpBuilder().
		Update(paymentsTable).
		Set("updated_at", s.now())

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.Provider != nil {
		query = query.Where(sq.Eq{"provider": string(*criteria.Provider)})
	}
	if criteria.ProviderPaymentID != nil {
		query = query.Where(sq.Eq{"provider_payment_id": *criteria.ProviderPaymentID})
	}

	if params.Status != nil {
		query = query.Set("status", string(*params.Status))
	}
	if params.ProviderPaymentID != nil {
		query = query.Set("provider_payment_id", *params.ProviderPaymentID)
	}
	if params.PaymentURL != nil {
		query = query.Set("payment_url", *params.PaymentURL)
	}
	if params.ProcessedAt != nil {
		query = query.Set("processed_at", *params.ProcessedAt)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetPayment(ctx, criteria)
}

func (s *storageImpl) ListPayments(ctx context.Context, criteria payment.ListCriteria) ([]*payment.Payment, error) {
	query := s.stmpBuilder().
		Select(paymentRowFields).
		From(paymentsTable)

	if len(criteria.CommunityIDs) > 0 {
		query = query.Where(sq.Eq{"community_id": criteria.CommunityIDs})
	}
	if len(criteria.SubscriberIDs) > 0 {
		query = query.Where(sq.Eq{"subscriber_id": criteria.SubscriberIDs})
	}
	if len(criteria.Status) > 0 {
		statuses := make([]string, 0, len(criteria.Status))
		for _, st := range criteria.Status {
			statuses = append(statuses, string(st))
		}
		query = query.Where(sq.Eq{"status": statuses})
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

	var rows []paymentRow
	err = s.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	var result []*payment.Payment
	for _, row := range rows {
		result = append(result, row.ToModel())
	}

	return result, nil
}
