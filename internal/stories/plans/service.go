package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// ErrInvalidPlan marks plan writes rejected by validation, so callers can
// report them as client errors.
var ErrInvalidPlan = errors.New("invalid plan")

// Service provides business logic for plan operations.
type Service struct {
	storage Storage
}

func NewService(storage Storage) *Service {
	return &Service{
		storage: storage,
	}
}

func (s *Service) CreatePlan(ctx context.Context, plan Plan) (*Plan, error) {
	if plan.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidPlan)
	}
	if plan.IntervalDays < 0 {
		return nil, fmt.Errorf("%w: interval days must not be negative", ErrInvalidPlan)
	}
	if plan.Currency == "" {
		plan.Currency = "usd"
	}
	plan.IsActive = true
	return s.storage.CreatePlan(ctx, plan)
}

func (s *Service) GetPlan(ctx context.Context, planID int64) (*Plan, error) {
	return s.storage.GetPlan(ctx, GetCriteria{ID: &planID})
}

func (s *Service) GetActivePlans(ctx context.Context, communityID int64) ([]*Plan, error) {
	return s.storage.ListPlans(ctx, ListCriteria{
		CommunityIDs: []int64{communityID},
		IsActive:     lo.ToPtr(true),
		Limit:        100,
	})
}

// UpdatePlan edits a plan. Price and interval become immutable once the plan
// is referenced by a payment; archive the plan and create a new tier instead.
func (s *Service) UpdatePlan(ctx context.Context, planID int64, params UpdateParams) (*Plan, error) {
	if params.Price != nil || params.IntervalDays != nil {
		referenced, err := s.storage.CountPaymentsForPlan(ctx, planID)
		if err != nil {
			return nil, fmt.Errorf("count payments for plan: %w", err)
		}
		if referenced > 0 {
			return nil, fmt.Errorf("%w: plan %d is referenced by %d payments, price and interval are immutable", ErrInvalidPlan, planID, referenced)
		}
	}

	return s.storage.UpdatePlan(ctx, GetCriteria{ID: &planID}, params)
}

func (s *Service) ArchivePlan(ctx context.Context, planID int64) (*Plan, error) {
	return s.storage.UpdatePlan(ctx, GetCriteria{ID: &planID}, UpdateParams{
		IsActive: lo.ToPtr(false),
	})
}
