package plans

import "time"

// Plan is a purchasable subscription tier scoped to a community. Price is
// stored in minor currency units. IntervalDays == 0 means unlimited /
// one-time access with no expiry.
type Plan struct {
	ID           int64
	CommunityID  int64
	Name         string
	Price        int64
	Currency     string
	IntervalDays int
	Features     []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Unlimited reports whether the plan never expires.
func (p *Plan) Unlimited() bool {
	return p.IntervalDays == 0
}

type GetCriteria struct {
	ID *int64
}

type ListCriteria struct {
	CommunityIDs []int64
	IsActive     *bool
	Limit        int
	Offset       int
}

type UpdateParams struct {
	Name         *string
	Price        *int64
	IntervalDays *int
	Features     []string
	IsActive     *bool
}
