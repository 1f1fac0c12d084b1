package pledge

import (
	"github.com/shopspring/decimal"
)

// FundingType selects the fee policy applied to a project.
type FundingType string

const (
	FundingFixed    FundingType = "FIXED"
	FundingFlexible FundingType = "FLEXIBLE"
)

// Project is the read model of a crowdfunding project. Funded is the
// aggregate the engine increments.
type Project struct {
	ID          int64
	OwnerID     int64
	Title       string
	Slug        string
	CatSlug     string
	FundingType FundingType
	Goal        decimal.Decimal
	Funded      decimal.Decimal
	Published   bool
	Approved    bool
}

// IsValid reports whether the project can accept pledges.
func (p *Project) IsValid() bool {
	return p != nil && p.ID > 0 && p.Published
}

// Reward is the read model of a project reward.
type Reward struct {
	ID          int64
	ProjectID   int64
	Title       string
	Amount      decimal.Decimal
	Number      int
	Distributed int
	Published   bool
}

// IsValid reports whether the reward can be selected.
func (r *Reward) IsValid() bool {
	return r != nil && r.ID > 0 && r.Published
}

// IsLimited reports whether only a fixed number of rewards exists.
func (r *Reward) IsLimited() bool {
	return r.Number > 0
}

// Available returns the remaining limited rewards.
func (r *Reward) Available() int {
	if !r.IsLimited() {
		return 0
	}
	if n := r.Number - r.Distributed; n > 0 {
		return n
	}
	return 0
}
