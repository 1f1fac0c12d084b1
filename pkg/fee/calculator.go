// Package fee computes the platform's cut of a captured pledge.
package fee

import (
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Policy is the fee configuration of one funding type: a percentage of the
// amount plus a flat amount.
type Policy struct {
	Percent decimal.Decimal
	Flat    decimal.Decimal
}

// Policies maps funding types to their fee policy.
type Policies map[pledge.FundingType]Policy

// For returns the policy of fundingType; unknown types carry no fee.
func (p Policies) For(fundingType pledge.FundingType) Policy {
	if policy, ok := p[fundingType]; ok {
		return policy
	}
	return Policy{}
}

// Calculate returns the platform fee for amount under policy. The flat part
// is only charged when the amount exceeds it, and the fee never exceeds the
// amount. It depends on nothing but its arguments.
func Calculate(fundingType pledge.FundingType, policy Policy, amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	switch fundingType {
	case pledge.FundingFixed, pledge.FundingFlexible:
	default:
		return decimal.Zero
	}

	result := decimal.Zero
	if policy.Percent.IsPositive() {
		result = result.Add(amount.Mul(policy.Percent).Div(hundred))
	}
	if policy.Flat.IsPositive() && amount.GreaterThan(policy.Flat) {
		result = result.Add(policy.Flat)
	}
	if result.GreaterThan(amount) {
		return amount
	}
	return result
}
