// Package money converts decimal pledge amounts to the integer minor units
// sent to the payment processor.
//
// Invariants:
//   - Conversions round half away from zero; they never truncate.
//   - Currency code must be valid ISO 4217 (3 uppercase letters).
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCurrency is returned for malformed currency codes.
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountExceedsMaxSafeInt is returned when minor units overflow int64.
	ErrAmountExceedsMaxSafeInt = errors.New("amount exceeds maximum safe integer value")
)

// Factor returns 10^decimals for the currency, e.g. 100 for USD.
func Factor(code Code) decimal.Decimal {
	return decimal.New(1, code.Decimals())
}

// ToMinorUnits converts amount to integer minor units of code, rounding to
// the nearest unit: 19.999 USD becomes 2000.
func ToMinorUnits(amount decimal.Decimal, code Code) (int64, error) {
	if !code.IsValid() {
		return 0, ErrInvalidCurrency
	}
	if amount.IsNegative() {
		return 0, ErrInvalidAmount
	}
	minor := amount.Mul(Factor(code)).Round(0)
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrAmountExceedsMaxSafeInt
	}
	return minor.IntPart(), nil
}

// FromMinorUnits converts minor units back to a decimal amount.
func FromMinorUnits(minor int64, code Code) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(Factor(code))
}
