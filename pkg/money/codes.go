package money

import "strings"

// Code represents a currency code (e.g., "USD", "EUR").
type Code string

// Common currency codes
const (
	USD Code = "USD" // US Dollar
	EUR Code = "EUR" // Euro
	JPY Code = "JPY" // Japanese Yen
	KWD Code = "KWD" // Kuwaiti Dinar
	GBP Code = "GBP" // British Pound
)

// zeroDecimal lists the currencies the processor charges in whole units.
var zeroDecimal = map[Code]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {},
	"KRW": {}, "MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// ParseCode normalizes s to an upper-case currency code.
func ParseCode(s string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidCurrency
	}
	return c, nil
}

// IsValid checks if the currency code is valid
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	return c[0] >= 'A' && c[0] <= 'Z' &&
		c[1] >= 'A' && c[1] <= 'Z' &&
		c[2] >= 'A' && c[2] <= 'Z'
}

// Decimals returns the number of minor-unit digits the processor expects.
func (c Code) Decimals() int32 {
	if _, ok := zeroDecimal[c]; ok {
		return 0
	}
	return 2
}

// String returns the string representation of the currency code.
func (c Code) String() string {
	return string(c)
}
