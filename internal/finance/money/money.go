// Package money defines the single rounding rule of the ledger. Engine code
// works on unrounded decimals; Round is applied only where values are
// persisted or shown.
package money

import (
	"github.com/shopspring/decimal"
)

// Places is the number of decimal places of the smallest currency unit
const Places = 2

var hundred = decimal.NewFromInt(100)

// Round rounds half away from zero to the smallest currency unit
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Floor rounds toward negative infinity to the smallest currency unit
func Floor(d decimal.Decimal) decimal.Decimal {
	return d.RoundFloor(Places)
}

// Unit returns the smallest currency unit (0.01)
func Unit() decimal.Decimal {
	return decimal.New(1, -Places)
}

// Rate converts a percentage (12 for 12%) into a fraction (0.12)
func Rate(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(hundred)
}

// Sum adds up all values; the empty sum is zero
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
