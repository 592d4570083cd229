// Package accrual computes simple interest on an actual/365 basis and the
// values derived from it. Nothing here rounds: callers round with
// money.Round when they persist or display a figure.
package accrual

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/money"
)

// DaysInYear is the fixed actual/365 denominator
const DaysInYear = 365

var (
	daysInYear   = decimal.NewFromInt(DaysInYear)
	monthsInYear = decimal.NewFromInt(12)
)

// DaysElapsed counts whole days from start to asOf. asOf is capped at end when
// the contract has a fixed end date, and the result is never negative.
func DaysElapsed(start, asOf time.Time, end *time.Time) int {
	if end != nil && !end.IsZero() {
		asOf = datemath.Min(asOf, *end)
	}
	days := datemath.DaysBetween(start, asOf)
	if days < 0 {
		return 0
	}
	return days
}

// Gross is the interest accrued from start to asOf before any settlement:
// principalBase × rate/100 × days/365
func Gross(principalBase, annualRatePercent decimal.Decimal, start, asOf time.Time, end *time.Time) decimal.Decimal {
	days := DaysElapsed(start, asOf, end)
	if days == 0 {
		return decimal.Zero
	}
	return principalBase.
		Mul(money.Rate(annualRatePercent)).
		Mul(decimal.NewFromInt(int64(days))).
		Div(daysInYear)
}

// AccruedInterest is Gross minus the interest already settled. A negative
// result means more interest was settled than has accrued; it is reported
// as-is for review, never clamped.
func AccruedInterest(principalBase, annualRatePercent decimal.Decimal, start, asOf time.Time, end *time.Time, alreadySettled decimal.Decimal) decimal.Decimal {
	return Gross(principalBase, annualRatePercent, start, asOf, end).Sub(alreadySettled)
}

// CurrentValue is the outstanding principal plus net accrued interest
func CurrentValue(principal, accruedNet decimal.Decimal) decimal.Decimal {
	return principal.Add(accruedNet)
}

// MaturityValue is the expected total at full term, independent of elapsed time:
// P + P × rate/100 × tenureMonths/12
func MaturityValue(originalPrincipal, annualRatePercent decimal.Decimal, tenureMonths int) decimal.Decimal {
	interest := originalPrincipal.
		Mul(money.Rate(annualRatePercent)).
		Mul(decimal.NewFromInt(int64(tenureMonths))).
		Div(monthsInYear)
	return originalPrincipal.Add(interest)
}
