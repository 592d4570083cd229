// Package schedule freezes contract due dates and splits a contract into
// equal installments. Installments use an even split of principal and of
// simple interest over the full tenure, not declining-balance amortization,
// so existing contracts keep their amounts.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/money"
)

// ErrScheduleUnavailable is returned instead of a schedule whenever the
// contract parameters cannot produce one. Callers must not persist a
// contract without a schedule.
var ErrScheduleUnavailable = errors.New("schedule unavailable")

// weeksPerMonth is the conversion used for fortnightly installment counts
var weeksPerMonth = decimal.RequireFromString("4.34")

// Installment is one derived due date with its principal/interest split
type Installment struct {
	Number    int             `json:"number"`
	DueDate   time.Time       `json:"due_date"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
}

// Total is the amount due on the installment
func (i Installment) Total() decimal.Decimal {
	return i.Principal.Add(i.Interest)
}

// Plan holds the dates frozen on a contract at creation or edit time
type Plan struct {
	MaturityDate       time.Time `json:"maturity_date"`
	FirstRepaymentDate time.Time `json:"first_repayment_date"`
}

// Summary totals a schedule
type Summary struct {
	Count          int             `json:"count"`
	TotalPrincipal decimal.Decimal `json:"total_principal"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// ComputeMaturity returns origination plus the tenure in calendar months
func ComputeMaturity(originationDate time.Time, tenureMonths int) (time.Time, error) {
	if originationDate.IsZero() {
		return time.Time{}, fmt.Errorf("%w: origination date is required", ErrScheduleUnavailable)
	}
	if tenureMonths <= 0 {
		return time.Time{}, fmt.Errorf("%w: tenure must be a positive number of months", ErrScheduleUnavailable)
	}
	return datemath.AddMonths(originationDate, tenureMonths), nil
}

// ComputeFirstRepaymentDate returns origination plus one cycle period, never
// later than maturity. Bullet contracts repay once, at maturity.
func ComputeFirstRepaymentDate(originationDate time.Time, cycle Cycle, maturityDate time.Time) (time.Time, error) {
	if originationDate.IsZero() {
		return time.Time{}, fmt.Errorf("%w: origination date is required", ErrScheduleUnavailable)
	}
	if !cycle.Valid() {
		return time.Time{}, fmt.Errorf("%w: unrecognized cycle %q", ErrScheduleUnavailable, cycle)
	}
	if maturityDate.IsZero() {
		return time.Time{}, fmt.Errorf("%w: maturity date is required", ErrScheduleUnavailable)
	}

	maturity := datemath.Date(maturityDate)
	if cycle == CycleBullet {
		return maturity, nil
	}
	return datemath.Min(cycle.advance(originationDate, 1), maturity), nil
}

// NewPlan computes both frozen dates, or neither
func NewPlan(originationDate time.Time, tenureMonths int, cycle Cycle) (Plan, error) {
	maturity, err := ComputeMaturity(originationDate, tenureMonths)
	if err != nil {
		return Plan{}, err
	}
	first, err := ComputeFirstRepaymentDate(originationDate, cycle, maturity)
	if err != nil {
		return Plan{}, err
	}
	return Plan{MaturityDate: maturity, FirstRepaymentDate: first}, nil
}

// InstallmentCount returns how many installments a tenure yields for a cycle,
// at least one.
func InstallmentCount(cycle Cycle, tenureMonths int) int {
	var count int
	switch cycle {
	case CycleBullet:
		return 1
	case CycleFortnightly:
		count = int(decimal.NewFromInt(int64(tenureMonths)).
			Mul(weeksPerMonth).
			Div(decimal.NewFromInt(2)).
			Floor().
			IntPart())
	default:
		count = tenureMonths / monthsPerPeriod[cycle]
	}
	if count < 1 {
		count = 1
	}
	return count
}

// TotalInterest is simple interest over the full tenure:
// principal × annualRate/100/12 × tenureMonths
func TotalInterest(principal, annualRate decimal.Decimal, tenureMonths int) decimal.Decimal {
	return principal.
		Mul(annualRate).
		Mul(decimal.NewFromInt(int64(tenureMonths))).
		Div(decimal.NewFromInt(1200))
}

// GenerateSchedule splits a contract into equal installments. Every share is
// floored to the currency unit except the last installment, which absorbs the
// non-negative remainder so that the installments add up exactly.
func GenerateSchedule(principal, annualRate decimal.Decimal, tenureMonths int, cycle Cycle, startDate time.Time) ([]Installment, error) {
	if !principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive", ErrScheduleUnavailable)
	}
	if annualRate.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate cannot be negative", ErrScheduleUnavailable)
	}

	plan, err := NewPlan(startDate, tenureMonths, cycle)
	if err != nil {
		return nil, err
	}

	count := InstallmentCount(cycle, tenureMonths)
	n := decimal.NewFromInt(int64(count))

	totalPrincipal := money.Round(principal)
	totalInterest := money.Round(TotalInterest(principal, annualRate, tenureMonths))
	principalShare := money.Floor(totalPrincipal.Div(n))
	interestShare := money.Floor(totalInterest.Div(n))

	installments := make([]Installment, 0, count)
	allocatedPrincipal := decimal.Zero
	allocatedInterest := decimal.Zero

	for i := 1; i <= count; i++ {
		due := plan.MaturityDate
		if cycle != CycleBullet {
			due = datemath.Min(cycle.advance(startDate, i), plan.MaturityDate)
		}

		p, in := principalShare, interestShare
		if i == count {
			p = totalPrincipal.Sub(allocatedPrincipal)
			in = totalInterest.Sub(allocatedInterest)
		}
		allocatedPrincipal = allocatedPrincipal.Add(p)
		allocatedInterest = allocatedInterest.Add(in)

		installments = append(installments, Installment{
			Number:    i,
			DueDate:   due,
			Principal: p,
			Interest:  in,
		})
	}

	return installments, nil
}

// Summarize totals a schedule
func Summarize(installments []Installment) Summary {
	s := Summary{
		Count:          len(installments),
		TotalPrincipal: decimal.Zero,
		TotalInterest:  decimal.Zero,
	}
	for _, inst := range installments {
		s.TotalPrincipal = s.TotalPrincipal.Add(inst.Principal)
		s.TotalInterest = s.TotalInterest.Add(inst.Interest)
	}
	s.TotalAmount = s.TotalPrincipal.Add(s.TotalInterest)
	return s
}
