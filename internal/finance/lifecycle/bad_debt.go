package lifecycle

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/models"
)

// NewBadDebt writes off amount on a fully provisioned loan
func NewBadDebt(loan models.Loan, amount decimal.Decimal, declared time.Time) (models.BadDebt, error) {
	if !IsBadDebtEligible(loan) {
		return models.BadDebt{}, fmt.Errorf("%w: loan is %s", ErrNotEligibleForBadDebt, loan.CanonicalStatus())
	}
	if !amount.IsPositive() {
		return models.BadDebt{}, ErrInvalidAmount
	}
	if declared.IsZero() {
		return models.BadDebt{}, fmt.Errorf("%w: declared date is required", ErrInvalidAmount)
	}
	return models.BadDebt{
		LoanID:          loan.ID,
		DeclaredDate:    datemath.Date(declared),
		Amount:          amount,
		RecoveredAmount: decimal.Zero,
	}, nil
}

// ApplyRecovery adds amount to the recovered total. Recoveries above the
// outstanding written-off balance are rejected, and once fully recovered the
// flag stays set.
func ApplyRecovery(debt models.BadDebt, amount decimal.Decimal) (models.BadDebt, error) {
	if !amount.IsPositive() {
		return debt, ErrInvalidAmount
	}
	if amount.GreaterThan(debt.Outstanding()) {
		return debt, fmt.Errorf("%w: outstanding %s, received %s",
			ErrRecoveryExceedsOutstanding, debt.Outstanding().StringFixed(2), amount.StringFixed(2))
	}
	debt.RecoveredAmount = debt.RecoveredAmount.Add(amount)
	debt.IsFullyRecovered = debt.IsFullyRecovered || RecoveryComplete(debt)
	return debt, nil
}

// RecoveryComplete reports whether the recovered total covers the written-off amount
func RecoveryComplete(debt models.BadDebt) bool {
	return debt.RecoveredAmount.GreaterThanOrEqual(debt.Amount)
}
