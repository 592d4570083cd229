package lifecycle

import (
	"fmt"
	"time"

	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/money"
	"github.com/sjperalta/fintera-lending/internal/models"
)

// DeriveCreditStatus is the status a credit should carry at asOf:
// withdrawn once nothing remains, matured once the end date is reached,
// active otherwise.
func DeriveCreditStatus(credit models.Credit, asOf time.Time) string {
	if credit.IsTerminal() {
		return models.CreditStatusWithdrawn
	}
	if !credit.EndDate.IsZero() && !datemath.Date(asOf).Before(datemath.Date(credit.EndDate)) {
		return models.CreditStatusMatured
	}
	return models.CreditStatusActive
}

// ApplyPayout validates p against the credit and payout type and returns the
// credit with the payout folded in. A payout that returns principal first
// locks in the interest earned so far, so later accrual runs on the reduced
// principal from the payout date only. A credit left with nothing remaining
// still has to be withdrawn through its state machine.
//
//	interest_only      principal is zero
//	partial_principal  principal is positive and below the remaining principal
//	full_maturity      principal equals the remaining principal, on or after the end date
//	early_withdrawal   principal equals the remaining principal, before the end date
func ApplyPayout(credit models.Credit, p models.Payout) (models.Credit, error) {
	if p.PrincipalAmount.IsNegative() || p.InterestAmount.IsNegative() || !p.Total().IsPositive() {
		return credit, ErrInvalidAmount
	}
	if credit.IsTerminal() {
		return credit, fmt.Errorf("%w: credit is %s", ErrContractClosed, credit.Status)
	}
	if p.PaidAt.IsZero() {
		return credit, fmt.Errorf("%w: paid date is required", ErrInvalidPayout)
	}

	paidAt := datemath.Date(p.PaidAt)
	if credit.AccrualFrom != nil && paidAt.Before(datemath.Date(*credit.AccrualFrom)) {
		return credit, fmt.Errorf("%w: paid date precedes the last principal payout on %s",
			ErrInvalidPayout, datemath.FormatISODate(*credit.AccrualFrom))
	}
	remaining := credit.RemainingPrincipal
	switch p.PayoutType {
	case models.PayoutTypeInterestOnly:
		if !p.PrincipalAmount.IsZero() {
			return credit, fmt.Errorf("%w: interest_only payout carries principal", ErrInvalidPayout)
		}
	case models.PayoutTypePartialPrincipal:
		if !p.PrincipalAmount.IsPositive() || p.PrincipalAmount.GreaterThanOrEqual(remaining) {
			return credit, fmt.Errorf("%w: partial_principal must be between 0 and %s", ErrInvalidPayout, remaining.StringFixed(2))
		}
	case models.PayoutTypeFullMaturity:
		if !p.PrincipalAmount.Equal(remaining) {
			return credit, fmt.Errorf("%w: full_maturity must repay %s", ErrInvalidPayout, remaining.StringFixed(2))
		}
		if paidAt.Before(datemath.Date(credit.EndDate)) {
			return credit, fmt.Errorf("%w: full_maturity before end date %s", ErrInvalidPayout, datemath.FormatISODate(credit.EndDate))
		}
	case models.PayoutTypeEarlyWithdrawal:
		if !p.PrincipalAmount.Equal(remaining) {
			return credit, fmt.Errorf("%w: early_withdrawal must repay %s", ErrInvalidPayout, remaining.StringFixed(2))
		}
		if !paidAt.Before(datemath.Date(credit.EndDate)) {
			return credit, fmt.Errorf("%w: early_withdrawal on or after end date %s", ErrInvalidPayout, datemath.FormatISODate(credit.EndDate))
		}
	default:
		return credit, fmt.Errorf("%w: unknown payout type %q", ErrInvalidPayout, p.PayoutType)
	}

	if p.PrincipalAmount.IsPositive() {
		credit.AccruedCarry = money.Round(credit.GrossInterest(paidAt))
		credit.AccrualFrom = &paidAt
	}
	credit.RemainingPrincipal = remaining.Sub(p.PrincipalAmount)
	credit.TotalPaidOut = credit.TotalPaidOut.Add(p.Total())
	credit.InterestPaidOut = credit.InterestPaidOut.Add(p.InterestAmount)
	if credit.MayMature(paidAt) {
		credit.Status = models.CreditStatusMatured
	}
	return credit, nil
}
