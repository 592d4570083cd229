// Package lifecycle holds the status rules for loans, credits and bad debts.
// Functions take contracts by value and return the updated copy; callers
// persist the result.
package lifecycle

import (
	"fmt"

	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/models"
)

// NormalizeLoanStatus resolves legacy aliases onto the canonical loan states
func NormalizeLoanStatus(status string) (string, error) {
	s, ok := models.CanonicalLoanStatus(status)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return s, nil
}

// IsBadDebtEligible reports whether the loan may be written off
func IsBadDebtEligible(loan models.Loan) bool {
	return loan.CanonicalStatus() == models.LoanStatusFullProvision
}

// NextLoanStatus is the status a loan should carry after a repayment was
// recorded. An open loan whose principal is fully repaid is preliquidated;
// every other loan keeps its canonical status.
func NextLoanStatus(loan models.Loan) string {
	if loan.MayPreliquidate() {
		return models.LoanStatusPreliquidated
	}
	return loan.CanonicalStatus()
}

// ApplyRepayment validates r against the loan and returns the loan with the
// repayment folded into its repaid totals and status.
func ApplyRepayment(loan models.Loan, r models.Repayment) (models.Loan, error) {
	if r.PrincipalAmount.IsNegative() || r.InterestAmount.IsNegative() || !r.Total().IsPositive() {
		return loan, ErrInvalidAmount
	}
	if !loan.IsOpen() {
		return loan, fmt.Errorf("%w: loan is %s", ErrContractClosed, loan.CanonicalStatus())
	}
	if r.PaidAt.IsZero() {
		return loan, fmt.Errorf("%w: paid date is required", ErrInvalidAmount)
	}

	repaid := loan.AmountRepaid.Add(r.PrincipalAmount)
	if repaid.GreaterThan(loan.Principal) {
		return loan, fmt.Errorf("%w: outstanding %s, received %s",
			ErrRepaymentExceedsPrincipal, loan.OutstandingPrincipal().StringFixed(2), r.PrincipalAmount.StringFixed(2))
	}

	loan.AmountRepaid = repaid
	loan.InterestRepaid = loan.InterestRepaid.Add(r.InterestAmount)
	loan.Status = NextLoanStatus(loan)
	if loan.Status == models.LoanStatusPreliquidated {
		closed := datemath.Date(r.PaidAt)
		loan.ClosedAt = &closed
	}
	return loan, nil
}
