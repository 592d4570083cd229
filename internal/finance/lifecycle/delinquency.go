package lifecycle

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/schedule"
	"github.com/sjperalta/fintera-lending/internal/models"
)

// DelinquencyPolicy holds the days-past-due thresholds used to classify loans
type DelinquencyPolicy struct {
	NonPerformingAfterDays int `yaml:"non_performing_after_days"`
	FullProvisionAfterDays int `yaml:"full_provision_after_days"`
}

// DefaultDelinquencyPolicy returns the standard thresholds
func DefaultDelinquencyPolicy() DelinquencyPolicy {
	return DelinquencyPolicy{
		NonPerformingAfterDays: 30,
		FullProvisionAfterDays: 180,
	}
}

// Delinquency is the outcome of classifying a loan's payment history
type Delinquency struct {
	DaysPastDue  int                   `json:"days_past_due"`
	OldestUnpaid *schedule.Installment `json:"oldest_unpaid,omitempty"`
	Status       string                `json:"status"`
}

// ClassifyDelinquency finds the oldest installment not covered by the
// cumulative amount paid and maps its days past due onto a loan status:
// more than FullProvisionAfterDays is full_provision, more than
// NonPerformingAfterDays is non_performing, anything else performing.
func ClassifyDelinquency(installments []schedule.Installment, paidToDate decimal.Decimal, asOf time.Time, policy DelinquencyPolicy) Delinquency {
	result := Delinquency{Status: models.LoanStatusPerforming}

	covered := decimal.Zero
	for i := range installments {
		covered = covered.Add(installments[i].Total())
		if paidToDate.GreaterThanOrEqual(covered) {
			continue
		}
		inst := installments[i]
		result.OldestUnpaid = &inst
		if days := datemath.DaysBetween(inst.DueDate, asOf); days > 0 {
			result.DaysPastDue = days
		}
		break
	}

	switch {
	case result.DaysPastDue > policy.FullProvisionAfterDays:
		result.Status = models.LoanStatusFullProvision
	case result.DaysPastDue > policy.NonPerformingAfterDays:
		result.Status = models.LoanStatusNonPerforming
	}
	return result
}

// ClassifyLoan regenerates the loan's schedule and classifies it against
// everything repaid so far.
func ClassifyLoan(loan models.Loan, asOf time.Time, policy DelinquencyPolicy) (Delinquency, error) {
	installments, err := loan.Schedule()
	if err != nil {
		return Delinquency{}, err
	}
	paid := loan.AmountRepaid.Add(loan.InterestRepaid)
	return ClassifyDelinquency(installments, paid, asOf, policy), nil
}

var severity = map[string]int{
	models.LoanStatusPerforming:    0,
	models.LoanStatusNonPerforming: 1,
	models.LoanStatusFullProvision: 2,
}

// IsEscalation reports whether moving an open loan from current to suggested
// makes it more severe. Preliquidated loans never escalate.
func IsEscalation(current, suggested string) bool {
	from, ok := severity[current]
	if !ok {
		return false
	}
	to, ok := severity[suggested]
	return ok && to > from
}
