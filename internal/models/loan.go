package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/accrual"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/money"
	"github.com/sjperalta/fintera-lending/internal/finance/schedule"
)

// Loan is money disbursed to a debtor
type Loan struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Reference          string          `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	DebtorName         string          `gorm:"not null;index" json:"debtor_name"`
	Principal          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"principal"`
	InterestRate       decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"interest_rate"`
	TenureMonths       int             `gorm:"not null" json:"tenure_months"`
	OriginationDate    time.Time       `gorm:"type:date;not null;index" json:"origination_date"`
	DisbursementDate   time.Time       `gorm:"type:date;not null" json:"disbursement_date"`
	RepaymentCycle     schedule.Cycle  `gorm:"type:varchar(20);not null" json:"repayment_cycle"`
	MaturityDate       time.Time       `gorm:"type:date;not null" json:"maturity_date"`
	FirstRepaymentDate time.Time       `gorm:"type:date;not null" json:"first_repayment_date"`
	Status             string          `gorm:"default:performing;not null;index" json:"status"`
	AmountRepaid       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount_repaid"`
	InterestRepaid     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"interest_repaid"`
	ClosedAt           *time.Time      `gorm:"type:date" json:"closed_at"`
	Archived           bool            `gorm:"default:false;index" json:"archived"`
	ArchivedAt         *time.Time      `json:"archived_at"`
	Notes              *string         `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Associations
	Repayments []Repayment `gorm:"foreignKey:LoanID" json:"repayments,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// Canonical loan status constants
const (
	LoanStatusPerforming    = "performing"
	LoanStatusNonPerforming = "non_performing"
	LoanStatusFullProvision = "full_provision"
	LoanStatusPreliquidated = "preliquidated"
)

// Legacy loan statuses still found on older records
const (
	LoanStatusLegacyActive    = "active"
	LoanStatusLegacyOverdue   = "overdue"
	LoanStatusLegacyDefaulted = "defaulted"
	LoanStatusLegacyRepaid    = "repaid"
)

var loanStatusAliases = map[string]string{
	LoanStatusPerforming:      LoanStatusPerforming,
	LoanStatusNonPerforming:   LoanStatusNonPerforming,
	LoanStatusFullProvision:   LoanStatusFullProvision,
	LoanStatusPreliquidated:   LoanStatusPreliquidated,
	LoanStatusLegacyActive:    LoanStatusPerforming,
	LoanStatusLegacyOverdue:   LoanStatusNonPerforming,
	LoanStatusLegacyDefaulted: LoanStatusFullProvision,
	LoanStatusLegacyRepaid:    LoanStatusPreliquidated,
}

// CanonicalLoanStatus maps legacy aliases onto the four canonical states.
// ok is false for values that are neither.
func CanonicalLoanStatus(status string) (string, bool) {
	s, ok := loanStatusAliases[status]
	return s, ok
}

// LoanStatusAliases returns every stored value that reads as the given
// canonical status, canonical value first
func LoanStatusAliases(canonical string) []string {
	out := []string{canonical}
	for stored, c := range loanStatusAliases {
		if c == canonical && stored != canonical {
			out = append(out, stored)
		}
	}
	return out
}

// CanonicalStatus returns the loan's status with legacy aliases resolved.
// Unknown values are returned unchanged.
func (l *Loan) CanonicalStatus() string {
	if s, ok := CanonicalLoanStatus(l.Status); ok {
		return s
	}
	return l.Status
}

// IsOpen returns true while the loan still carries exposure
func (l *Loan) IsOpen() bool {
	s := l.CanonicalStatus()
	return s == LoanStatusPerforming || s == LoanStatusNonPerforming
}

// MayFlagNonPerforming returns true if the loan can be flagged as non performing
func (l *Loan) MayFlagNonPerforming() bool {
	return l.CanonicalStatus() == LoanStatusPerforming
}

// MayCure returns true if a non performing loan can return to performing
func (l *Loan) MayCure() bool {
	return l.CanonicalStatus() == LoanStatusNonPerforming
}

// MayProvision returns true if the loan can be fully provisioned
func (l *Loan) MayProvision() bool {
	return l.CanonicalStatus() == LoanStatusNonPerforming
}

// MayPreliquidate returns true once an open loan's principal is fully repaid
func (l *Loan) MayPreliquidate() bool {
	return l.IsOpen() && l.AmountRepaid.GreaterThanOrEqual(l.Principal)
}

// OutstandingPrincipal is principal minus amount repaid. Negative values
// signal an over-repayment and are not clamped.
func (l *Loan) OutstandingPrincipal() decimal.Decimal {
	return l.Principal.Sub(l.AmountRepaid)
}

// AccrualEndDate is the date interest stops accruing: maturity, or the
// closing date when the loan was preliquidated earlier.
func (l *Loan) AccrualEndDate() *time.Time {
	end := l.MaturityDate
	if l.ClosedAt != nil && !l.ClosedAt.IsZero() {
		end = datemath.Min(end, *l.ClosedAt)
	}
	if end.IsZero() {
		return nil
	}
	return &end
}

// AccruedInterest is the interest receivable at asOf net of interest repaid.
// Interest accrues on the original principal from disbursement, matching the
// flat schedule whose total interest is fixed at origination. Partial
// repayments do not reduce it, unlike Credit.AccruedInterest, which follows
// the remaining principal.
func (l *Loan) AccruedInterest(asOf time.Time) decimal.Decimal {
	return accrual.AccruedInterest(l.Principal, l.InterestRate, l.DisbursementDate, asOf, l.AccrualEndDate(), l.InterestRepaid)
}

// CurrentValue is outstanding principal plus net accrued interest at asOf
func (l *Loan) CurrentValue(asOf time.Time) decimal.Decimal {
	return accrual.CurrentValue(l.OutstandingPrincipal(), l.AccruedInterest(asOf))
}

// Schedule regenerates the loan's installments from its parameters
func (l *Loan) Schedule() ([]schedule.Installment, error) {
	return schedule.GenerateSchedule(l.Principal, l.InterestRate, l.TenureMonths, l.RepaymentCycle, l.OriginationDate)
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID                   uint            `json:"id"`
	Reference            string          `json:"reference"`
	DebtorName           string          `json:"debtor_name"`
	Principal            decimal.Decimal `json:"principal"`
	InterestRate         decimal.Decimal `json:"interest_rate"`
	TenureMonths         int             `json:"tenure_months"`
	OriginationDate      string          `json:"origination_date"`
	DisbursementDate     string          `json:"disbursement_date"`
	RepaymentCycle       schedule.Cycle  `json:"repayment_cycle"`
	MaturityDate         string          `json:"maturity_date"`
	FirstRepaymentDate   string          `json:"first_repayment_date"`
	Status               string          `json:"status"`
	Archived             bool            `json:"archived"`
	AmountRepaid         decimal.Decimal `json:"amount_repaid"`
	InterestRepaid       decimal.Decimal `json:"interest_repaid"`
	OutstandingPrincipal decimal.Decimal `json:"outstanding_principal"`
	AccruedInterest      decimal.Decimal `json:"accrued_interest"`
	CurrentValue         decimal.Decimal `json:"current_value"`
	MaturityValue        decimal.Decimal `json:"maturity_value"`
	AsOf                 string          `json:"as_of"`
	ClosedAt             *time.Time      `json:"closed_at"`
	Notes                *string         `json:"notes"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ToResponse converts Loan to LoanResponse with figures computed at asOf
func (l *Loan) ToResponse(asOf time.Time) LoanResponse {
	accrued := l.AccruedInterest(asOf)
	return LoanResponse{
		ID:                   l.ID,
		Reference:            l.Reference,
		DebtorName:           l.DebtorName,
		Principal:            l.Principal,
		InterestRate:         l.InterestRate,
		TenureMonths:         l.TenureMonths,
		OriginationDate:      datemath.FormatISODate(l.OriginationDate),
		DisbursementDate:     datemath.FormatISODate(l.DisbursementDate),
		RepaymentCycle:       l.RepaymentCycle,
		MaturityDate:         datemath.FormatISODate(l.MaturityDate),
		FirstRepaymentDate:   datemath.FormatISODate(l.FirstRepaymentDate),
		Status:               l.CanonicalStatus(),
		Archived:             l.Archived,
		AmountRepaid:         l.AmountRepaid,
		InterestRepaid:       l.InterestRepaid,
		OutstandingPrincipal: money.Round(l.OutstandingPrincipal()),
		AccruedInterest:      money.Round(accrued),
		CurrentValue:         money.Round(accrual.CurrentValue(l.OutstandingPrincipal(), accrued)),
		MaturityValue:        money.Round(accrual.MaturityValue(l.Principal, l.InterestRate, l.TenureMonths)),
		AsOf:                 datemath.FormatISODate(asOf),
		ClosedAt:             l.ClosedAt,
		Notes:                l.Notes,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
}

// Repayment records money received against a loan
type Repayment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	LoanID          uint            `gorm:"not null;index" json:"loan_id"`
	PrincipalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"principal_amount"`
	InterestAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"interest_amount"`
	PaidAt          time.Time       `gorm:"type:date;not null;index" json:"paid_at"`
	Note            *string         `gorm:"type:text" json:"note"`
	RecordedByID    *uint           `gorm:"index" json:"recorded_by_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName specifies the table name for Repayment
func (Repayment) TableName() string {
	return "repayments"
}

// Total is principal plus interest received
func (r *Repayment) Total() decimal.Decimal {
	return r.PrincipalAmount.Add(r.InterestAmount)
}
