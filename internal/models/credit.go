package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/accrual"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/money"
	"github.com/sjperalta/fintera-lending/internal/finance/schedule"
)

// Credit is a placement received from a creditor
type Credit struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Reference          string          `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	CreditorName       string          `gorm:"not null;index" json:"creditor_name"`
	Principal          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"principal"`
	RemainingPrincipal decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"remaining_principal"`
	InterestRate       decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"interest_rate"`
	TenureMonths       int             `gorm:"not null" json:"tenure_months"`
	PayoutCycle        schedule.Cycle  `gorm:"type:varchar(20);not null;default:bullet" json:"payout_cycle"`
	StartDate          time.Time       `gorm:"type:date;not null;index" json:"start_date"`
	EndDate            time.Time       `gorm:"type:date;not null" json:"end_date"`
	FirstPayoutDate    time.Time       `gorm:"type:date;not null" json:"first_payout_date"`
	Status             string          `gorm:"default:active;not null;index" json:"status"`
	TotalPaidOut       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_paid_out"`
	InterestPaidOut    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"interest_paid_out"`
	AccruedCarry       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"accrued_carry"`
	AccrualFrom        *time.Time      `gorm:"type:date" json:"accrual_from"`
	WithdrawnAt        *time.Time      `gorm:"type:date" json:"withdrawn_at"`
	Notes              *string         `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Associations
	Payouts []Payout `gorm:"foreignKey:CreditID" json:"payouts,omitempty"`
}

// TableName specifies the table name for Credit
func (Credit) TableName() string {
	return "credits"
}

// Credit status constants
const (
	CreditStatusActive    = "active"
	CreditStatusMatured   = "matured"
	CreditStatusWithdrawn = "withdrawn"
)

// IsTerminal returns true once nothing is owed on the credit
func (c *Credit) IsTerminal() bool {
	return c.Status == CreditStatusWithdrawn || !c.RemainingPrincipal.IsPositive()
}

// MayMature returns true if an active credit has reached its end date
func (c *Credit) MayMature(asOf time.Time) bool {
	return c.Status == CreditStatusActive && !datemath.Date(asOf).Before(c.EndDate)
}

// MayWithdraw returns true if the credit can be closed out
func (c *Credit) MayWithdraw() bool {
	return (c.Status == CreditStatusActive || c.Status == CreditStatusMatured) && !c.RemainingPrincipal.IsPositive()
}

// AccrualEndDate is the maturity date, or the withdrawal date when earlier
func (c *Credit) AccrualEndDate() *time.Time {
	end := c.EndDate
	if c.WithdrawnAt != nil && !c.WithdrawnAt.IsZero() {
		end = datemath.Min(end, *c.WithdrawnAt)
	}
	if end.IsZero() {
		return nil
	}
	return &end
}

// AccrualStart is the date the remaining principal began accruing: the last
// principal payout, or the start date when none was made
func (c *Credit) AccrualStart() time.Time {
	if c.AccrualFrom != nil && !c.AccrualFrom.IsZero() {
		return *c.AccrualFrom
	}
	return c.StartDate
}

// GrossInterest is all interest earned up to asOf before payouts: the carry
// locked in at the last principal payout plus accrual on the remaining
// principal since then
func (c *Credit) GrossInterest(asOf time.Time) decimal.Decimal {
	return c.AccruedCarry.Add(accrual.Gross(c.RemainingPrincipal, c.InterestRate, c.AccrualStart(), asOf, c.AccrualEndDate()))
}

// AccruedInterest is the interest payable at asOf net of interest paid out.
// A terminal credit owes nothing further.
func (c *Credit) AccruedInterest(asOf time.Time) decimal.Decimal {
	if c.IsTerminal() {
		return decimal.Zero
	}
	return c.GrossInterest(asOf).Sub(c.InterestPaidOut)
}

// CurrentValue is remaining principal plus net accrued interest at asOf
func (c *Credit) CurrentValue(asOf time.Time) decimal.Decimal {
	return accrual.CurrentValue(c.RemainingPrincipal, c.AccruedInterest(asOf))
}

// CreditResponse is the JSON response format for credits
type CreditResponse struct {
	ID                 uint            `json:"id"`
	Reference          string          `json:"reference"`
	CreditorName       string          `json:"creditor_name"`
	Principal          decimal.Decimal `json:"principal"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	TenureMonths       int             `json:"tenure_months"`
	PayoutCycle        schedule.Cycle  `json:"payout_cycle"`
	StartDate          string          `json:"start_date"`
	EndDate            string          `json:"end_date"`
	FirstPayoutDate    string          `json:"first_payout_date"`
	Status             string          `json:"status"`
	TotalPaidOut       decimal.Decimal `json:"total_paid_out"`
	InterestPaidOut    decimal.Decimal `json:"interest_paid_out"`
	AccruedInterest    decimal.Decimal `json:"accrued_interest"`
	CurrentValue       decimal.Decimal `json:"current_value"`
	MaturityValue      decimal.Decimal `json:"maturity_value"`
	AsOf               string          `json:"as_of"`
	WithdrawnAt        *time.Time      `json:"withdrawn_at"`
	Notes              *string         `json:"notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Payouts            []Payout        `json:"payouts,omitempty"`
}

// ToResponse converts Credit to CreditResponse with figures computed at asOf
func (c *Credit) ToResponse(asOf time.Time) CreditResponse {
	accrued := c.AccruedInterest(asOf)
	return CreditResponse{
		ID:                 c.ID,
		Reference:          c.Reference,
		CreditorName:       c.CreditorName,
		Principal:          c.Principal,
		RemainingPrincipal: c.RemainingPrincipal,
		InterestRate:       c.InterestRate,
		TenureMonths:       c.TenureMonths,
		PayoutCycle:        c.PayoutCycle,
		StartDate:          datemath.FormatISODate(c.StartDate),
		EndDate:            datemath.FormatISODate(c.EndDate),
		FirstPayoutDate:    datemath.FormatISODate(c.FirstPayoutDate),
		Status:             c.Status,
		TotalPaidOut:       c.TotalPaidOut,
		InterestPaidOut:    c.InterestPaidOut,
		AccruedInterest:    money.Round(accrued),
		CurrentValue:       money.Round(accrual.CurrentValue(c.RemainingPrincipal, accrued)),
		MaturityValue:      money.Round(accrual.MaturityValue(c.Principal, c.InterestRate, c.TenureMonths)),
		AsOf:               datemath.FormatISODate(asOf),
		WithdrawnAt:        c.WithdrawnAt,
		Notes:              c.Notes,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		Payouts:            c.Payouts,
	}
}

// Payout records money paid to a creditor
type Payout struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CreditID        uint            `gorm:"not null;index" json:"credit_id"`
	PrincipalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"principal_amount"`
	InterestAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"interest_amount"`
	PayoutType      string          `gorm:"type:varchar(30);not null;index" json:"payout_type"`
	PaidAt          time.Time       `gorm:"type:date;not null;index" json:"paid_at"`
	Note            *string         `gorm:"type:text" json:"note"`
	RecordedByID    *uint           `gorm:"index" json:"recorded_by_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName specifies the table name for Payout
func (Payout) TableName() string {
	return "payouts"
}

// Payout type constants
const (
	PayoutTypeInterestOnly     = "interest_only"
	PayoutTypePartialPrincipal = "partial_principal"
	PayoutTypeFullMaturity     = "full_maturity"
	PayoutTypeEarlyWithdrawal  = "early_withdrawal"
)

// Total is principal plus interest paid out
func (p *Payout) Total() decimal.Decimal {
	return p.PrincipalAmount.Add(p.InterestAmount)
}
