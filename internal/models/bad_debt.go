package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
)

// BadDebt is a loan written off as non-recoverable
type BadDebt struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	LoanID           uint            `gorm:"not null;uniqueIndex" json:"loan_id"`
	DeclaredDate     time.Time       `gorm:"type:date;not null" json:"declared_date"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	RecoveredAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"recovered_amount"`
	IsFullyRecovered bool            `gorm:"default:false;index" json:"is_fully_recovered"`
	Notes            *string         `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Associations
	Loan       Loan              `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	Recoveries []BadDebtRecovery `gorm:"foreignKey:BadDebtID" json:"recoveries,omitempty"`
}

// TableName specifies the table name for BadDebt
func (BadDebt) TableName() string {
	return "bad_debts"
}

// Outstanding is the written-off amount not yet recovered
func (b *BadDebt) Outstanding() decimal.Decimal {
	return b.Amount.Sub(b.RecoveredAmount)
}

// BadDebtResponse is the JSON response format for bad debts
type BadDebtResponse struct {
	ID               uint              `json:"id"`
	LoanID           uint              `json:"loan_id"`
	DebtorName       string            `json:"debtor_name,omitempty"`
	DeclaredDate     string            `json:"declared_date"`
	Amount           decimal.Decimal   `json:"amount"`
	RecoveredAmount  decimal.Decimal   `json:"recovered_amount"`
	Outstanding      decimal.Decimal   `json:"outstanding"`
	IsFullyRecovered bool              `json:"is_fully_recovered"`
	Notes            *string           `json:"notes"`
	Recoveries       []BadDebtRecovery `json:"recoveries,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ToResponse converts BadDebt to BadDebtResponse
func (b *BadDebt) ToResponse() BadDebtResponse {
	return BadDebtResponse{
		ID:               b.ID,
		LoanID:           b.LoanID,
		DebtorName:       b.Loan.DebtorName,
		DeclaredDate:     datemath.FormatISODate(b.DeclaredDate),
		Amount:           b.Amount,
		RecoveredAmount:  b.RecoveredAmount,
		Outstanding:      b.Outstanding(),
		IsFullyRecovered: b.IsFullyRecovered,
		Notes:            b.Notes,
		Recoveries:       b.Recoveries,
		CreatedAt:        b.CreatedAt,
	}
}

// BadDebtRecovery records money recovered on a bad debt
type BadDebtRecovery struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	BadDebtID    uint            `gorm:"not null;index" json:"bad_debt_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	RecoveredAt  time.Time       `gorm:"type:date;not null" json:"recovered_at"`
	RecordedByID *uint           `gorm:"index" json:"recorded_by_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName specifies the table name for BadDebtRecovery
func (BadDebtRecovery) TableName() string {
	return "bad_debt_recoveries"
}
