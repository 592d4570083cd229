package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Loan     LoanRepository
	Credit   CreditRepository
	BadDebt  BadDebtRepository
	Audit    AuditRepository
	Snapshot SnapshotReader
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Loan:     NewLoanRepository(db),
		Credit:   NewCreditRepository(db),
		BadDebt:  NewBadDebtRepository(db),
		Audit:    NewAuditRepository(db),
		Snapshot: NewSnapshotReader(db),
	}
}
