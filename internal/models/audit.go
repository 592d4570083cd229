package models

import (
	"time"
)

// AuditLog records a staff edit on a ledger record
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, UPDATE, STATUS, ARCHIVE, REPAYMENT, PAYOUT, RECOVERY
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Loan, Credit, BadDebt
	EntityID  uint      `gorm:"index" json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit action constants
const (
	AuditActionCreate    = "CREATE"
	AuditActionUpdate    = "UPDATE"
	AuditActionStatus    = "STATUS"
	AuditActionArchive   = "ARCHIVE"
	AuditActionRepayment = "REPAYMENT"
	AuditActionPayout    = "PAYOUT"
	AuditActionRecovery  = "RECOVERY"
)

// AllModels lists every persisted model, in migration order
func AllModels() []interface{} {
	return []interface{}{
		&Loan{},
		&Repayment{},
		&Credit{},
		&Payout{},
		&BadDebt{},
		&BadDebtRecovery{},
		&AuditLog{},
	}
}
