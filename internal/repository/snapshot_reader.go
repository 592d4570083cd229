package repository

import (
	"context"
	"database/sql"

	"github.com/sjperalta/fintera-lending/internal/models"
	"gorm.io/gorm"
)

// Snapshot is a consistent read of every contract
type Snapshot struct {
	Loans    []models.Loan
	Credits  []models.Credit
	BadDebts []models.BadDebt
}

// SnapshotReader loads loans, credits and bad debts as of a single point in time
type SnapshotReader interface {
	Read(ctx context.Context) (*Snapshot, error)
}

type snapshotReader struct {
	db *gorm.DB
}

// NewSnapshotReader creates a new snapshot reader
func NewSnapshotReader(db *gorm.DB) SnapshotReader {
	return &snapshotReader{db: db}
}

// Read runs the three queries inside one read-only repeatable read transaction
func (r *snapshotReader) Read(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id ASC").Find(&snap.Loans).Error; err != nil {
			return err
		}
		if err := tx.Order("id ASC").Find(&snap.Credits).Error; err != nil {
			return err
		}
		return tx.Order("id ASC").Find(&snap.BadDebts).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
