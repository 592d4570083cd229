package repository

import (
	"context"

	"github.com/sjperalta/fintera-lending/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadDebtRepository defines the interface for bad debt data access
type BadDebtRepository interface {
	FindByID(ctx context.Context, id uint) (*models.BadDebt, error)
	FindByLoanID(ctx context.Context, loanID uint) (*models.BadDebt, error)
	Create(ctx context.Context, debt *models.BadDebt) error
	List(ctx context.Context, query *ListQuery) ([]models.BadDebt, int64, error)
	RecordRecovery(ctx context.Context, id uint, apply RecoveryFunc) (*models.BadDebt, error)
}

// RecoveryFunc updates a locked bad debt in place and returns the recovery row to insert
type RecoveryFunc func(debt *models.BadDebt) (*models.BadDebtRecovery, error)

var badDebtSortable = map[string]string{
	"id":               "bad_debts.id",
	"declared_date":    "bad_debts.declared_date",
	"amount":           "bad_debts.amount",
	"recovered_amount": "bad_debts.recovered_amount",
	"created_at":       "bad_debts.created_at",
}

type badDebtRepository struct {
	db *gorm.DB
}

// NewBadDebtRepository creates a new bad debt repository
func NewBadDebtRepository(db *gorm.DB) BadDebtRepository {
	return &badDebtRepository{db: db}
}

func (r *badDebtRepository) FindByID(ctx context.Context, id uint) (*models.BadDebt, error) {
	var debt models.BadDebt
	err := r.db.WithContext(ctx).
		Preload("Recoveries", func(db *gorm.DB) *gorm.DB {
			return db.Order("recovered_at ASC, id ASC")
		}).
		First(&debt, id).Error
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

func (r *badDebtRepository) FindByLoanID(ctx context.Context, loanID uint) (*models.BadDebt, error) {
	var debt models.BadDebt
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&debt).Error
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

func (r *badDebtRepository) Create(ctx context.Context, debt *models.BadDebt) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(debt).Error
}

// List supports the filter recovered (true/false)
func (r *badDebtRepository) List(ctx context.Context, query *ListQuery) ([]models.BadDebt, int64, error) {
	var debts []models.BadDebt
	var total int64

	db := r.db.WithContext(ctx).Model(&models.BadDebt{})

	switch query.Filter("recovered") {
	case "true":
		db = db.Where("bad_debts.is_fully_recovered = ?", true)
	case "false":
		db = db.Where("bad_debts.is_fully_recovered = ?", false)
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("JOIN loans ON loans.id = bad_debts.loan_id").
			Where("loans.debtor_name ILIKE ? OR loans.reference ILIKE ?", search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, badDebtSortable, "bad_debts.declared_date DESC")
	db = applyPage(db, query)

	err := db.Preload("Loan").Find(&debts).Error
	return debts, total, err
}

// RecordRecovery locks the bad debt row, lets apply update it and persists it
// together with the recovery in one transaction
func (r *badDebtRepository) RecordRecovery(ctx context.Context, id uint, apply RecoveryFunc) (*models.BadDebt, error) {
	var debt models.BadDebt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&debt, id).Error; err != nil {
			return err
		}
		recovery, err := apply(&debt)
		if err != nil {
			return err
		}
		recovery.BadDebtID = debt.ID
		if err := tx.Create(recovery).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&debt).Error
	})
	if err != nil {
		return nil, err
	}
	return &debt, nil
}
