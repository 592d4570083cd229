package repository

import (
	"context"
	"strings"

	"github.com/sjperalta/fintera-lending/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Loan, error)
	FindByIDWithRepayments(ctx context.Context, id uint) (*models.Loan, error)
	Create(ctx context.Context, loan *models.Loan) error
	Update(ctx context.Context, loan *models.Loan) error
	List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error)
	FindOpen(ctx context.Context) ([]models.Loan, error)
	RecordRepayment(ctx context.Context, id uint, apply RepaymentFunc) (*models.Loan, error)
}

// RepaymentFunc updates a locked loan in place and returns the repayment row to insert
type RepaymentFunc func(loan *models.Loan) (*models.Repayment, error)

var loanSortable = map[string]string{
	"id":                "loans.id",
	"debtor_name":       "loans.debtor_name",
	"principal":         "loans.principal",
	"disbursement_date": "loans.disbursement_date",
	"maturity_date":     "loans.maturity_date",
	"status":            "loans.status",
	"created_at":        "loans.created_at",
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByIDWithRepayments(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Repayments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC, id ASC")
		}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(loan).Error
}

// List supports the filters status (canonical, aliases included), archived,
// cycle, start_date and end_date (on disbursement date)
func (r *loanRepository) List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Loan{})

	if status := query.Filter("status"); status != "" {
		var stored []string
		for _, s := range strings.Split(status, ",") {
			stored = append(stored, models.LoanStatusAliases(strings.TrimSpace(s))...)
		}
		db = db.Where("loans.status IN ?", stored)
	}

	switch query.Filter("archived") {
	case "true":
		db = db.Where("loans.archived = ?", true)
	case "all":
	default:
		db = db.Where("loans.archived = ?", false)
	}

	if val := query.Filter("cycle"); val != "" {
		db = db.Where("loans.repayment_cycle = ?", val)
	}
	if val := query.Filter("start_date"); val != "" {
		db = db.Where("loans.disbursement_date >= ?", val)
	}
	if val := query.Filter("end_date"); val != "" {
		db = db.Where("loans.disbursement_date <= ?", endOfDay(val))
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("loans.debtor_name ILIKE ? OR loans.reference ILIKE ?", search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, loanSortable, "loans.created_at DESC")
	db = applyPage(db, query)

	err := db.Find(&loans).Error
	return loans, total, err
}

// FindOpen returns performing and non performing loans that are not archived
func (r *loanRepository) FindOpen(ctx context.Context) ([]models.Loan, error) {
	statuses := append(models.LoanStatusAliases(models.LoanStatusPerforming),
		models.LoanStatusAliases(models.LoanStatusNonPerforming)...)

	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("status IN ? AND archived = ?", statuses, false).
		Order("id ASC").
		Find(&loans).Error
	return loans, err
}

// RecordRepayment locks the loan row, lets apply update it and persists the
// loan together with the repayment in one transaction
func (r *loanRepository) RecordRepayment(ctx context.Context, id uint, apply RepaymentFunc) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&loan, id).Error; err != nil {
			return err
		}
		repayment, err := apply(&loan)
		if err != nil {
			return err
		}
		repayment.LoanID = loan.ID
		if err := tx.Create(repayment).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&loan).Error
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}
