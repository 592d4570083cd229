package repository

import (
	"context"
	"strings"

	"github.com/sjperalta/fintera-lending/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditRepository defines the interface for credit data access
type CreditRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Credit, error)
	FindByIDWithPayouts(ctx context.Context, id uint) (*models.Credit, error)
	Create(ctx context.Context, credit *models.Credit) error
	Update(ctx context.Context, credit *models.Credit) error
	List(ctx context.Context, query *ListQuery) ([]models.Credit, int64, error)
	FindActive(ctx context.Context) ([]models.Credit, error)
	RecordPayout(ctx context.Context, id uint, apply PayoutFunc) (*models.Credit, error)
}

// PayoutFunc updates a locked credit in place and returns the payout row to insert
type PayoutFunc func(credit *models.Credit) (*models.Payout, error)

var creditSortable = map[string]string{
	"id":                  "credits.id",
	"creditor_name":       "credits.creditor_name",
	"principal":           "credits.principal",
	"remaining_principal": "credits.remaining_principal",
	"start_date":          "credits.start_date",
	"end_date":            "credits.end_date",
	"status":              "credits.status",
	"created_at":          "credits.created_at",
}

type creditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a new credit repository
func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &creditRepository{db: db}
}

func (r *creditRepository) FindByID(ctx context.Context, id uint) (*models.Credit, error) {
	var credit models.Credit
	err := r.db.WithContext(ctx).First(&credit, id).Error
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

func (r *creditRepository) FindByIDWithPayouts(ctx context.Context, id uint) (*models.Credit, error) {
	var credit models.Credit
	err := r.db.WithContext(ctx).
		Preload("Payouts", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC, id ASC")
		}).
		First(&credit, id).Error
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

func (r *creditRepository) Create(ctx context.Context, credit *models.Credit) error {
	return r.db.WithContext(ctx).Create(credit).Error
}

func (r *creditRepository) Update(ctx context.Context, credit *models.Credit) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(credit).Error
}

// List supports the filters status (comma separated), start_date and end_date
// (on start date)
func (r *creditRepository) List(ctx context.Context, query *ListQuery) ([]models.Credit, int64, error) {
	var credits []models.Credit
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Credit{})

	if status := query.Filter("status"); status != "" {
		statuses := strings.Split(status, ",")
		for i := range statuses {
			statuses[i] = strings.TrimSpace(statuses[i])
		}
		db = db.Where("credits.status IN ?", statuses)
	}
	if val := query.Filter("start_date"); val != "" {
		db = db.Where("credits.start_date >= ?", val)
	}
	if val := query.Filter("end_date"); val != "" {
		db = db.Where("credits.start_date <= ?", endOfDay(val))
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("credits.creditor_name ILIKE ? OR credits.reference ILIKE ?", search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, creditSortable, "credits.created_at DESC")
	db = applyPage(db, query)

	err := db.Find(&credits).Error
	return credits, total, err
}

// FindActive returns credits that still carry principal
func (r *creditRepository) FindActive(ctx context.Context) ([]models.Credit, error) {
	var credits []models.Credit
	err := r.db.WithContext(ctx).
		Where("status IN ? AND remaining_principal > 0", []string{models.CreditStatusActive, models.CreditStatusMatured}).
		Order("id ASC").
		Find(&credits).Error
	return credits, err
}

// RecordPayout locks the credit row, lets apply update it and persists the
// credit together with the payout in one transaction
func (r *creditRepository) RecordPayout(ctx context.Context, id uint, apply PayoutFunc) (*models.Credit, error) {
	var credit models.Credit
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&credit, id).Error; err != nil {
			return err
		}
		payout, err := apply(&credit)
		if err != nil {
			return err
		}
		payout.CreditID = credit.ID
		if err := tx.Create(payout).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&credit).Error
	})
	if err != nil {
		return nil, err
	}
	return &credit, nil
}
