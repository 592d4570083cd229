package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/lifecycle"
	"github.com/sjperalta/fintera-lending/internal/metrics"
	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/repository"
	"github.com/sjperalta/fintera-lending/pkg/logger"
	"gorm.io/gorm"
)

// DeclareBadDebtInput writes off a fully provisioned loan. A missing amount
// defaults to the loan's outstanding principal.
type DeclareBadDebtInput struct {
	Amount       *decimal.Decimal `json:"amount" swaggertype:"string" example:"8000.00"`
	DeclaredDate string           `json:"declared_date" example:"2024-12-31"`
	Notes        *string          `json:"notes"`
}

// RecoveryInput records money recovered on a bad debt
type RecoveryInput struct {
	Amount      decimal.Decimal `json:"amount" binding:"required" swaggertype:"string" example:"500.00"`
	RecoveredAt string          `json:"recovered_at" binding:"required" example:"2025-01-15"`
}

type BadDebtService struct {
	repo  repository.BadDebtRepository
	loans repository.LoanRepository
	audit *AuditService
	now   func() time.Time
}

func NewBadDebtService(repo repository.BadDebtRepository, loans repository.LoanRepository, audit *AuditService) *BadDebtService {
	return &BadDebtService{
		repo:  repo,
		loans: loans,
		audit: audit,
		now:   time.Now,
	}
}

// Declare writes off a loan. Only one bad debt may exist per loan.
func (s *BadDebtService) Declare(ctx context.Context, loanID uint, input DeclareBadDebtInput, userID uint) (*models.BadDebt, error) {
	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, notFound(err)
	}

	existing, err := s.repo.FindByLoanID(ctx, loanID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing bad debt: %w", err)
	}
	if existing != nil && existing.ID != 0 {
		return nil, fmt.Errorf("%w: loan %d already has bad debt %d", ErrDuplicate, loanID, existing.ID)
	}

	declared := datemath.Date(s.now())
	if input.DeclaredDate != "" {
		if declared, err = parseDate("declared_date", input.DeclaredDate); err != nil {
			return nil, err
		}
	}
	amount := loan.OutstandingPrincipal()
	if input.Amount != nil {
		amount = *input.Amount
	}

	debt, err := lifecycle.NewBadDebt(*loan, amount, declared)
	if err != nil {
		return nil, err
	}
	debt.Notes = input.Notes

	// A concurrent declaration that passed the check above trips the unique index
	if err := s.repo.Create(ctx, &debt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: loan %d already has a bad debt", ErrDuplicate, loanID)
		}
		return nil, fmt.Errorf("failed to create bad debt: %w", err)
	}

	logger.Info("Bad debt declared",
		slog.Any("bad_debt_id", debt.ID),
		slog.Any("loan_id", loanID),
		slog.String("amount", debt.Amount.StringFixed(2)))
	s.audit.Log(ctx, userID, models.AuditActionCreate, "BadDebt", debt.ID, input)
	return &debt, nil
}

// Get returns a bad debt with its recoveries
func (s *BadDebtService) Get(ctx context.Context, id uint) (*models.BadDebt, error) {
	debt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return debt, nil
}

// List returns a page of bad debts
func (s *BadDebtService) List(ctx context.Context, query *repository.ListQuery) ([]models.BadDebt, int64, error) {
	return s.repo.List(ctx, query)
}

// RecordRecovery adds a recovery to a bad debt
func (s *BadDebtService) RecordRecovery(ctx context.Context, id uint, input RecoveryInput, userID uint) (*models.BadDebt, error) {
	recoveredAt, err := parseDate("recovered_at", input.RecoveredAt)
	if err != nil {
		return nil, err
	}
	if recoveredAt.After(datemath.Date(s.now())) {
		return nil, validationError("recovered_at cannot be in the future")
	}

	debt, err := s.repo.RecordRecovery(ctx, id, func(locked *models.BadDebt) (*models.BadDebtRecovery, error) {
		if recoveredAt.Before(datemath.Date(locked.DeclaredDate)) {
			return nil, validationError("recovered_at cannot precede declared_date")
		}
		updated, err := lifecycle.ApplyRecovery(*locked, input.Amount)
		if err != nil {
			return nil, err
		}
		*locked = updated

		recovery := &models.BadDebtRecovery{
			Amount:      input.Amount,
			RecoveredAt: recoveredAt,
		}
		if userID != 0 {
			recovery.RecordedByID = &userID
		}
		return recovery, nil
	})
	metrics.IncRecording("recovery", err)
	if err != nil {
		return nil, notFound(err)
	}

	s.audit.Log(ctx, userID, models.AuditActionRecovery, "BadDebt", debt.ID, input)
	return debt, nil
}
