package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/accrual"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/lifecycle"
	"github.com/sjperalta/fintera-lending/internal/finance/money"
	"github.com/sjperalta/fintera-lending/internal/finance/schedule"
	"github.com/sjperalta/fintera-lending/internal/metrics"
	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/repository"
	"github.com/sjperalta/fintera-lending/internal/statemachine"
	"github.com/sjperalta/fintera-lending/pkg/logger"
)

// CreateCreditInput is the payload for recording a placement
type CreateCreditInput struct {
	CreditorName string          `json:"creditor_name" binding:"required"`
	Principal    decimal.Decimal `json:"principal" binding:"required" swaggertype:"string" example:"50000.00"`
	InterestRate decimal.Decimal `json:"interest_rate" binding:"required" swaggertype:"string" example:"10"`
	TenureMonths int             `json:"tenure_months" binding:"required" example:"12"`
	PayoutCycle  string          `json:"payout_cycle" example:"bullet"`
	StartDate    string          `json:"start_date" binding:"required" example:"2024-01-01"`
	Notes        *string         `json:"notes"`
}

// PayoutInput records money paid to a creditor
type PayoutInput struct {
	PayoutType      string          `json:"payout_type" binding:"required" example:"interest_only"`
	PrincipalAmount decimal.Decimal `json:"principal_amount" swaggertype:"string" example:"0"`
	InterestAmount  decimal.Decimal `json:"interest_amount" swaggertype:"string" example:"416.67"`
	PaidAt          string          `json:"paid_at" binding:"required" example:"2024-02-01"`
	Note            *string         `json:"note"`
}

// CreditAccrual is the accrual breakdown of a credit at a date
type CreditAccrual struct {
	CreditID           uint            `json:"credit_id"`
	AsOf               string          `json:"as_of"`
	DaysElapsed        int             `json:"days_elapsed"`
	InterestPaidOut    decimal.Decimal `json:"interest_paid_out"`
	AccruedInterest    decimal.Decimal `json:"accrued_interest"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	CurrentValue       decimal.Decimal `json:"current_value"`
	MaturityValue      decimal.Decimal `json:"maturity_value"`
	Status             string          `json:"status"`
}

type CreditService struct {
	repo  repository.CreditRepository
	audit *AuditService
	now   func() time.Time
}

func NewCreditService(repo repository.CreditRepository, audit *AuditService) *CreditService {
	return &CreditService{
		repo:  repo,
		audit: audit,
		now:   time.Now,
	}
}

func (s *CreditService) today() time.Time {
	return datemath.Date(s.now())
}

// Create validates the input, derives the end and first payout dates and
// persists the credit
func (s *CreditService) Create(ctx context.Context, input CreateCreditInput, userID uint) (*models.Credit, error) {
	if strings.TrimSpace(input.CreditorName) == "" {
		return nil, validationError("creditor_name is required")
	}
	if !input.Principal.IsPositive() {
		return nil, validationError("principal must be positive")
	}
	if input.InterestRate.IsNegative() || input.InterestRate.GreaterThan(maxInterestRate) {
		return nil, validationError("interest_rate must be between 0 and 100")
	}

	cycle := schedule.CycleBullet
	if input.PayoutCycle != "" {
		cycle = schedule.Cycle(input.PayoutCycle)
	}
	start, err := parseDate("start_date", input.StartDate)
	if err != nil {
		return nil, err
	}
	plan, err := schedule.NewPlan(start, input.TenureMonths, cycle)
	if err != nil {
		return nil, err
	}

	credit := &models.Credit{
		Reference:          uuid.New().String(),
		CreditorName:       strings.TrimSpace(input.CreditorName),
		Principal:          input.Principal,
		RemainingPrincipal: input.Principal,
		InterestRate:       input.InterestRate,
		TenureMonths:       input.TenureMonths,
		PayoutCycle:        cycle,
		StartDate:          start,
		EndDate:            plan.MaturityDate,
		FirstPayoutDate:    plan.FirstRepaymentDate,
		TotalPaidOut:       decimal.Zero,
		InterestPaidOut:    decimal.Zero,
		Notes:              input.Notes,
	}
	credit.Status = lifecycle.DeriveCreditStatus(*credit, s.today())

	if err := s.repo.Create(ctx, credit); err != nil {
		return nil, fmt.Errorf("failed to create credit: %w", err)
	}

	logger.Info("Credit recorded", slog.Any("credit_id", credit.ID), slog.String("reference", credit.Reference))
	s.audit.Log(ctx, userID, models.AuditActionCreate, "Credit", credit.ID, input)
	return credit, nil
}

// Get returns a credit with its payouts
func (s *CreditService) Get(ctx context.Context, id uint) (*models.Credit, error) {
	credit, err := s.repo.FindByIDWithPayouts(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return credit, nil
}

// List returns a page of credits
func (s *CreditService) List(ctx context.Context, query *repository.ListQuery) ([]models.Credit, int64, error) {
	return s.repo.List(ctx, query)
}

// Accrual computes a credit's accrued interest payable at asOf. A zero asOf
// means today.
func (s *CreditService) Accrual(ctx context.Context, id uint, asOf time.Time) (*CreditAccrual, error) {
	credit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if asOf.IsZero() {
		asOf = s.today()
	}
	asOf = datemath.Date(asOf)

	accrued := credit.AccruedInterest(asOf)
	return &CreditAccrual{
		CreditID:           credit.ID,
		AsOf:               datemath.FormatISODate(asOf),
		DaysElapsed:        accrual.DaysElapsed(credit.StartDate, asOf, credit.AccrualEndDate()),
		InterestPaidOut:    credit.InterestPaidOut,
		AccruedInterest:    money.Round(accrued),
		RemainingPrincipal: credit.RemainingPrincipal,
		CurrentValue:       money.Round(accrual.CurrentValue(credit.RemainingPrincipal, accrued)),
		MaturityValue:      money.Round(accrual.MaturityValue(credit.Principal, credit.InterestRate, credit.TenureMonths)),
		Status:             lifecycle.DeriveCreditStatus(*credit, asOf),
	}, nil
}

// RecordPayout persists a payout and folds it into the credit. Paying out the
// remaining principal withdraws the credit.
func (s *CreditService) RecordPayout(ctx context.Context, id uint, input PayoutInput, userID uint) (*models.Credit, error) {
	paidAt, err := parseDate("paid_at", input.PaidAt)
	if err != nil {
		return nil, err
	}
	if paidAt.After(s.today()) {
		return nil, validationError("paid_at cannot be in the future")
	}

	var before string
	credit, err := s.repo.RecordPayout(ctx, id, func(locked *models.Credit) (*models.Payout, error) {
		if paidAt.Before(datemath.Date(locked.StartDate)) {
			return nil, validationError("paid_at cannot precede start_date")
		}
		payout := &models.Payout{
			PrincipalAmount: input.PrincipalAmount,
			InterestAmount:  input.InterestAmount,
			PayoutType:      input.PayoutType,
			PaidAt:          paidAt,
			Note:            input.Note,
		}
		if userID != 0 {
			payout.RecordedByID = &userID
		}
		before = locked.Status
		updated, err := lifecycle.ApplyPayout(*locked, *payout)
		if err != nil {
			return nil, err
		}
		if updated.MayWithdraw() {
			if err := statemachine.NewCreditFSM(&updated).Withdraw(ctx, paidAt); err != nil {
				return nil, err
			}
		}
		*locked = updated
		return payout, nil
	})
	metrics.IncRecording("payout", err)
	if err != nil {
		return nil, notFound(err)
	}

	if credit.Status != before {
		metrics.IncStatusTransition("credit", credit.Status)
	}
	s.audit.Log(ctx, userID, models.AuditActionPayout, "Credit", credit.ID, input)
	return credit, nil
}

// SweepStatuses moves active credits whose tenure has elapsed to matured
func (s *CreditService) SweepStatuses(ctx context.Context) (*SweepResult, error) {
	credits, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active credits: %w", err)
	}

	asOf := s.today()
	result := &SweepResult{}
	for i := range credits {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		credit := &credits[i]
		result.Checked++
		if !credit.MayMature(asOf) {
			continue
		}

		if err := statemachine.NewCreditFSM(credit).Mature(ctx, asOf); err != nil {
			result.Errors++
			logger.Warn("Cannot mature credit", slog.Any("credit_id", credit.ID), slog.String("error", err.Error()))
			continue
		}
		if err := s.repo.Update(ctx, credit); err != nil {
			result.Errors++
			logger.Error("Failed to save matured credit", slog.Any("credit_id", credit.ID), slog.String("error", err.Error()))
			continue
		}
		result.Transitions++
		metrics.IncStatusTransition("credit", credit.Status)
	}

	logger.Info("Credit status sweep finished",
		slog.Int("checked", result.Checked),
		slog.Int("transitions", result.Transitions),
		slog.Int("errors", result.Errors))
	return result, nil
}
