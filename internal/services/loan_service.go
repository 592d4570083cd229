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

var maxInterestRate = decimal.NewFromInt(100)

// CreateLoanInput is the payload for disbursing a loan
type CreateLoanInput struct {
	DebtorName       string          `json:"debtor_name" binding:"required"`
	Principal        decimal.Decimal `json:"principal" binding:"required" swaggertype:"string" example:"100000.00"`
	InterestRate     decimal.Decimal `json:"interest_rate" binding:"required" swaggertype:"string" example:"12"`
	TenureMonths     int             `json:"tenure_months" binding:"required" example:"12"`
	RepaymentCycle   string          `json:"repayment_cycle" binding:"required" example:"monthly"`
	OriginationDate  string          `json:"origination_date" binding:"required" example:"2024-01-15"`
	DisbursementDate string          `json:"disbursement_date" example:"2024-01-15"`
	Notes            *string         `json:"notes"`
}

// UpdateLoanInput reschedules a loan. Omitted fields keep their value.
type UpdateLoanInput struct {
	DebtorName       *string          `json:"debtor_name"`
	Principal        *decimal.Decimal `json:"principal" swaggertype:"string"`
	InterestRate     *decimal.Decimal `json:"interest_rate" swaggertype:"string"`
	TenureMonths     *int             `json:"tenure_months"`
	RepaymentCycle   *string          `json:"repayment_cycle"`
	OriginationDate  *string          `json:"origination_date"`
	DisbursementDate *string          `json:"disbursement_date"`
	Notes            *string          `json:"notes"`
}

// RepaymentInput records money received against a loan
type RepaymentInput struct {
	PrincipalAmount decimal.Decimal `json:"principal_amount" swaggertype:"string" example:"8333.33"`
	InterestAmount  decimal.Decimal `json:"interest_amount" swaggertype:"string" example:"1000.00"`
	PaidAt          string          `json:"paid_at" binding:"required" example:"2024-02-15"`
	Note            *string         `json:"note"`
}

// LoanAccrual is the accrual breakdown of a loan at a date
type LoanAccrual struct {
	LoanID               uint                  `json:"loan_id"`
	AsOf                 string                `json:"as_of"`
	DaysElapsed          int                   `json:"days_elapsed"`
	GrossInterest        decimal.Decimal       `json:"gross_interest"`
	InterestSettled      decimal.Decimal       `json:"interest_settled"`
	AccruedInterest      decimal.Decimal       `json:"accrued_interest"`
	OutstandingPrincipal decimal.Decimal       `json:"outstanding_principal"`
	CurrentValue         decimal.Decimal       `json:"current_value"`
	MaturityValue        decimal.Decimal       `json:"maturity_value"`
	Delinquency          lifecycle.Delinquency `json:"delinquency"`
}

// LoanSchedule is a loan's installment plan
type LoanSchedule struct {
	LoanID       uint                   `json:"loan_id"`
	Installments []schedule.Installment `json:"installments"`
	Summary      schedule.Summary       `json:"summary"`
}

// SweepResult summarizes one status sweep
type SweepResult struct {
	Checked     int `json:"checked"`
	Transitions int `json:"transitions"`
	Suggestions int `json:"suggestions"`
	Errors      int `json:"errors"`
}

type LoanService struct {
	repo         repository.LoanRepository
	audit        *AuditService
	policy       lifecycle.DelinquencyPolicy
	autoClassify bool
	now          func() time.Time
}

func NewLoanService(repo repository.LoanRepository, audit *AuditService, policy lifecycle.DelinquencyPolicy, autoClassify bool) *LoanService {
	return &LoanService{
		repo:         repo,
		audit:        audit,
		policy:       policy,
		autoClassify: autoClassify,
		now:          time.Now,
	}
}

func (s *LoanService) today() time.Time {
	return datemath.Date(s.now())
}

// Create validates the input, freezes the loan's maturity and first
// repayment dates and persists it as performing
func (s *LoanService) Create(ctx context.Context, input CreateLoanInput, userID uint) (*models.Loan, error) {
	loan := &models.Loan{
		Reference:      uuid.New().String(),
		DebtorName:     strings.TrimSpace(input.DebtorName),
		Principal:      input.Principal,
		InterestRate:   input.InterestRate,
		TenureMonths:   input.TenureMonths,
		RepaymentCycle: schedule.Cycle(input.RepaymentCycle),
		Status:         models.LoanStatusPerforming,
		AmountRepaid:   decimal.Zero,
		InterestRepaid: decimal.Zero,
		Notes:          input.Notes,
	}

	var err error
	if loan.OriginationDate, err = parseDate("origination_date", input.OriginationDate); err != nil {
		return nil, err
	}
	loan.DisbursementDate = loan.OriginationDate
	if input.DisbursementDate != "" {
		if loan.DisbursementDate, err = parseDate("disbursement_date", input.DisbursementDate); err != nil {
			return nil, err
		}
	}

	if err := s.plan(loan); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	logger.Info("Loan created", slog.Any("loan_id", loan.ID), slog.String("reference", loan.Reference))
	s.audit.Log(ctx, userID, models.AuditActionCreate, "Loan", loan.ID, input)
	return loan, nil
}

// Update changes a loan's terms and recomputes its schedule dates. Only open
// loans can be rescheduled.
func (s *LoanService) Update(ctx context.Context, id uint, input UpdateLoanInput, userID uint) (*models.Loan, error) {
	loan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !loan.IsOpen() || loan.Archived {
		return nil, fmt.Errorf("%w: loan is %s", ErrInvalidState, loan.CanonicalStatus())
	}

	if input.DebtorName != nil {
		loan.DebtorName = strings.TrimSpace(*input.DebtorName)
	}
	if input.Principal != nil {
		loan.Principal = *input.Principal
	}
	if input.InterestRate != nil {
		loan.InterestRate = *input.InterestRate
	}
	if input.TenureMonths != nil {
		loan.TenureMonths = *input.TenureMonths
	}
	if input.RepaymentCycle != nil {
		loan.RepaymentCycle = schedule.Cycle(*input.RepaymentCycle)
	}
	if input.OriginationDate != nil {
		if loan.OriginationDate, err = parseDate("origination_date", *input.OriginationDate); err != nil {
			return nil, err
		}
	}
	if input.DisbursementDate != nil {
		if loan.DisbursementDate, err = parseDate("disbursement_date", *input.DisbursementDate); err != nil {
			return nil, err
		}
	}
	if input.Notes != nil {
		loan.Notes = input.Notes
	}

	if loan.AmountRepaid.GreaterThan(loan.Principal) {
		return nil, validationError("principal cannot be below the amount already repaid (%s)", loan.AmountRepaid.StringFixed(2))
	}
	if err := s.plan(loan); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}

	s.audit.Log(ctx, userID, models.AuditActionUpdate, "Loan", loan.ID, input)
	return loan, nil
}

// plan validates the loan terms and stores the derived schedule dates
func (s *LoanService) plan(loan *models.Loan) error {
	if loan.DebtorName == "" {
		return validationError("debtor_name is required")
	}
	if !loan.Principal.IsPositive() {
		return validationError("principal must be positive")
	}
	if loan.InterestRate.IsNegative() || loan.InterestRate.GreaterThan(maxInterestRate) {
		return validationError("interest_rate must be between 0 and 100")
	}
	if loan.DisbursementDate.Before(loan.OriginationDate) {
		return validationError("disbursement_date cannot precede origination_date")
	}

	plan, err := schedule.NewPlan(loan.OriginationDate, loan.TenureMonths, loan.RepaymentCycle)
	if err != nil {
		return err
	}
	loan.MaturityDate = plan.MaturityDate
	loan.FirstRepaymentDate = plan.FirstRepaymentDate
	return nil
}

// Get returns a loan with its repayments
func (s *LoanService) Get(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.repo.FindByIDWithRepayments(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return loan, nil
}

// List returns a page of loans
func (s *LoanService) List(ctx context.Context, query *repository.ListQuery) ([]models.Loan, int64, error) {
	return s.repo.List(ctx, query)
}

// Schedule regenerates a loan's installment plan
func (s *LoanService) Schedule(ctx context.Context, id uint) (*LoanSchedule, error) {
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	installments, err := loan.Schedule()
	if err != nil {
		return nil, err
	}
	return &LoanSchedule{
		LoanID:       loan.ID,
		Installments: installments,
		Summary:      schedule.Summarize(installments),
	}, nil
}

// Accrual computes a loan's accrued interest and values at asOf. A zero
// asOf means today.
func (s *LoanService) Accrual(ctx context.Context, id uint, asOf time.Time) (*LoanAccrual, error) {
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if asOf.IsZero() {
		asOf = s.today()
	}
	asOf = datemath.Date(asOf)

	accrued := loan.AccruedInterest(asOf)
	result := &LoanAccrual{
		LoanID:               loan.ID,
		AsOf:                 datemath.FormatISODate(asOf),
		DaysElapsed:          accrual.DaysElapsed(loan.DisbursementDate, asOf, loan.AccrualEndDate()),
		GrossInterest:        money.Round(accrued.Add(loan.InterestRepaid)),
		InterestSettled:      loan.InterestRepaid,
		AccruedInterest:      money.Round(accrued),
		OutstandingPrincipal: money.Round(loan.OutstandingPrincipal()),
		CurrentValue:         money.Round(accrual.CurrentValue(loan.OutstandingPrincipal(), accrued)),
		MaturityValue:        money.Round(accrual.MaturityValue(loan.Principal, loan.InterestRate, loan.TenureMonths)),
	}

	if loan.IsOpen() {
		if d, err := lifecycle.ClassifyLoan(*loan, asOf, s.policy); err == nil {
			result.Delinquency = d
		}
	} else {
		result.Delinquency = lifecycle.Delinquency{Status: loan.CanonicalStatus()}
	}
	return result, nil
}

// RecordRepayment persists a repayment and folds it into the loan. A loan
// whose principal becomes fully repaid is preliquidated.
func (s *LoanService) RecordRepayment(ctx context.Context, id uint, input RepaymentInput, userID uint) (*models.Loan, error) {
	paidAt, err := parseDate("paid_at", input.PaidAt)
	if err != nil {
		return nil, err
	}
	if paidAt.After(s.today()) {
		return nil, validationError("paid_at cannot be in the future")
	}

	var before string
	loan, err := s.repo.RecordRepayment(ctx, id, func(locked *models.Loan) (*models.Repayment, error) {
		if paidAt.Before(datemath.Date(locked.DisbursementDate)) {
			return nil, validationError("paid_at cannot precede disbursement_date")
		}
		repayment := &models.Repayment{
			PrincipalAmount: input.PrincipalAmount,
			InterestAmount:  input.InterestAmount,
			PaidAt:          paidAt,
			Note:            input.Note,
		}
		if userID != 0 {
			repayment.RecordedByID = &userID
		}
		before = locked.CanonicalStatus()
		updated, err := lifecycle.ApplyRepayment(*locked, *repayment)
		if err != nil {
			return nil, err
		}
		*locked = updated
		return repayment, nil
	})
	metrics.IncRecording("repayment", err)
	if err != nil {
		return nil, notFound(err)
	}

	if loan.Status != before {
		metrics.IncStatusTransition("loan", loan.Status)
		logger.Info("Loan status changed by repayment",
			slog.Any("loan_id", loan.ID), slog.String("from", before), slog.String("to", loan.Status))
	}
	s.audit.Log(ctx, userID, models.AuditActionRepayment, "Loan", loan.ID, input)
	return loan, nil
}

// ChangeStatus applies a staff status event to a loan
func (s *LoanService) ChangeStatus(ctx context.Context, id uint, event string, userID uint) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if loan.Archived {
		return nil, fmt.Errorf("%w: loan is archived", ErrInvalidState)
	}

	before := loan.CanonicalStatus()
	if err := statemachine.NewLoanFSM(loan).Fire(ctx, event, s.today()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to update loan status: %w", err)
	}

	metrics.IncStatusTransition("loan", loan.Status)
	s.audit.Log(ctx, userID, models.AuditActionStatus, "Loan", loan.ID, map[string]string{
		"event": event,
		"from":  before,
		"to":    loan.Status,
	})
	return loan, nil
}

// Archive soft-deletes a loan. Archived loans drop out of the balance sheet.
func (s *LoanService) Archive(ctx context.Context, id uint, userID uint) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if loan.Archived {
		return loan, nil
	}

	now := s.now()
	loan.Archived = true
	loan.ArchivedAt = &now
	if err := s.repo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to archive loan: %w", err)
	}

	s.audit.Log(ctx, userID, models.AuditActionArchive, "Loan", loan.ID, map[string]string{"status": loan.CanonicalStatus()})
	return loan, nil
}

// SweepStatuses classifies every open loan by days past due. Escalations are
// applied when auto classification is enabled and logged as suggestions
// otherwise. Loans are never de-escalated here.
func (s *LoanService) SweepStatuses(ctx context.Context) (*SweepResult, error) {
	loans, err := s.repo.FindOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load open loans: %w", err)
	}

	asOf := s.today()
	result := &SweepResult{}
	for i := range loans {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		loan := &loans[i]
		result.Checked++

		d, err := lifecycle.ClassifyLoan(*loan, asOf, s.policy)
		if err != nil {
			result.Errors++
			logger.Warn("Cannot classify loan", slog.Any("loan_id", loan.ID), slog.String("error", err.Error()))
			continue
		}

		current := loan.CanonicalStatus()
		if !lifecycle.IsEscalation(current, d.Status) {
			continue
		}

		if !s.autoClassify {
			result.Suggestions++
			logger.Info("Loan classification suggested",
				slog.Any("loan_id", loan.ID),
				slog.String("current", current),
				slog.String("suggested", d.Status),
				slog.Int("days_past_due", d.DaysPastDue))
			continue
		}

		if err := statemachine.NewLoanFSM(loan).EscalateTo(ctx, d.Status); err != nil {
			result.Errors++
			logger.Warn("Cannot escalate loan", slog.Any("loan_id", loan.ID), slog.String("error", err.Error()))
			continue
		}
		if err := s.repo.Update(ctx, loan); err != nil {
			result.Errors++
			logger.Error("Failed to save escalated loan", slog.Any("loan_id", loan.ID), slog.String("error", err.Error()))
			continue
		}
		result.Transitions++
		metrics.IncStatusTransition("loan", loan.Status)
		s.audit.Log(ctx, 0, models.AuditActionStatus, "Loan", loan.ID, map[string]any{
			"from":          current,
			"to":            loan.Status,
			"days_past_due": d.DaysPastDue,
			"automatic":     true,
		})
	}

	logger.Info("Loan status sweep finished",
		slog.Int("checked", result.Checked),
		slog.Int("transitions", result.Transitions),
		slog.Int("suggestions", result.Suggestions),
		slog.Int("errors", result.Errors))
	return result, nil
}

// parseDate parses a YYYY-MM-DD field value
func parseDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, validationError("%s is required", field)
	}
	t, err := datemath.ParseISODate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, validationError("%s must be YYYY-MM-DD", field)
	}
	return t, nil
}
