package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/lifecycle"
	"github.com/sjperalta/fintera-lending/internal/finance/schedule"
	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// monthlyLoan is 100000 at 12% over 12 months, disbursed 2024-01-15, with two
// installments' worth repaid
func monthlyLoan() models.Loan {
	return models.Loan{
		ID:                 1,
		Reference:          "loan-1",
		DebtorName:         "Juan Perez",
		Principal:          dec("100000"),
		InterestRate:       dec("12"),
		TenureMonths:       12,
		OriginationDate:    date(2024, 1, 15),
		DisbursementDate:   date(2024, 1, 15),
		RepaymentCycle:     schedule.CycleMonthly,
		MaturityDate:       date(2025, 1, 15),
		FirstRepaymentDate: date(2024, 2, 15),
		Status:             models.LoanStatusPerforming,
		AmountRepaid:       dec("20000"),
		InterestRepaid:     dec("2000"),
	}
}

func newTestLoanService(loans ...models.Loan) (*LoanService, *mockLoanRepository, *mockAuditRepository) {
	repo := newMockLoanRepository(loans...)
	audit := &mockAuditRepository{}
	svc := NewLoanService(repo, NewAuditService(audit), lifecycle.DefaultDelinquencyPolicy(), false)
	svc.now = fixedNow(date(2024, 7, 15))
	return svc, repo, audit
}

func TestLoanService_Create(t *testing.T) {
	svc, repo, audit := newTestLoanService()

	loan, err := svc.Create(context.Background(), CreateLoanInput{
		DebtorName:      "  Juan Perez ",
		Principal:       dec("100000"),
		InterestRate:    dec("12"),
		TenureMonths:    12,
		RepaymentCycle:  "monthly",
		OriginationDate: "2024-01-15",
	}, 7)

	require.NoError(t, err)
	assert.Equal(t, "Juan Perez", loan.DebtorName)
	assert.Equal(t, date(2025, 1, 15), loan.MaturityDate)
	assert.Equal(t, date(2024, 2, 15), loan.FirstRepaymentDate)
	assert.Equal(t, date(2024, 1, 15), loan.DisbursementDate)
	assert.Equal(t, models.LoanStatusPerforming, loan.Status)
	assert.NotEmpty(t, loan.Reference)
	assert.Contains(t, repo.loans, loan.ID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionCreate, audit.entries[0].Action)
	assert.Equal(t, uint(7), audit.entries[0].UserID)
}

func TestLoanService_CreateValidation(t *testing.T) {
	valid := func() CreateLoanInput {
		return CreateLoanInput{
			DebtorName:      "Juan Perez",
			Principal:       dec("1000"),
			InterestRate:    dec("10"),
			TenureMonths:    6,
			RepaymentCycle:  "monthly",
			OriginationDate: "2024-01-15",
		}
	}

	tests := []struct {
		name    string
		mutate  func(in *CreateLoanInput)
		wantErr error
	}{
		{"missing debtor", func(in *CreateLoanInput) { in.DebtorName = " " }, ErrValidation},
		{"zero principal", func(in *CreateLoanInput) { in.Principal = decimal.Zero }, ErrValidation},
		{"rate above 100", func(in *CreateLoanInput) { in.InterestRate = dec("100.5") }, ErrValidation},
		{"negative rate", func(in *CreateLoanInput) { in.InterestRate = dec("-1") }, ErrValidation},
		{"bad origination", func(in *CreateLoanInput) { in.OriginationDate = "15/01/2024" }, ErrValidation},
		{"disbursed before origination", func(in *CreateLoanInput) { in.DisbursementDate = "2024-01-10" }, ErrValidation},
		{"unknown cycle", func(in *CreateLoanInput) { in.RepaymentCycle = "weekly" }, schedule.ErrScheduleUnavailable},
		{"zero tenure", func(in *CreateLoanInput) { in.TenureMonths = 0 }, schedule.ErrScheduleUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestLoanService()
			input := valid()
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), input, 1)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.loans)
		})
	}
}

func TestLoanService_UpdateReschedules(t *testing.T) {
	svc, _, _ := newTestLoanService(monthlyLoan())

	tenure := 6
	cycle := "bullet"
	loan, err := svc.Update(context.Background(), 1, UpdateLoanInput{TenureMonths: &tenure, RepaymentCycle: &cycle}, 1)

	require.NoError(t, err)
	assert.Equal(t, date(2024, 7, 15), loan.MaturityDate)
	assert.Equal(t, date(2024, 7, 15), loan.FirstRepaymentDate)
}

func TestLoanService_UpdateRejects(t *testing.T) {
	t.Run("principal below repaid", func(t *testing.T) {
		svc, _, _ := newTestLoanService(monthlyLoan())
		principal := dec("15000")
		_, err := svc.Update(context.Background(), 1, UpdateLoanInput{Principal: &principal}, 1)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("closed loan", func(t *testing.T) {
		loan := monthlyLoan()
		loan.Status = models.LoanStatusPreliquidated
		svc, _, _ := newTestLoanService(loan)
		name := "Otro"
		_, err := svc.Update(context.Background(), 1, UpdateLoanInput{DebtorName: &name}, 1)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("missing loan", func(t *testing.T) {
		svc, _, _ := newTestLoanService()
		_, err := svc.Update(context.Background(), 9, UpdateLoanInput{}, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLoanService_Schedule(t *testing.T) {
	svc, _, _ := newTestLoanService(monthlyLoan())

	plan, err := svc.Schedule(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, plan.Installments, 12)
	assert.Equal(t, 12, plan.Summary.Count)
	assertDecimal(t, "100000", plan.Summary.TotalPrincipal)
	assertDecimal(t, "12000", plan.Summary.TotalInterest)
	assertDecimal(t, "8333.33", plan.Installments[0].Principal)
	assertDecimal(t, "1000", plan.Installments[0].Interest)
}

func TestLoanService_Accrual(t *testing.T) {
	svc, _, _ := newTestLoanService(monthlyLoan())

	result, err := svc.Accrual(context.Background(), 1, time.Time{})

	require.NoError(t, err)
	assert.Equal(t, "2024-07-15", result.AsOf)
	assert.Equal(t, 182, result.DaysElapsed)
	assertDecimal(t, "5983.56", result.GrossInterest)
	assertDecimal(t, "2000", result.InterestSettled)
	assertDecimal(t, "3983.56", result.AccruedInterest)
	assertDecimal(t, "80000", result.OutstandingPrincipal)
	assertDecimal(t, "83983.56", result.CurrentValue)
	assertDecimal(t, "112000", result.MaturityValue)

	// 22000 paid covers two installments of 9333.33; the third fell due on 2024-04-15
	require.NotNil(t, result.Delinquency.OldestUnpaid)
	assert.Equal(t, 3, result.Delinquency.OldestUnpaid.Number)
	assert.Equal(t, 91, result.Delinquency.DaysPastDue)
	assert.Equal(t, models.LoanStatusNonPerforming, result.Delinquency.Status)
}

func TestLoanService_AccrualFrozenAfterMaturity(t *testing.T) {
	svc, _, _ := newTestLoanService(monthlyLoan())

	atMaturity, err := svc.Accrual(context.Background(), 1, date(2025, 1, 15))
	require.NoError(t, err)
	later, err := svc.Accrual(context.Background(), 1, date(2026, 3, 1))
	require.NoError(t, err)

	assert.Equal(t, atMaturity.DaysElapsed, later.DaysElapsed)
	assert.True(t, atMaturity.AccruedInterest.Equal(later.AccruedInterest))
}

func TestLoanService_RecordRepayment(t *testing.T) {
	t.Run("partial repayment keeps the loan open", func(t *testing.T) {
		svc, repo, audit := newTestLoanService(monthlyLoan())

		loan, err := svc.RecordRepayment(context.Background(), 1, RepaymentInput{
			PrincipalAmount: dec("8333.33"),
			InterestAmount:  dec("1000"),
			PaidAt:          "2024-07-10",
		}, 3)

		require.NoError(t, err)
		assertDecimal(t, "28333.33", loan.AmountRepaid)
		assertDecimal(t, "3000", loan.InterestRepaid)
		assert.Equal(t, models.LoanStatusPerforming, loan.Status)
		require.Len(t, repo.repayments, 1)
		assert.Equal(t, uint(1), repo.repayments[0].LoanID)
		require.NotNil(t, repo.repayments[0].RecordedByID)
		assert.Equal(t, uint(3), *repo.repayments[0].RecordedByID)
		require.Len(t, audit.entries, 1)
		assert.Equal(t, models.AuditActionRepayment, audit.entries[0].Action)
	})

	t.Run("full repayment preliquidates", func(t *testing.T) {
		svc, repo, _ := newTestLoanService(monthlyLoan())

		loan, err := svc.RecordRepayment(context.Background(), 1, RepaymentInput{
			PrincipalAmount: dec("80000"),
			InterestAmount:  dec("3983.56"),
			PaidAt:          "2024-07-15",
		}, 1)

		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusPreliquidated, loan.Status)
		require.NotNil(t, loan.ClosedAt)
		assert.Equal(t, date(2024, 7, 15), *loan.ClosedAt)
		assert.Equal(t, models.LoanStatusPreliquidated, repo.loans[1].Status)

		accrued, err := svc.Accrual(context.Background(), 1, date(2024, 12, 1))
		require.NoError(t, err)
		assertDecimal(t, "0", accrued.AccruedInterest)
		assertDecimal(t, "0", accrued.CurrentValue)
	})

	tests := []struct {
		name    string
		input   RepaymentInput
		loan    func() models.Loan
		id      uint
		wantErr error
	}{
		{
			name:    "future date",
			input:   RepaymentInput{PrincipalAmount: dec("10"), PaidAt: "2024-08-01"},
			wantErr: ErrValidation,
		},
		{
			name:    "before disbursement",
			input:   RepaymentInput{PrincipalAmount: dec("10"), PaidAt: "2024-01-01"},
			wantErr: ErrValidation,
		},
		{
			name:    "missing date",
			input:   RepaymentInput{PrincipalAmount: dec("10")},
			wantErr: ErrValidation,
		},
		{
			name:    "zero amounts",
			input:   RepaymentInput{PaidAt: "2024-07-01"},
			wantErr: lifecycle.ErrInvalidAmount,
		},
		{
			name:    "above outstanding principal",
			input:   RepaymentInput{PrincipalAmount: dec("80000.01"), PaidAt: "2024-07-01"},
			wantErr: lifecycle.ErrRepaymentExceedsPrincipal,
		},
		{
			name:  "closed loan",
			input: RepaymentInput{InterestAmount: dec("10"), PaidAt: "2024-07-01"},
			loan: func() models.Loan {
				l := monthlyLoan()
				l.Status = models.LoanStatusFullProvision
				return l
			},
			wantErr: lifecycle.ErrContractClosed,
		},
		{
			name:    "missing loan",
			input:   RepaymentInput{PrincipalAmount: dec("10"), PaidAt: "2024-07-01"},
			id:      42,
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := monthlyLoan()
			if tt.loan != nil {
				loan = tt.loan()
			}
			svc, repo, audit := newTestLoanService(loan)
			id := tt.id
			if id == 0 {
				id = 1
			}

			_, err := svc.RecordRepayment(context.Background(), id, tt.input, 1)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.repayments)
			assert.Empty(t, audit.entries)
			assertDecimal(t, "20000", repo.loans[1].AmountRepaid)
		})
	}
}

func TestLoanService_ChangeStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		event      string
		wantStatus string
		wantErr    error
	}{
		{"flag performing loan", models.LoanStatusPerforming, statemachine.EventFlagNonPerforming, models.LoanStatusNonPerforming, nil},
		{"flag legacy active loan", models.LoanStatusLegacyActive, statemachine.EventFlagNonPerforming, models.LoanStatusNonPerforming, nil},
		{"provision non performing", models.LoanStatusNonPerforming, statemachine.EventProvision, models.LoanStatusFullProvision, nil},
		{"cure non performing", models.LoanStatusNonPerforming, statemachine.EventCure, models.LoanStatusPerforming, nil},
		{"provision performing", models.LoanStatusPerforming, statemachine.EventProvision, "", statemachine.ErrTransitionNotAllowed},
		{"preliquidate with principal outstanding", models.LoanStatusPerforming, statemachine.EventPreliquidate, "", statemachine.ErrTransitionNotAllowed},
		{"unknown event", models.LoanStatusPerforming, "write_off", "", statemachine.ErrTransitionNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := monthlyLoan()
			loan.Status = tt.status
			svc, repo, audit := newTestLoanService(loan)

			updated, err := svc.ChangeStatus(context.Background(), 1, tt.event, 1)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, updated.Status)
			assert.Equal(t, tt.wantStatus, repo.loans[1].Status)
			require.Len(t, audit.entries, 1)
			assert.Equal(t, models.AuditActionStatus, audit.entries[0].Action)
		})
	}
}

func TestLoanService_ChangeStatusArchived(t *testing.T) {
	loan := monthlyLoan()
	loan.Archived = true
	svc, _, _ := newTestLoanService(loan)

	_, err := svc.ChangeStatus(context.Background(), 1, statemachine.EventFlagNonPerforming, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLoanService_Archive(t *testing.T) {
	svc, repo, _ := newTestLoanService(monthlyLoan())

	loan, err := svc.Archive(context.Background(), 1, 1)

	require.NoError(t, err)
	assert.True(t, loan.Archived)
	require.NotNil(t, loan.ArchivedAt)
	assert.True(t, repo.loans[1].Archived)

	again, err := svc.Archive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.True(t, again.Archived)
	assert.Len(t, repo.updated, 1)
}

func TestLoanService_SweepStatuses(t *testing.T) {
	current := monthlyLoan()
	current.ID = 2
	current.AmountRepaid = dec("50000")
	current.InterestRepaid = dec("6000")

	t.Run("suggests without auto classification", func(t *testing.T) {
		svc, repo, _ := newTestLoanService(monthlyLoan(), current)

		result, err := svc.SweepStatuses(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, result.Checked)
		assert.Equal(t, 1, result.Suggestions)
		assert.Equal(t, 0, result.Transitions)
		assert.Empty(t, repo.updated)
		assert.Equal(t, models.LoanStatusPerforming, repo.loans[1].Status)
	})

	t.Run("escalates with auto classification", func(t *testing.T) {
		svc, repo, audit := newTestLoanService(monthlyLoan(), current)
		svc.autoClassify = true

		result, err := svc.SweepStatuses(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Transitions)
		assert.Equal(t, models.LoanStatusNonPerforming, repo.loans[1].Status)
		assert.Equal(t, models.LoanStatusPerforming, repo.loans[2].Status)
		require.Len(t, audit.entries, 1)
		assert.Equal(t, uint(0), audit.entries[0].UserID)
	})

	t.Run("escalates through to full provision", func(t *testing.T) {
		stale := monthlyLoan()
		stale.AmountRepaid = decimal.Zero
		stale.InterestRepaid = decimal.Zero
		svc, repo, _ := newTestLoanService(stale)
		svc.autoClassify = true
		svc.now = fixedNow(date(2024, 9, 1))

		_, err := svc.SweepStatuses(context.Background())

		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusFullProvision, repo.loans[1].Status)
	})

	t.Run("never de-escalates", func(t *testing.T) {
		provisioned := current
		provisioned.Status = models.LoanStatusNonPerforming
		svc, repo, _ := newTestLoanService(provisioned)
		svc.autoClassify = true

		result, err := svc.SweepStatuses(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, result.Transitions)
		assert.Equal(t, models.LoanStatusNonPerforming, repo.loans[2].Status)
	})
}
