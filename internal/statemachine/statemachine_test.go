package statemachine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func loanWith(status string, repaid string) *models.Loan {
	return &models.Loan{
		Principal:    decimal.RequireFromString("20000"),
		AmountRepaid: decimal.RequireFromString(repaid),
		Status:       status,
	}
}

func TestLoanFSMTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		status   string
		repaid   string
		event    string
		expected string
		wantErr  bool
	}{
		{"flag performing", models.LoanStatusPerforming, "0", EventFlagNonPerforming, models.LoanStatusNonPerforming, false},
		{"flag legacy active", models.LoanStatusLegacyActive, "0", EventFlagNonPerforming, models.LoanStatusNonPerforming, false},
		{"provision non performing", models.LoanStatusNonPerforming, "0", EventProvision, models.LoanStatusFullProvision, false},
		{"provision legacy overdue", models.LoanStatusLegacyOverdue, "0", EventProvision, models.LoanStatusFullProvision, false},
		{"cure", models.LoanStatusNonPerforming, "0", EventCure, models.LoanStatusPerforming, false},
		{"preliquidate repaid", models.LoanStatusPerforming, "20000", EventPreliquidate, models.LoanStatusPreliquidated, false},
		{"provision performing", models.LoanStatusPerforming, "0", EventProvision, "", true},
		{"cure performing", models.LoanStatusPerforming, "0", EventCure, "", true},
		{"preliquidate with balance", models.LoanStatusPerforming, "19999.99", EventPreliquidate, "", true},
		{"flag full provision", models.LoanStatusFullProvision, "0", EventFlagNonPerforming, "", true},
		{"unknown event", models.LoanStatusPerforming, "0", "archive", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := loanWith(tt.status, tt.repaid)
			err := NewLoanFSM(loan).Fire(ctx, tt.event, date(2024, 9, 10))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTransitionNotAllowed)
				assert.Equal(t, tt.status, loan.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, loan.Status)
		})
	}
}

func TestPreliquidateSetsClosedDate(t *testing.T) {
	loan := loanWith(models.LoanStatusNonPerforming, "20000")
	require.NoError(t, NewLoanFSM(loan).Preliquidate(context.Background(), date(2024, 9, 10)))
	require.NotNil(t, loan.ClosedAt)
	assert.Equal(t, date(2024, 9, 10), *loan.ClosedAt)
}

func TestEscalateTo(t *testing.T) {
	ctx := context.Background()

	loan := loanWith(models.LoanStatusPerforming, "0")
	require.NoError(t, NewLoanFSM(loan).EscalateTo(ctx, models.LoanStatusFullProvision))
	assert.Equal(t, models.LoanStatusFullProvision, loan.Status)

	loan = loanWith(models.LoanStatusPerforming, "0")
	require.NoError(t, NewLoanFSM(loan).EscalateTo(ctx, models.LoanStatusNonPerforming))
	assert.Equal(t, models.LoanStatusNonPerforming, loan.Status)

	loan = loanWith(models.LoanStatusFullProvision, "0")
	err := NewLoanFSM(loan).EscalateTo(ctx, models.LoanStatusPerforming)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
}

func TestLoanFSMAvailableEvents(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		repaid   string
		archived bool
		want     []string
	}{
		{"performing", models.LoanStatusPerforming, "0", false, []string{EventFlagNonPerforming}},
		{"performing fully repaid", models.LoanStatusPerforming, "20000", false, []string{EventFlagNonPerforming, EventPreliquidate}},
		{"non performing", models.LoanStatusNonPerforming, "0", false, []string{EventProvision, EventCure}},
		{"legacy overdue", models.LoanStatusLegacyOverdue, "0", false, []string{EventProvision, EventCure}},
		{"full provision", models.LoanStatusFullProvision, "0", false, []string{}},
		{"archived", models.LoanStatusPerforming, "0", true, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := loanWith(tt.status, tt.repaid)
			loan.Archived = tt.archived
			assert.Equal(t, tt.want, NewLoanFSM(loan).AvailableEvents())
		})
	}
}

func TestCreditFSM(t *testing.T) {
	ctx := context.Background()
	newCredit := func(status, remaining string) *models.Credit {
		return &models.Credit{
			RemainingPrincipal: decimal.RequireFromString(remaining),
			EndDate:            date(2025, 1, 1),
			Status:             status,
		}
	}

	t.Run("mature after end date", func(t *testing.T) {
		credit := newCredit(models.CreditStatusActive, "50000")
		fsm := NewCreditFSM(credit)
		require.NoError(t, fsm.Mature(ctx, date(2025, 1, 1)))
		assert.Equal(t, models.CreditStatusMatured, fsm.Current())
		assert.Equal(t, models.CreditStatusMatured, credit.Status)
	})

	t.Run("mature before end date", func(t *testing.T) {
		credit := newCredit(models.CreditStatusActive, "50000")
		err := NewCreditFSM(credit).Mature(ctx, date(2024, 12, 31))
		assert.ErrorIs(t, err, ErrTransitionNotAllowed)
		assert.Equal(t, models.CreditStatusActive, credit.Status)
	})

	t.Run("withdraw matured credit", func(t *testing.T) {
		credit := newCredit(models.CreditStatusMatured, "0")
		require.NoError(t, NewCreditFSM(credit).Withdraw(ctx, date(2025, 1, 5)))
		assert.Equal(t, models.CreditStatusWithdrawn, credit.Status)
		require.NotNil(t, credit.WithdrawnAt)
		assert.Equal(t, date(2025, 1, 5), *credit.WithdrawnAt)
	})

	t.Run("withdraw with principal remaining", func(t *testing.T) {
		credit := newCredit(models.CreditStatusActive, "10")
		err := NewCreditFSM(credit).Withdraw(ctx, date(2025, 1, 5))
		assert.ErrorIs(t, err, ErrTransitionNotAllowed)
	})
}
