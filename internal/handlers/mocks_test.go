package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/schedule"
	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockLoanRepo struct {
	repository.LoanRepository
	loans     map[uint]models.Loan
	mockList  func(ctx context.Context, query *repository.ListQuery) ([]models.Loan, int64, error)
	failWrite error
}

func (m *mockLoanRepo) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &loan, nil
}

func (m *mockLoanRepo) FindByIDWithRepayments(ctx context.Context, id uint) (*models.Loan, error) {
	return m.FindByID(ctx, id)
}

func (m *mockLoanRepo) Create(ctx context.Context, loan *models.Loan) error {
	if m.failWrite != nil {
		return m.failWrite
	}
	loan.ID = uint(len(m.loans) + 1)
	m.loans[loan.ID] = *loan
	return nil
}

func (m *mockLoanRepo) Update(ctx context.Context, loan *models.Loan) error {
	if m.failWrite != nil {
		return m.failWrite
	}
	m.loans[loan.ID] = *loan
	return nil
}

func (m *mockLoanRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.Loan, int64, error) {
	return m.mockList(ctx, query)
}

func (m *mockLoanRepo) FindOpen(ctx context.Context) ([]models.Loan, error) {
	var open []models.Loan
	for _, loan := range m.loans {
		if loan.IsOpen() {
			open = append(open, loan)
		}
	}
	return open, nil
}

func (m *mockLoanRepo) RecordRepayment(ctx context.Context, id uint, apply repository.RepaymentFunc) (*models.Loan, error) {
	loan, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := apply(loan); err != nil {
		return nil, err
	}
	m.loans[id] = *loan
	return loan, nil
}

type mockCreditRepo struct {
	repository.CreditRepository
	credits  map[uint]models.Credit
	mockList func(ctx context.Context, query *repository.ListQuery) ([]models.Credit, int64, error)
}

func (m *mockCreditRepo) FindByID(ctx context.Context, id uint) (*models.Credit, error) {
	credit, ok := m.credits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &credit, nil
}

func (m *mockCreditRepo) FindByIDWithPayouts(ctx context.Context, id uint) (*models.Credit, error) {
	return m.FindByID(ctx, id)
}

func (m *mockCreditRepo) Create(ctx context.Context, credit *models.Credit) error {
	credit.ID = uint(len(m.credits) + 1)
	m.credits[credit.ID] = *credit
	return nil
}

func (m *mockCreditRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.Credit, int64, error) {
	return m.mockList(ctx, query)
}

func (m *mockCreditRepo) FindActive(ctx context.Context) ([]models.Credit, error) {
	var active []models.Credit
	for _, credit := range m.credits {
		if credit.Status == models.CreditStatusActive {
			active = append(active, credit)
		}
	}
	return active, nil
}

func (m *mockCreditRepo) RecordPayout(ctx context.Context, id uint, apply repository.PayoutFunc) (*models.Credit, error) {
	credit, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := apply(credit); err != nil {
		return nil, err
	}
	m.credits[id] = *credit
	return credit, nil
}

type mockBadDebtRepo struct {
	repository.BadDebtRepository
	debts    map[uint]models.BadDebt
	mockList func(ctx context.Context, query *repository.ListQuery) ([]models.BadDebt, int64, error)
}

func (m *mockBadDebtRepo) FindByID(ctx context.Context, id uint) (*models.BadDebt, error) {
	debt, ok := m.debts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &debt, nil
}

func (m *mockBadDebtRepo) FindByLoanID(ctx context.Context, loanID uint) (*models.BadDebt, error) {
	for _, debt := range m.debts {
		if debt.LoanID == loanID {
			return &debt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBadDebtRepo) Create(ctx context.Context, debt *models.BadDebt) error {
	debt.ID = uint(len(m.debts) + 1)
	m.debts[debt.ID] = *debt
	return nil
}

func (m *mockBadDebtRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.BadDebt, int64, error) {
	return m.mockList(ctx, query)
}

func (m *mockBadDebtRepo) RecordRecovery(ctx context.Context, id uint, apply repository.RecoveryFunc) (*models.BadDebt, error) {
	debt, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := apply(debt); err != nil {
		return nil, err
	}
	m.debts[id] = *debt
	return debt, nil
}

type mockAuditRepo struct {
	entries []models.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) FindByEntity(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, e := range m.entries {
		if e.Entity == entity && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockSnapshotReader struct {
	snapshot repository.Snapshot
	err      error
}

func (m *mockSnapshotReader) Read(ctx context.Context) (*repository.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	snap := m.snapshot
	return &snap, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testLoan is 100000 at 12% for 12 months, repaid monthly from 2024-01-15
func testLoan() models.Loan {
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
		AmountRepaid:       decimal.Zero,
		InterestRepaid:     decimal.Zero,
	}
}

// testCredit is 50000 placed at 10% for 12 months from 2024-01-01
func testCredit() models.Credit {
	return models.Credit{
		ID:                 1,
		Reference:          "credit-1",
		CreditorName:       "Maria Lopez",
		Principal:          dec("50000"),
		RemainingPrincipal: dec("50000"),
		InterestRate:       dec("10"),
		TenureMonths:       12,
		PayoutCycle:        schedule.CycleBullet,
		StartDate:          date(2024, 1, 1),
		EndDate:            date(2025, 1, 1),
		FirstPayoutDate:    date(2025, 1, 1),
		Status:             models.CreditStatusActive,
		TotalPaidOut:       decimal.Zero,
		InterestPaidOut:    decimal.Zero,
	}
}

// serve runs one request through a router holding a single route, with an
// authenticated officer in the context
func serve(t *testing.T, method, route, target string, handler gin.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", uint(9))
		c.Set("userRole", "officer")
		c.Next()
	})
	r.Handle(method, route, handler)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
