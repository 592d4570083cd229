package services

import (
	"context"

	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/repository"
	"gorm.io/gorm"
)

// Mock LoanRepository
type mockLoanRepository struct {
	repository.LoanRepository
	loans      map[uint]*models.Loan
	repayments []models.Repayment
	updated    []models.Loan
	nextID     uint
}

func newMockLoanRepository(loans ...models.Loan) *mockLoanRepository {
	m := &mockLoanRepository{loans: map[uint]*models.Loan{}, nextID: 1}
	for i := range loans {
		loan := loans[i]
		m.loans[loan.ID] = &loan
		if loan.ID >= m.nextID {
			m.nextID = loan.ID + 1
		}
	}
	return m
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *loan
	return &copied, nil
}

func (m *mockLoanRepository) FindByIDWithRepayments(ctx context.Context, id uint) (*models.Loan, error) {
	return m.FindByID(ctx, id)
}

func (m *mockLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	loan.ID = m.nextID
	m.nextID++
	copied := *loan
	m.loans[loan.ID] = &copied
	return nil
}

func (m *mockLoanRepository) Update(ctx context.Context, loan *models.Loan) error {
	copied := *loan
	m.loans[loan.ID] = &copied
	m.updated = append(m.updated, copied)
	return nil
}

func (m *mockLoanRepository) FindOpen(ctx context.Context) ([]models.Loan, error) {
	var open []models.Loan
	for _, loan := range m.loans {
		if loan.IsOpen() && !loan.Archived {
			open = append(open, *loan)
		}
	}
	return open, nil
}

func (m *mockLoanRepository) RecordRepayment(ctx context.Context, id uint, apply repository.RepaymentFunc) (*models.Loan, error) {
	loan, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	repayment, err := apply(loan)
	if err != nil {
		return nil, err
	}
	repayment.LoanID = loan.ID
	m.repayments = append(m.repayments, *repayment)
	m.loans[id] = loan
	return loan, nil
}

// Mock CreditRepository
type mockCreditRepository struct {
	repository.CreditRepository
	credits map[uint]*models.Credit
	payouts []models.Payout
	nextID  uint
}

func newMockCreditRepository(credits ...models.Credit) *mockCreditRepository {
	m := &mockCreditRepository{credits: map[uint]*models.Credit{}, nextID: 1}
	for i := range credits {
		credit := credits[i]
		m.credits[credit.ID] = &credit
		if credit.ID >= m.nextID {
			m.nextID = credit.ID + 1
		}
	}
	return m
}

func (m *mockCreditRepository) FindByID(ctx context.Context, id uint) (*models.Credit, error) {
	credit, ok := m.credits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *credit
	return &copied, nil
}

func (m *mockCreditRepository) FindByIDWithPayouts(ctx context.Context, id uint) (*models.Credit, error) {
	return m.FindByID(ctx, id)
}

func (m *mockCreditRepository) Create(ctx context.Context, credit *models.Credit) error {
	credit.ID = m.nextID
	m.nextID++
	copied := *credit
	m.credits[credit.ID] = &copied
	return nil
}

func (m *mockCreditRepository) Update(ctx context.Context, credit *models.Credit) error {
	copied := *credit
	m.credits[credit.ID] = &copied
	return nil
}

func (m *mockCreditRepository) FindActive(ctx context.Context) ([]models.Credit, error) {
	var active []models.Credit
	for _, credit := range m.credits {
		if credit.Status == models.CreditStatusActive {
			active = append(active, *credit)
		}
	}
	return active, nil
}

func (m *mockCreditRepository) RecordPayout(ctx context.Context, id uint, apply repository.PayoutFunc) (*models.Credit, error) {
	credit, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payout, err := apply(credit)
	if err != nil {
		return nil, err
	}
	payout.CreditID = credit.ID
	m.payouts = append(m.payouts, *payout)
	m.credits[id] = credit
	return credit, nil
}

// Mock BadDebtRepository
type mockBadDebtRepository struct {
	repository.BadDebtRepository
	debts      map[uint]*models.BadDebt
	recoveries []models.BadDebtRecovery
	nextID     uint
	createErr  error
}

func newMockBadDebtRepository(debts ...models.BadDebt) *mockBadDebtRepository {
	m := &mockBadDebtRepository{debts: map[uint]*models.BadDebt{}, nextID: 1}
	for i := range debts {
		debt := debts[i]
		m.debts[debt.ID] = &debt
		if debt.ID >= m.nextID {
			m.nextID = debt.ID + 1
		}
	}
	return m
}

func (m *mockBadDebtRepository) FindByID(ctx context.Context, id uint) (*models.BadDebt, error) {
	debt, ok := m.debts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *debt
	return &copied, nil
}

func (m *mockBadDebtRepository) FindByLoanID(ctx context.Context, loanID uint) (*models.BadDebt, error) {
	for _, debt := range m.debts {
		if debt.LoanID == loanID {
			copied := *debt
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBadDebtRepository) Create(ctx context.Context, debt *models.BadDebt) error {
	if m.createErr != nil {
		return m.createErr
	}
	debt.ID = m.nextID
	m.nextID++
	copied := *debt
	m.debts[debt.ID] = &copied
	return nil
}

func (m *mockBadDebtRepository) RecordRecovery(ctx context.Context, id uint, apply repository.RecoveryFunc) (*models.BadDebt, error) {
	debt, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	recovery, err := apply(debt)
	if err != nil {
		return nil, err
	}
	recovery.BadDebtID = debt.ID
	m.recoveries = append(m.recoveries, *recovery)
	m.debts[id] = debt
	return debt, nil
}

// Mock AuditRepository
type mockAuditRepository struct {
	entries []models.AuditLog
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepository) FindByEntity(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, e := range m.entries {
		if e.Entity == entity && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Mock SnapshotReader
type mockSnapshotReader struct {
	snapshot repository.Snapshot
	err      error
	reads    int
}

func (m *mockSnapshotReader) Read(ctx context.Context) (*repository.Snapshot, error) {
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	snap := m.snapshot
	return &snap, nil
}
