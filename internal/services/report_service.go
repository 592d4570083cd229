package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/lifecycle"
	"github.com/sjperalta/fintera-lending/internal/finance/money"
	"github.com/sjperalta/fintera-lending/internal/finance/snapshot"
	"github.com/sjperalta/fintera-lending/internal/metrics"
	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/repository"
	"github.com/sjperalta/fintera-lending/pkg/logger"
)

// PortfolioInput carries the optional portfolio filters as they arrive on the query string
type PortfolioInput struct {
	AsOf      string
	StartDate string
	EndDate   string
	Statuses  []string
}

type ReportService struct {
	snapshots repository.SnapshotReader
	policy    lifecycle.DelinquencyPolicy
	now       func() time.Time
	publish   func(lines map[string]decimal.Decimal)
}

func NewReportService(snapshots repository.SnapshotReader, policy lifecycle.DelinquencyPolicy) *ReportService {
	return &ReportService{
		snapshots: snapshots,
		policy:    policy,
		now:       time.Now,
		publish:   metrics.SetBalanceSheet,
	}
}

// asOfDate parses an optional as_of value, defaulting to today
func (s *ReportService) asOfDate(value string) (time.Time, error) {
	if value == "" {
		return datemath.Date(s.now()), nil
	}
	return parseDate("as_of", value)
}

// BalanceSheet reads every contract in one consistent snapshot and builds the
// balance sheet at asOf. Only today's figures are published to the gauges.
func (s *ReportService) BalanceSheet(ctx context.Context, asOf string) (*snapshot.BalanceSheet, error) {
	date, err := s.asOfDate(asOf)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshots.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	bs := snapshot.ComputeBalanceSheet(snap.Loans, snap.Credits, snap.BadDebts, date).Rounded()
	if date.Equal(datemath.Date(s.now())) {
		s.publish(map[string]decimal.Decimal{
			"assets":      bs.Assets,
			"liabilities": bs.Liabilities,
			"equity":      bs.Equity,
		})
	}

	logger.Debug("Balance sheet computed",
		slog.String("as_of", datemath.FormatISODate(date)),
		slog.Int("loans", bs.LoanCount),
		slog.Int("credits", bs.CreditCount))
	return &bs, nil
}

// RefreshGauges recomputes today's balance sheet for the metrics gauges
func (s *ReportService) RefreshGauges(ctx context.Context) error {
	_, err := s.BalanceSheet(ctx, "")
	return err
}

// LoanPortfolio summarizes the loan book
func (s *ReportService) LoanPortfolio(ctx context.Context, input PortfolioInput) (*snapshot.PortfolioStats, error) {
	date, filter, err := s.portfolioFilter(input, true)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	stats := snapshot.ComputePortfolioStats(snapshot.LoanPositions(snap.Loans), date, filter).Rounded()
	return &stats, nil
}

// CreditPortfolio summarizes the credits placed with the firm
func (s *ReportService) CreditPortfolio(ctx context.Context, input PortfolioInput) (*snapshot.PortfolioStats, error) {
	date, filter, err := s.portfolioFilter(input, false)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	stats := snapshot.ComputePortfolioStats(snapshot.CreditPositions(snap.Credits), date, filter).Rounded()
	return &stats, nil
}

func (s *ReportService) portfolioFilter(input PortfolioInput, loans bool) (time.Time, snapshot.PortfolioFilter, error) {
	var filter snapshot.PortfolioFilter

	date, err := s.asOfDate(input.AsOf)
	if err != nil {
		return date, filter, err
	}
	if input.StartDate != "" {
		from, err := parseDate("start_date", input.StartDate)
		if err != nil {
			return date, filter, err
		}
		filter.StartFrom = &from
	}
	if input.EndDate != "" {
		to, err := parseDate("end_date", input.EndDate)
		if err != nil {
			return date, filter, err
		}
		filter.StartTo = &to
	}
	if filter.StartFrom != nil && filter.StartTo != nil && filter.StartTo.Before(*filter.StartFrom) {
		return date, filter, validationError("end_date cannot precede start_date")
	}

	for _, status := range input.Statuses {
		if status == "" {
			continue
		}
		if loans {
			canonical, err := lifecycle.NormalizeLoanStatus(status)
			if err != nil {
				return date, filter, validationError("unknown loan status %q", status)
			}
			status = canonical
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	return date, filter, nil
}

// LoanRegisterCSV lists every loan with its accrual at asOf
func (s *ReportService) LoanRegisterCSV(ctx context.Context, asOf string) (*bytes.Buffer, error) {
	date, err := s.asOfDate(asOf)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{
		"Préstamo ID", "Referencia", "Deudor", "Principal", "Tasa", "Plazo",
		"Desembolso", "Vencimiento", "Estado", "Capital Pagado", "Interés Pagado",
		"Interés Acum.", "Valor Actual",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i := range snap.Loans {
		loan := &snap.Loans[i]
		if loan.Archived {
			continue
		}
		record := []string{
			fmt.Sprintf("%d", loan.ID),
			loan.Reference,
			loan.DebtorName,
			loan.Principal.StringFixed(2),
			loan.InterestRate.String(),
			fmt.Sprintf("%d meses", loan.TenureMonths),
			datemath.FormatISODate(loan.DisbursementDate),
			datemath.FormatISODate(loan.MaturityDate),
			loanStatusLabel(loan.CanonicalStatus()),
			loan.AmountRepaid.StringFixed(2),
			loan.InterestRepaid.StringFixed(2),
			money.Round(loan.AccruedInterest(date)).StringFixed(2),
			money.Round(loan.CurrentValue(date)).StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b, nil
}

// OverdueLoansCSV lists open loans with an unpaid installment past due at asOf
func (s *ReportService) OverdueLoansCSV(ctx context.Context, asOf string) (*bytes.Buffer, error) {
	date, err := s.asOfDate(asOf)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{"Préstamo ID", "Deudor", "Cuota", "Fecha Vencimiento", "Días Mora", "Monto Cuota", "Estado", "Estado Sugerido"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i := range snap.Loans {
		loan := snap.Loans[i]
		if loan.Archived || !loan.IsOpen() {
			continue
		}
		d, err := lifecycle.ClassifyLoan(loan, date, s.policy)
		if err != nil {
			logger.Warn("Cannot classify loan", slog.Any("loan_id", loan.ID), slog.String("error", err.Error()))
			continue
		}
		if d.OldestUnpaid == nil || d.DaysPastDue <= 0 {
			continue
		}

		record := []string{
			fmt.Sprintf("%d", loan.ID),
			loan.DebtorName,
			fmt.Sprintf("%d", d.OldestUnpaid.Number),
			datemath.FormatISODate(d.OldestUnpaid.DueDate),
			fmt.Sprintf("%d", d.DaysPastDue),
			d.OldestUnpaid.Total().StringFixed(2),
			loanStatusLabel(loan.CanonicalStatus()),
			loanStatusLabel(d.Status),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b, nil
}

var loanStatusLabels = map[string]string{
	models.LoanStatusPerforming:    "Al día",
	models.LoanStatusNonPerforming: "En mora",
	models.LoanStatusFullProvision: "Provisión total",
	models.LoanStatusPreliquidated: "Preliquidado",
}

func loanStatusLabel(status string) string {
	if label, ok := loanStatusLabels[status]; ok {
		return label
	}
	return status
}
