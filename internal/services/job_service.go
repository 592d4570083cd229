package services

import (
	"context"

	"github.com/sjperalta/fintera-lending/internal/jobs"
)

// Background job names
const (
	JobLoanStatusSweep   = "loan_status_sweep"
	JobCreditStatusSweep = "credit_status_sweep"
	JobBalanceSheetGauge = "balance_sheet_gauge"
)

type JobService struct {
	worker  *jobs.Worker
	loans   *LoanService
	credits *CreditService
	reports *ReportService
}

func NewJobService(worker *jobs.Worker, loans *LoanService, credits *CreditService, reports *ReportService) *JobService {
	return &JobService{
		worker:  worker,
		loans:   loans,
		credits: credits,
		reports: reports,
	}
}

func (s *JobService) GetStatus() map[string]interface{} {
	stats := s.worker.GetStats()
	return map[string]interface{}{
		"active_jobs":    stats.ActiveJobs,
		"completed_jobs": stats.CompletedJobs,
		"failed_jobs":    stats.FailedJobs,
		"queue_length":   stats.QueueLength,
		"max_concurrent": stats.MaxConcurrent,
		"last_runs":      stats.LastRuns,
	}
}

// SweepLoans is the scheduled loan status sweep
func (s *JobService) SweepLoans(ctx context.Context) error {
	_, err := s.loans.SweepStatuses(ctx)
	return err
}

// SweepCredits is the scheduled credit status sweep
func (s *JobService) SweepCredits(ctx context.Context) error {
	_, err := s.credits.SweepStatuses(ctx)
	return err
}

// RefreshGauges is the scheduled balance sheet gauge refresh
func (s *JobService) RefreshGauges(ctx context.Context) error {
	return s.reports.RefreshGauges(ctx)
}

// TriggerSweeps queues both status sweeps for immediate execution
func (s *JobService) TriggerSweeps() {
	s.worker.Enqueue(JobLoanStatusSweep, s.SweepLoans)
	s.worker.Enqueue(JobCreditStatusSweep, s.SweepCredits)
}
