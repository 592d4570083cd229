package services

import (
	"github.com/sjperalta/fintera-lending/internal/config"
	"github.com/sjperalta/fintera-lending/internal/jobs"
	"github.com/sjperalta/fintera-lending/internal/repository"
)

// Services holds all service instances
type Services struct {
	Loan    *LoanService
	Credit  *CreditService
	BadDebt *BadDebtService
	Report  *ReportService
	Export  *ExportService
	Audit   *AuditService
	Job     *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config) *Services {
	auditSvc := NewAuditService(repos.Audit)

	loanSvc := NewLoanService(repos.Loan, auditSvc, cfg.Delinquency, cfg.AutoClassify)
	creditSvc := NewCreditService(repos.Credit, auditSvc)
	reportSvc := NewReportService(repos.Snapshot, cfg.Delinquency)

	return &Services{
		Loan:    loanSvc,
		Credit:  creditSvc,
		BadDebt: NewBadDebtService(repos.BadDebt, repos.Loan, auditSvc),
		Report:  reportSvc,
		Export:  NewExportService(reportSvc, cfg.Currency),
		Audit:   auditSvc,
		Job:     NewJobService(worker, loanSvc, creditSvc, reportSvc),
	}
}
