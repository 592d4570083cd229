package handlers

import (
	"github.com/sjperalta/fintera-lending/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health  *HealthHandler
	Loan    *LoanHandler
	Credit  *CreditHandler
	BadDebt *BadDebtHandler
	Report  *ReportHandler
	Audit   *AuditHandler
	Job     *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, version string) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(version),
		Loan:    NewLoanHandler(svcs.Loan, svcs.BadDebt),
		Credit:  NewCreditHandler(svcs.Credit),
		BadDebt: NewBadDebtHandler(svcs.BadDebt),
		Report:  NewReportHandler(svcs.Report, svcs.Export),
		Audit:   NewAuditHandler(svcs.Audit),
		Job:     NewJobHandler(svcs.Job),
	}
}
