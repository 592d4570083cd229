// Package snapshot aggregates contracts into portfolio statistics and the
// firm-wide balance sheet.
package snapshot

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/models"
)

// Position is a contract as seen by portfolio statistics
type Position interface {
	OriginalPrincipal() decimal.Decimal
	SettledReturns() decimal.Decimal
	Start() time.Time
	CurrentStatus() string
	Terminal() bool
	ValueAt(asOf time.Time) decimal.Decimal
}

// LoanPosition adapts a loan. Settled returns are everything collected.
type LoanPosition struct {
	models.Loan
}

func (p LoanPosition) OriginalPrincipal() decimal.Decimal { return p.Principal }

func (p LoanPosition) SettledReturns() decimal.Decimal {
	return p.AmountRepaid.Add(p.InterestRepaid)
}

func (p LoanPosition) Start() time.Time { return p.DisbursementDate }

func (p LoanPosition) CurrentStatus() string { return p.CanonicalStatus() }

func (p LoanPosition) Terminal() bool { return p.Archived || !p.IsOpen() }

func (p LoanPosition) ValueAt(asOf time.Time) decimal.Decimal { return p.CurrentValue(asOf) }

// CreditPosition adapts a credit. Settled returns are everything paid out.
type CreditPosition struct {
	models.Credit
}

func (p CreditPosition) OriginalPrincipal() decimal.Decimal { return p.Principal }

func (p CreditPosition) SettledReturns() decimal.Decimal { return p.TotalPaidOut }

func (p CreditPosition) Start() time.Time { return p.StartDate }

func (p CreditPosition) CurrentStatus() string { return p.Status }

func (p CreditPosition) Terminal() bool { return p.IsTerminal() }

func (p CreditPosition) ValueAt(asOf time.Time) decimal.Decimal { return p.CurrentValue(asOf) }

// LoanPositions wraps loans for PortfolioStats
func LoanPositions(loans []models.Loan) []Position {
	out := make([]Position, len(loans))
	for i := range loans {
		out[i] = LoanPosition{loans[i]}
	}
	return out
}

// CreditPositions wraps credits for PortfolioStats
func CreditPositions(credits []models.Credit) []Position {
	out := make([]Position, len(credits))
	for i := range credits {
		out[i] = CreditPosition{credits[i]}
	}
	return out
}
