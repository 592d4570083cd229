package snapshot

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/money"
	"github.com/sjperalta/fintera-lending/internal/models"
)

// BalanceSheet is the firm's position at a date. Equity is always
// Assets minus Liabilities.
type BalanceSheet struct {
	AsOf time.Time `json:"-"`

	LoanPrincipal      decimal.Decimal `json:"loan_principal"`
	InterestReceivable decimal.Decimal `json:"interest_receivable"`
	Assets             decimal.Decimal `json:"assets"`

	CreditPrincipal decimal.Decimal `json:"credit_principal"`
	InterestPayable decimal.Decimal `json:"interest_payable"`
	Liabilities     decimal.Decimal `json:"liabilities"`

	Equity decimal.Decimal `json:"equity"`

	LoanCount          int             `json:"loan_count"`
	CreditCount        int             `json:"credit_count"`
	BadDebtCount       int             `json:"bad_debt_count"`
	UnrecoveredBadDebt decimal.Decimal `json:"unrecovered_bad_debt"`
}

// ComputeBalanceSheet builds the balance sheet at asOf. Only performing and
// non performing loans that are not archived count as assets; only credits
// with principal remaining count as liabilities. Contracts starting after
// asOf are left out. Bad debts are reported as a memo line and do not enter
// the totals.
func ComputeBalanceSheet(loans []models.Loan, credits []models.Credit, badDebts []models.BadDebt, asOf time.Time) BalanceSheet {
	asOf = datemath.Date(asOf)
	bs := BalanceSheet{
		AsOf:               asOf,
		LoanPrincipal:      decimal.Zero,
		InterestReceivable: decimal.Zero,
		CreditPrincipal:    decimal.Zero,
		InterestPayable:    decimal.Zero,
		UnrecoveredBadDebt: decimal.Zero,
	}

	for i := range loans {
		loan := &loans[i]
		if loan.Archived || !loan.IsOpen() || datemath.Date(loan.DisbursementDate).After(asOf) {
			continue
		}
		bs.LoanCount++
		bs.LoanPrincipal = bs.LoanPrincipal.Add(loan.OutstandingPrincipal())
		bs.InterestReceivable = bs.InterestReceivable.Add(loan.AccruedInterest(asOf))
	}

	for i := range credits {
		credit := &credits[i]
		if credit.IsTerminal() || datemath.Date(credit.StartDate).After(asOf) {
			continue
		}
		bs.CreditCount++
		bs.CreditPrincipal = bs.CreditPrincipal.Add(credit.RemainingPrincipal)
		bs.InterestPayable = bs.InterestPayable.Add(credit.AccruedInterest(asOf))
	}

	for i := range badDebts {
		debt := &badDebts[i]
		if debt.IsFullyRecovered || datemath.Date(debt.DeclaredDate).After(asOf) {
			continue
		}
		bs.BadDebtCount++
		bs.UnrecoveredBadDebt = bs.UnrecoveredBadDebt.Add(debt.Outstanding())
	}

	return bs.total()
}

func (bs BalanceSheet) total() BalanceSheet {
	bs.Assets = bs.LoanPrincipal.Add(bs.InterestReceivable)
	bs.Liabilities = bs.CreditPrincipal.Add(bs.InterestPayable)
	bs.Equity = bs.Assets.Sub(bs.Liabilities)
	return bs
}

// Rounded rounds each line to the currency unit and recomputes the totals
// from the rounded lines.
func (bs BalanceSheet) Rounded() BalanceSheet {
	bs.LoanPrincipal = money.Round(bs.LoanPrincipal)
	bs.InterestReceivable = money.Round(bs.InterestReceivable)
	bs.CreditPrincipal = money.Round(bs.CreditPrincipal)
	bs.InterestPayable = money.Round(bs.InterestPayable)
	bs.UnrecoveredBadDebt = money.Round(bs.UnrecoveredBadDebt)
	return bs.total()
}
