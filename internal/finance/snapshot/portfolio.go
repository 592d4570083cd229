package snapshot

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/money"
)

// PortfolioFilter narrows the historical figures of PortfolioStats.
// Zero values match everything.
type PortfolioFilter struct {
	StartFrom *time.Time
	StartTo   *time.Time
	Statuses  []string
}

// Matches reports whether p falls inside the filter
func (f PortfolioFilter) Matches(p Position) bool {
	start := datemath.Date(p.Start())
	if f.StartFrom != nil && start.Before(datemath.Date(*f.StartFrom)) {
		return false
	}
	if f.StartTo != nil && start.After(datemath.Date(*f.StartTo)) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	status := p.CurrentStatus()
	for _, s := range f.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// PortfolioStats summarizes a set of contracts
type PortfolioStats struct {
	AsOf                 time.Time       `json:"-"`
	Count                int             `json:"count"`
	TotalPrincipal       decimal.Decimal `json:"total_principal"`
	TotalSettled         decimal.Decimal `json:"total_settled"`
	NetRealizedProfit    decimal.Decimal `json:"net_realized_profit"`
	AveragePrincipal     decimal.Decimal `json:"average_principal"`
	ActiveCount          int             `json:"active_count"`
	ActivePortfolioValue decimal.Decimal `json:"active_portfolio_value"`
}

// ComputePortfolioStats aggregates the positions matching filter. The active
// portfolio value covers every non-terminal position regardless of filter,
// valued at asOf.
func ComputePortfolioStats(positions []Position, asOf time.Time, filter PortfolioFilter) PortfolioStats {
	stats := PortfolioStats{
		AsOf:                 datemath.Date(asOf),
		TotalPrincipal:       decimal.Zero,
		TotalSettled:         decimal.Zero,
		AveragePrincipal:     decimal.Zero,
		ActivePortfolioValue: decimal.Zero,
	}

	for _, p := range positions {
		if !p.Terminal() {
			stats.ActiveCount++
			stats.ActivePortfolioValue = stats.ActivePortfolioValue.Add(p.ValueAt(asOf))
		}
		if !filter.Matches(p) {
			continue
		}
		stats.Count++
		stats.TotalPrincipal = stats.TotalPrincipal.Add(p.OriginalPrincipal())
		stats.TotalSettled = stats.TotalSettled.Add(p.SettledReturns())
	}

	stats.NetRealizedProfit = stats.TotalSettled.Sub(stats.TotalPrincipal)
	if stats.Count > 0 {
		stats.AveragePrincipal = stats.TotalPrincipal.Div(decimal.NewFromInt(int64(stats.Count)))
	}
	return stats
}

// Rounded returns the stats with every amount rounded to the currency unit
func (s PortfolioStats) Rounded() PortfolioStats {
	s.TotalPrincipal = money.Round(s.TotalPrincipal)
	s.TotalSettled = money.Round(s.TotalSettled)
	s.NetRealizedProfit = s.TotalSettled.Sub(s.TotalPrincipal)
	s.AveragePrincipal = money.Round(s.AveragePrincipal)
	s.ActivePortfolioValue = money.Round(s.ActivePortfolioValue)
	return s
}
