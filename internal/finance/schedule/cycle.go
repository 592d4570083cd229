package schedule

import (
	"fmt"
	"time"

	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
)

// Cycle is the repayment (or payout) frequency of a contract
type Cycle string

// Repayment cycle constants
const (
	CycleFortnightly  Cycle = "fortnightly"
	CycleMonthly      Cycle = "monthly"
	CycleBiMonthly    Cycle = "bi_monthly"
	CycleQuarterly    Cycle = "quarterly"
	CycleQuadrimester Cycle = "quadrimester"
	CycleSemiannual   Cycle = "semiannual"
	CycleAnnually     Cycle = "annually"
	CycleBullet       Cycle = "bullet"
)

// monthsPerPeriod covers the month-based cycles only
var monthsPerPeriod = map[Cycle]int{
	CycleMonthly:      1,
	CycleBiMonthly:    2,
	CycleQuarterly:    3,
	CycleQuadrimester: 4,
	CycleSemiannual:   6,
	CycleAnnually:     12,
}

// Cycles lists every recognized cycle
func Cycles() []Cycle {
	return []Cycle{
		CycleFortnightly, CycleMonthly, CycleBiMonthly, CycleQuarterly,
		CycleQuadrimester, CycleSemiannual, CycleAnnually, CycleBullet,
	}
}

// ParseCycle validates a stored or submitted cycle value
func ParseCycle(s string) (Cycle, error) {
	c := Cycle(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unrecognized cycle %q", ErrScheduleUnavailable, s)
	}
	return c, nil
}

// Valid reports whether c is one of the recognized cycles
func (c Cycle) Valid() bool {
	if c == CycleFortnightly || c == CycleBullet {
		return true
	}
	_, ok := monthsPerPeriod[c]
	return ok
}

// advance returns start moved forward by n periods. Dates are always computed
// from start so clamped month ends do not drift across installments.
func (c Cycle) advance(start time.Time, n int) time.Time {
	if c == CycleFortnightly {
		return datemath.AddWeeks(start, 2*n)
	}
	return datemath.AddMonths(start, monthsPerPeriod[c]*n)
}
