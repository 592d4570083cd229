package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]interface{}{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

func TestMonthlyLoanScenario(t *testing.T) {
	start := date(2024, 1, 15)

	plan, err := NewPlan(start, 12, CycleMonthly)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 15), plan.MaturityDate)
	assert.Equal(t, date(2024, 2, 15), plan.FirstRepaymentDate)

	installments, err := GenerateSchedule(dec("100000"), dec("12"), 12, CycleMonthly, start)
	require.NoError(t, err)
	require.Len(t, installments, 12)

	for i, inst := range installments[:11] {
		assert.Equal(t, i+1, inst.Number)
		assertDecimal(t, "8333.33", inst.Principal)
		assertDecimal(t, "1000", inst.Interest)
	}
	last := installments[11]
	assertDecimal(t, "8333.37", last.Principal)
	assertDecimal(t, "1000", last.Interest)
	assert.Equal(t, date(2025, 1, 15), last.DueDate)
	assert.Equal(t, date(2024, 2, 15), installments[0].DueDate)

	summary := Summarize(installments)
	assertDecimal(t, "100000", summary.TotalPrincipal)
	assertDecimal(t, "12000", summary.TotalInterest)
	assertDecimal(t, "112000", summary.TotalAmount)
}

func TestBulletScenario(t *testing.T) {
	start := date(2024, 3, 10)

	installments, err := GenerateSchedule(dec("20000"), dec("10"), 6, CycleBullet, start)
	require.NoError(t, err)
	require.Len(t, installments, 1)

	only := installments[0]
	assert.Equal(t, 1, only.Number)
	assert.Equal(t, date(2024, 9, 10), only.DueDate)
	assertDecimal(t, "20000", only.Principal)
	assertDecimal(t, "1000", only.Interest)
	assertDecimal(t, "21000", only.Total())
}

func TestInstallmentCount(t *testing.T) {
	tests := []struct {
		cycle    Cycle
		tenure   int
		expected int
	}{
		{CycleMonthly, 12, 12},
		{CycleQuarterly, 12, 4},
		{CycleQuarterly, 10, 3},
		{CycleQuarterly, 2, 1},
		{CycleBiMonthly, 7, 3},
		{CycleQuadrimester, 12, 3},
		{CycleSemiannual, 24, 4},
		{CycleAnnually, 6, 1},
		{CycleFortnightly, 12, 26},
		{CycleFortnightly, 1, 2},
		{CycleFortnightly, 6, 13},
		{CycleBullet, 36, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.cycle), func(t *testing.T) {
			assert.Equal(t, tt.expected, InstallmentCount(tt.cycle, tt.tenure))
		})
	}
}

func TestFirstRepaymentNeverAfterMaturity(t *testing.T) {
	origins := []time.Time{date(2024, 1, 31), date(2023, 2, 28), date(2024, 8, 31), date(2024, 12, 15)}
	tenures := []int{1, 2, 3, 5, 6, 12, 13, 36}

	for _, cycle := range Cycles() {
		for _, origin := range origins {
			for _, tenure := range tenures {
				maturity, err := ComputeMaturity(origin, tenure)
				require.NoError(t, err)
				first, err := ComputeFirstRepaymentDate(origin, cycle, maturity)
				require.NoError(t, err)

				if cycle == CycleBullet {
					assert.Equal(t, maturity, first)
					continue
				}
				assert.False(t, first.After(maturity), "%s %s %d: first %s after maturity %s",
					cycle, origin.Format("2006-01-02"), tenure, first, maturity)
				assert.True(t, first.After(origin))
			}
		}
	}
}

func TestScheduleSumsMatchContract(t *testing.T) {
	principals := []string{"100000", "12345.67", "999.99", "50000.01"}
	rates := []string{"0", "7.5", "12", "33.333"}
	tenures := []int{1, 5, 12, 17, 36}

	for _, cycle := range Cycles() {
		for _, p := range principals {
			for _, r := range rates {
				for _, tenure := range tenures {
					installments, err := GenerateSchedule(dec(p), dec(r), tenure, cycle, date(2024, 1, 31))
					require.NoError(t, err)
					require.Len(t, installments, InstallmentCount(cycle, tenure))

					summary := Summarize(installments)
					expectedInterest := TotalInterest(dec(p), dec(r), tenure)

					assert.True(t, summary.TotalPrincipal.Sub(dec(p)).Abs().LessThanOrEqual(dec("0.01")))
					assert.True(t, summary.TotalInterest.Sub(expectedInterest).Abs().LessThanOrEqual(dec("0.01")),
						"%s %s %s %d: interest %s vs %s", cycle, p, r, tenure, summary.TotalInterest, expectedInterest)

					maturity, _ := ComputeMaturity(date(2024, 1, 31), tenure)
					for i, inst := range installments {
						assert.False(t, inst.DueDate.After(maturity))
						if i > 0 {
							assert.False(t, inst.DueDate.Before(installments[i-1].DueDate))
						}
					}
				}
			}
		}
	}
}

func TestFortnightlyDueDates(t *testing.T) {
	installments, err := GenerateSchedule(dec("2600"), dec("12"), 12, CycleFortnightly, date(2024, 1, 1))
	require.NoError(t, err)
	require.Len(t, installments, 26)

	assert.Equal(t, date(2024, 1, 15), installments[0].DueDate)
	assert.Equal(t, date(2024, 1, 29), installments[1].DueDate)
	assert.Equal(t, date(2024, 12, 30), installments[25].DueDate)
	assertDecimal(t, "100", installments[0].Principal)
}

func TestMonthEndDueDatesDoNotDrift(t *testing.T) {
	installments, err := GenerateSchedule(dec("3000"), dec("0"), 3, CycleMonthly, date(2024, 1, 31))
	require.NoError(t, err)

	assert.Equal(t, date(2024, 2, 29), installments[0].DueDate)
	assert.Equal(t, date(2024, 3, 31), installments[1].DueDate)
	assert.Equal(t, date(2024, 4, 30), installments[2].DueDate)
}

func TestScheduleUnavailable(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		tenure    int
		cycle     Cycle
		start     time.Time
	}{
		{"Missing origination", "1000", 12, CycleMonthly, time.Time{}},
		{"Zero tenure", "1000", 0, CycleMonthly, date(2024, 1, 1)},
		{"Negative tenure", "1000", -3, CycleMonthly, date(2024, 1, 1)},
		{"Unknown cycle", "1000", 12, Cycle("weekly"), date(2024, 1, 1)},
		{"Zero principal", "0", 12, CycleMonthly, date(2024, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			installments, err := GenerateSchedule(dec(tt.principal), dec("10"), tt.tenure, tt.cycle, tt.start)
			assert.ErrorIs(t, err, ErrScheduleUnavailable)
			assert.Nil(t, installments)
		})
	}

	_, err := NewPlan(date(2024, 1, 1), 12, Cycle(""))
	assert.ErrorIs(t, err, ErrScheduleUnavailable)

	_, err = ParseCycle("daily")
	assert.ErrorIs(t, err, ErrScheduleUnavailable)

	c, err := ParseCycle("quadrimester")
	require.NoError(t, err)
	assert.Equal(t, CycleQuadrimester, c)
}

func TestGenerateScheduleIsIdempotent(t *testing.T) {
	first, err := GenerateSchedule(dec("15000"), dec("9.5"), 18, CycleQuarterly, date(2024, 5, 31))
	require.NoError(t, err)
	second, err := GenerateSchedule(dec("15000"), dec("9.5"), 18, CycleQuarterly, date(2024, 5, 31))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSmallContractsNeverGoNegative(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
	}{
		{"Seventy at one percent", "70", "1"},
		{"Cents at zero rate", "0.70", "0"},
		{"One cent", "0.01", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			installments, err := GenerateSchedule(dec(tt.principal), dec(tt.rate), 12, CycleFortnightly, date(2024, 1, 15))
			require.NoError(t, err)
			require.Len(t, installments, 26)

			for _, inst := range installments {
				assert.False(t, inst.Principal.IsNegative(), "installment %d principal %s", inst.Number, inst.Principal)
				assert.False(t, inst.Interest.IsNegative(), "installment %d interest %s", inst.Number, inst.Interest)
			}

			summary := Summarize(installments)
			assertDecimal(t, tt.principal, summary.TotalPrincipal)
			assertDecimal(t, TotalInterest(dec(tt.principal), dec(tt.rate), 12).Round(2).String(), summary.TotalInterest)
		})
	}

	installments, err := GenerateSchedule(dec("70"), dec("1"), 12, CycleFortnightly, date(2024, 1, 15))
	require.NoError(t, err)
	assertDecimal(t, "0.02", installments[0].Interest)
	assertDecimal(t, "0.20", installments[25].Interest)
	assertDecimal(t, "2.69", installments[0].Principal)
	assertDecimal(t, "2.75", installments[25].Principal)
}
