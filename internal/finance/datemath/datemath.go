// Package datemath holds the calendar helpers shared by the schedule and
// accrual calculators. All values are calendar dates: UTC midnight, no
// time-of-day component.
package datemath

import (
	"time"
)

// ISODateLayout is the wire format for calendar dates
const ISODateLayout = "2006-01-02"

// Date truncates t to its calendar date in UTC
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months to date. When the target month is shorter
// than the source day the result lands on the target month's last day
// (Jan 31 + 1 month = Feb 28/29), unlike time.AddDate which normalizes into March.
func AddMonths(date time.Time, n int) time.Time {
	y, m, d := date.Date()

	// first day of the target month, then clamp the day
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := daysIn(first.Year(), first.Month())
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// AddWeeks adds n weeks to date
func AddWeeks(date time.Time, n int) time.Time {
	return Date(date).AddDate(0, 0, 7*n)
}

// FormatISODate formats date as YYYY-MM-DD
func FormatISODate(date time.Time) string {
	return date.Format(ISODateLayout)
}

// ParseISODate parses a YYYY-MM-DD string into a calendar date
func ParseISODate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(ISODateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// DaysBetween returns the whole actual days from start to end. Negative when
// end precedes start.
func DaysBetween(start, end time.Time) int {
	return int(Date(end).Sub(Date(start)).Hours() / 24)
}

// Min returns the earlier of two dates
func Min(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
