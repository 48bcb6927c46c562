// Package bizday computes business dates and months in the fixed UTC+9 zone,
// independent of the zone the store or the host uses.
package bizday

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	TimeLayout  = "15:04"
)

// Location is the business zone. Fixed offset, no DST.
var Location = time.FixedZone("KST", 9*60*60)

func In(t time.Time) time.Time {
	return t.In(Location)
}

// Today returns the business date of now as YYYY-MM-DD.
func Today(now time.Time) string {
	return In(now).Format(DateLayout)
}

// MonthStart returns midnight of the first day of t's business month.
func MonthStart(t time.Time) time.Time {
	l := In(t)
	return time.Date(l.Year(), l.Month(), 1, 0, 0, 0, 0, Location)
}

// AddMonths shifts a month start by n months (negative goes back).
func AddMonths(monthStart time.Time, n int) time.Time {
	return MonthStart(monthStart).AddDate(0, n, 0)
}

func MonthKey(t time.Time) string {
	return In(t).Format(MonthLayout)
}

// ParseMonth parses YYYY-MM into its month start.
func ParseMonth(key string) (time.Time, error) {
	t, err := time.ParseInLocation(MonthLayout, key, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", key, err)
	}
	return t, nil
}

// ParseDate parses YYYY-MM-DD as a business date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseClock validates an HH:MM wall-clock time.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t, nil
}

// DateRange returns the half-open [from, to) date strings covering the month.
func DateRange(monthStart time.Time) (string, string) {
	start := MonthStart(monthStart)
	return start.Format(DateLayout), start.AddDate(0, 1, 0).Format(DateLayout)
}
