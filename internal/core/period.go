package core

import (
	"fmt"
	"strings"
	"time"
)

// periodLayout matches accounting period labels like "September 2025".
const periodLayout = "January 2006"

// monthSelectorLayout matches summary month filters like "2025-09".
const monthSelectorLayout = "2006-01"

// ParsePeriod derives the inclusive budget window from a "Month Year"
// label. The window spans the first instant of the month through the last
// instant of its final day, in UTC.
func ParsePeriod(period string) (start, end time.Time, err error) {
	t, err := time.Parse(periodLayout, strings.TrimSpace(period))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q: want e.g. \"September 2025\"", period)
	}

	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end, nil
}

// ParseMonthSelector parses a "YYYY-MM" summary filter.
func ParseMonthSelector(month string) (int, time.Month, error) {
	t, err := time.Parse(monthSelectorLayout, strings.TrimSpace(month))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: want YYYY-MM", month)
	}
	return t.Year(), t.Month(), nil
}

// StartsInMonth reports whether the budget window starts in the given
// calendar month.
func (b Budget) StartsInMonth(year int, month time.Month) bool {
	return b.StartDate.Year() == year && b.StartDate.Month() == month
}

// StartsInYear reports whether the budget window starts in the given
// calendar year.
func (b Budget) StartsInYear(year int) bool {
	return b.StartDate.Year() == year
}
