package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// periodPattern matches billing period strings like "Q1 2024" or "q3 2025".
var periodPattern = regexp.MustCompile(`^[Qq]([1-4])\s+(\d{4})$`)

// PeriodDueDate derives the due date for a billing period string: the last
// day of the named quarter. A malformed period does not fail generation;
// it falls back to the end of the reference year so the demand is never
// issued already overdue.
func PeriodDueDate(period string, ref time.Time) time.Time {
	m := periodPattern.FindStringSubmatch(strings.TrimSpace(period))
	if m == nil {
		return time.Date(ref.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	}

	quarter, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])

	// Last day of the quarter = first day of the next quarter minus one day.
	firstOfNext := time.Date(year, time.Month(quarter*3+1), 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}

// ValidPeriod reports whether a period string parses as a quarter/year pair
func ValidPeriod(period string) bool {
	return periodPattern.MatchString(strings.TrimSpace(period))
}

// CurrentPeriod returns the period string for the quarter containing t,
// e.g. "Q3 2025"
func CurrentPeriod(t time.Time) string {
	quarter := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("Q%d %d", quarter, t.Year())
}
