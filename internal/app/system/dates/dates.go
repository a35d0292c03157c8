// Package dates holds the calendar-day helpers used for donation windows.
//
// Dates are kept as time.Time values truncated to the UTC day. The external
// representation, kept for compatibility with existing clients, is the
// day-first "dd/mm/yyyy" string.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the dd/mm/yyyy wire format.
const Layout = "02/01/2006"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the day n calendar days after t (n may be negative).
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Format renders t as dd/mm/yyyy.
func Format(t time.Time) string {
	return Day(t).Format(Layout)
}

// FormatPtr renders t as dd/mm/yyyy, or "" when t is nil.
func FormatPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Format(*t)
}

// Parse reads a dd/mm/yyyy string into a UTC day.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be dd/mm/yyyy", s)
	}
	return t, nil
}

// ParseOptional is Parse for optional fields: "" yields nil.
func ParseOptional(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
