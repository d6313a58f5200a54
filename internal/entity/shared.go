package entity

import (
	"cmp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used by every persisted date.
const DateLayout = "2006-01-02"

// UnsetDate is written for dates that were never set.
const UnsetDate = "N/A"

// Day truncates t to midnight of its calendar day in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CompareDays compares the calendar dates of a and b, each read in its own location.
func CompareDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return cmp.Compare(ay, by)
	case am != bm:
		return cmp.Compare(int(am), int(bm))
	default:
		return cmp.Compare(ad, bd)
	}
}

// FormatDate renders a calendar day, or UnsetDate for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return UnsetDate
	}
	return t.Format(DateLayout)
}

// ParseDate parses a calendar day in loc. Empty strings, UnsetDate and malformed values
// report ok=false.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, UnsetDate) {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseCounter coerces a persisted counter; non-numeric and negative values become 0.
func ParseCounter(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NonNegative clamps n at zero.
func NonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
