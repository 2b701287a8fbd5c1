package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date wire format for deadlines and creation dates.
const DateLayout = "2006-01-02"

// Day returns the calendar date of t as midnight UTC, keeping t's own year, month and day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a yyyy-MM-dd date. An RFC3339 timestamp is accepted and truncated to its date.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDeadline
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return Day(t), nil
	}
	return time.Time{}, ErrInvalidDeadline
}

// FormatDate renders a calendar date as yyyy-MM-dd.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
