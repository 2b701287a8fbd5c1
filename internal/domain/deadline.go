package domain

import (
	"math"
	"time"
)

// DeadlineState classifies a deadline relative to today.
type DeadlineState string

const (
	DeadlineNormal      DeadlineState = "normal"
	DeadlineApproaching DeadlineState = "approaching"
	DeadlineOverdue     DeadlineState = "overdue"
)

// approachingWindowDays is how many days after today still count as approaching.
const approachingWindowDays = 2

// ClassifyDeadline compares deadline with the calendar date of now.
func ClassifyDeadline(deadline, now time.Time) DeadlineState {
	today := Day(now)
	due := Day(deadline)
	switch {
	case due.Before(today):
		return DeadlineOverdue
	case !due.After(today.AddDate(0, 0, approachingWindowDays)):
		return DeadlineApproaching
	default:
		return DeadlineNormal
	}
}

// DaysRemaining returns the whole days left until deadline, rounded up. Negative values are days
// overdue.
func DaysRemaining(deadline, now time.Time) int {
	wall := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
	diff := Day(deadline).Sub(wall)
	return int(math.Ceil(diff.Hours() / 24))
}
