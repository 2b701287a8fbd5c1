package domain

import (
	"slices"
	"strings"
)

// Status identifies one board column. A task's status always names the column holding it.
type Status string

// Status values in board display order.
const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusReview     Status = "Review"
	StatusCompleted  Status = "Completed"
)

// ColumnOrder is the fixed display order of the board.
var ColumnOrder = []Status{StatusToDo, StatusInProgress, StatusReview, StatusCompleted}

// ParseStatus resolves a status label, accepting case and spacing variants such as "in_progress".
func ParseStatus(raw string) (Status, error) {
	key := statusKey(raw)
	for _, status := range ColumnOrder {
		if statusKey(string(status)) == key {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

// IsValidStatus reports whether status names a board column.
func IsValidStatus(status Status) bool {
	return slices.Contains(ColumnOrder, status)
}

// ProgressValue returns the completion percentage shown for a task in the given status.
func (s Status) ProgressValue() int {
	switch s {
	case StatusInProgress:
		return 33
	case StatusReview:
		return 66
	case StatusCompleted:
		return 100
	default:
		return 0
	}
}

// Next returns the column to the right of s, or s when it is the last column.
func (s Status) Next() Status {
	idx := slices.Index(ColumnOrder, s)
	if idx < 0 || idx == len(ColumnOrder)-1 {
		return s
	}
	return ColumnOrder[idx+1]
}

// Prev returns the column to the left of s, or s when it is the first column.
func (s Status) Prev() Status {
	idx := slices.Index(ColumnOrder, s)
	if idx <= 0 {
		return s
	}
	return ColumnOrder[idx-1]
}

func statusKey(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.NewReplacer("_", "", "-", "", " ", "").Replace(raw)
	return raw
}
