package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Priorities lists the priority values from lowest to highest.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// ParsePriority resolves a priority label case-insensitively.
func ParsePriority(raw string) (Priority, error) {
	raw = strings.TrimSpace(raw)
	for _, p := range validPriorities {
		if strings.EqualFold(string(p), raw) {
			return p, nil
		}
	}
	return "", ErrInvalidPriority
}

type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Deadline    time.Time
	AssigneeID  string
	CreatedAt   time.Time
}

// TaskDraft is a task before it has an id and creation date.
type TaskDraft struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Deadline    time.Time
	AssigneeID  string
}

func NewTask(id string, in TaskDraft, now time.Time) (Task, error) {
	task := Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Deadline:    in.Deadline,
		AssigneeID:  in.AssigneeID,
		CreatedAt:   Day(now),
	}
	return task.Normalize()
}

// Normalize trims text fields, defaults the priority and validates the record.
func (t Task) Normalize() (Task, error) {
	t.ID = strings.TrimSpace(t.ID)
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.AssigneeID = strings.TrimSpace(t.AssigneeID)

	if t.ID == "" {
		return Task{}, ErrInvalidID
	}
	if t.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if !IsValidStatus(t.Status) {
		return Task{}, ErrInvalidStatus
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, t.Priority) {
		return Task{}, ErrInvalidPriority
	}
	if t.Deadline.IsZero() {
		return Task{}, ErrInvalidDeadline
	}
	if t.AssigneeID == "" {
		return Task{}, ErrInvalidAssignee
	}
	t.Deadline = Day(t.Deadline)
	if !t.CreatedAt.IsZero() {
		t.CreatedAt = Day(t.CreatedAt)
	}
	return t, nil
}

// Draft returns the editable fields of t.
func (t Task) Draft() TaskDraft {
	return TaskDraft{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Deadline:    t.Deadline,
		AssigneeID:  t.AssigneeID,
	}
}
