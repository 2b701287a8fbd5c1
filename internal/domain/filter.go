package domain

import (
	"slices"
	"strings"
)

// FilterAll is the neutral value of the priority, assignee and status filters.
const FilterAll = "All"

// FilterOptions is the board predicate. Every field must match for a task to pass.
type FilterOptions struct {
	Search     string
	Priority   string
	AssigneeID string
	Status     string
}

// DefaultFilters returns the cleared filter state.
func DefaultFilters() FilterOptions {
	return FilterOptions{
		Priority:   FilterAll,
		AssigneeID: FilterAll,
		Status:     FilterAll,
	}
}

// Clear resets every field to its neutral value.
func (f *FilterOptions) Clear() {
	*f = DefaultFilters()
}

// Normalize maps empty selections to All and canonicalizes priority and status labels.
func (f FilterOptions) Normalize() (FilterOptions, error) {
	if strings.TrimSpace(f.Priority) == "" || strings.EqualFold(strings.TrimSpace(f.Priority), FilterAll) {
		f.Priority = FilterAll
	} else {
		p, err := ParsePriority(f.Priority)
		if err != nil {
			return FilterOptions{}, ErrInvalidFilterValue
		}
		f.Priority = string(p)
	}
	if strings.TrimSpace(f.Status) == "" || strings.EqualFold(strings.TrimSpace(f.Status), FilterAll) {
		f.Status = FilterAll
	} else {
		s, err := ParseStatus(f.Status)
		if err != nil {
			return FilterOptions{}, ErrInvalidFilterValue
		}
		f.Status = string(s)
	}
	f.AssigneeID = strings.TrimSpace(f.AssigneeID)
	if f.AssigneeID == "" || strings.EqualFold(f.AssigneeID, FilterAll) {
		f.AssigneeID = FilterAll
	}
	return f, nil
}

// IsActive reports whether any field narrows the board.
func (f FilterOptions) IsActive() bool {
	return f.Search != "" ||
		(f.Priority != "" && f.Priority != FilterAll) ||
		(f.AssigneeID != "" && f.AssigneeID != FilterAll) ||
		(f.Status != "" && f.Status != FilterAll)
}

// Matches reports whether task satisfies every filter field.
func (f FilterOptions) Matches(task Task) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(task.Title), needle) &&
			!strings.Contains(strings.ToLower(task.Description), needle) {
			return false
		}
	}
	if !matchesSelection(f.Priority, string(task.Priority)) {
		return false
	}
	if !matchesSelection(f.AssigneeID, task.AssigneeID) {
		return false
	}
	return matchesSelection(f.Status, string(task.Status))
}

func matchesSelection(selected, value string) bool {
	return selected == "" || selected == FilterAll || selected == value
}

// ApplyFilters returns the tasks that pass f, in input order.
func ApplyFilters(tasks []Task, f FilterOptions) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if f.Matches(task) {
			out = append(out, task)
		}
	}
	return out
}

// TaskIDs returns the ids of tasks in order.
func TaskIDs(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}

// ProjectColumns restricts each column to the given ids, keeping column order and empty columns.
func ProjectColumns(columns []Column, ids []string) []Column {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := make([]Column, 0, len(columns))
	for _, column := range columns {
		projected := column.Clone()
		projected.TaskIDs = slices.DeleteFunc(projected.TaskIDs, func(id string) bool {
			_, ok := keep[id]
			return !ok
		})
		out = append(out, projected)
	}
	return out
}
