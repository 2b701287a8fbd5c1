package domain

import "slices"

// Column is one status lane of the board with its ordered task ids.
type Column struct {
	ID      Status
	Title   string
	TaskIDs []string
}

// Len returns the number of task ids in the column.
func (c Column) Len() int {
	return len(c.TaskIDs)
}

// Clone returns a copy that shares no backing array with c.
func (c Column) Clone() Column {
	c.TaskIDs = slices.Clone(c.TaskIDs)
	if c.TaskIDs == nil {
		c.TaskIDs = []string{}
	}
	return c
}
