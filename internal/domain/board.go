package domain

import (
	"fmt"
	"slices"
)

// Board is the normalized task store: task records keyed by id plus one ordered id list per
// status column. Mutations never modify the receiver; they return the next board so callers
// commit both structures together or not at all.
type Board struct {
	tasks   map[string]Task
	columns map[Status][]string
}

// NewBoard returns an empty board with every column present.
func NewBoard() Board {
	b := Board{
		tasks:   map[string]Task{},
		columns: make(map[Status][]string, len(ColumnOrder)),
	}
	for _, status := range ColumnOrder {
		b.columns[status] = []string{}
	}
	return b
}

// RestoreBoard rebuilds a board from stored tasks and column orders and checks its invariants.
func RestoreBoard(tasks []Task, columns map[Status][]string) (Board, error) {
	b := NewBoard()
	for _, task := range tasks {
		if _, ok := b.tasks[task.ID]; ok {
			return Board{}, fmt.Errorf("%w: %s", ErrDuplicateTask, task.ID)
		}
		b.tasks[task.ID] = task
	}
	for status, ids := range columns {
		if !IsValidStatus(status) {
			return Board{}, fmt.Errorf("%w: %q", ErrInvalidColumnID, status)
		}
		b.columns[status] = slices.Clone(ids)
	}
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// Validate checks that every task appears exactly once, in the column named by its status.
func (b Board) Validate() error {
	seen := make(map[string]Status, len(b.tasks))
	for _, status := range ColumnOrder {
		for _, id := range b.columns[status] {
			if prev, ok := seen[id]; ok {
				return fmt.Errorf("%w: task %s listed in %q and %q", ErrBoardInconsistent, id, prev, status)
			}
			seen[id] = status
			task, ok := b.tasks[id]
			if !ok {
				return fmt.Errorf("%w: column %q lists unknown task %s", ErrBoardInconsistent, status, id)
			}
			if task.Status != status {
				return fmt.Errorf("%w: task %s has status %q but sits in %q", ErrBoardInconsistent, id, task.Status, status)
			}
		}
	}
	if len(seen) != len(b.tasks) {
		for id := range b.tasks {
			if _, ok := seen[id]; !ok {
				return fmt.Errorf("%w: task %s is in no column", ErrBoardInconsistent, id)
			}
		}
	}
	return nil
}

// Len returns the number of tasks on the board.
func (b Board) Len() int {
	return len(b.tasks)
}

// Task returns the task with the given id.
func (b Board) Task(id string) (Task, bool) {
	task, ok := b.tasks[id]
	return task, ok
}

// ColumnIDs returns a copy of the ordered task ids of one column.
func (b Board) ColumnIDs(status Status) []string {
	out := slices.Clone(b.columns[status])
	if out == nil {
		out = []string{}
	}
	return out
}

// Columns returns every column in display order.
func (b Board) Columns() []Column {
	out := make([]Column, 0, len(ColumnOrder))
	for _, status := range ColumnOrder {
		out = append(out, Column{
			ID:      status,
			Title:   string(status),
			TaskIDs: b.ColumnIDs(status),
		})
	}
	return out
}

// ColumnTasks returns the tasks of one column in their display order.
func (b Board) ColumnTasks(status Status) []Task {
	ids := b.columns[status]
	out := make([]Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.tasks[id])
	}
	return out
}

// Tasks returns all tasks, column by column in display order.
func (b Board) Tasks() []Task {
	out := make([]Task, 0, len(b.tasks))
	for _, status := range ColumnOrder {
		out = append(out, b.ColumnTasks(status)...)
	}
	return out
}

// Position reports the column and index currently holding a task.
func (b Board) Position(id string) (Status, int, bool) {
	task, ok := b.tasks[id]
	if !ok {
		return "", 0, false
	}
	idx := slices.Index(b.columns[task.Status], id)
	if idx < 0 {
		return "", 0, false
	}
	return task.Status, idx, true
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := Board{
		tasks:   make(map[string]Task, len(b.tasks)),
		columns: make(map[Status][]string, len(ColumnOrder)),
	}
	for id, task := range b.tasks {
		out.tasks[id] = task
	}
	for _, status := range ColumnOrder {
		out.columns[status] = b.ColumnIDs(status)
	}
	return out
}

// Create adds a task at the end of the column matching its status.
func (b Board) Create(task Task) (Board, error) {
	task, err := task.Normalize()
	if err != nil {
		return Board{}, err
	}
	if _, ok := b.tasks[task.ID]; ok {
		return Board{}, fmt.Errorf("%w: %s", ErrDuplicateTask, task.ID)
	}
	next := b.Clone()
	next.tasks[task.ID] = task
	next.columns[task.Status] = append(next.columns[task.Status], task.ID)
	return next, nil
}

// Update replaces a stored task. A status change moves the id to the end of the new column.
// The creation date of the stored record is kept.
func (b Board) Update(task Task) (Board, error) {
	prev, ok := b.tasks[task.ID]
	if !ok {
		return Board{}, fmt.Errorf("%w: %s", ErrTaskNotFound, task.ID)
	}
	task.CreatedAt = prev.CreatedAt
	task, err := task.Normalize()
	if err != nil {
		return Board{}, err
	}
	next := b.Clone()
	if task.Status != prev.Status {
		next.columns[prev.Status] = removeID(next.columns[prev.Status], task.ID)
		next.columns[task.Status] = append(next.columns[task.Status], task.ID)
	}
	next.tasks[task.ID] = task
	return next, nil
}

// Delete removes a task from the store and from its column.
func (b Board) Delete(id string) (Board, Task, error) {
	task, ok := b.tasks[id]
	if !ok {
		return Board{}, Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	next := b.Clone()
	delete(next.tasks, id)
	next.columns[task.Status] = removeID(next.columns[task.Status], id)
	return next, task, nil
}

// Move repositions a task. Within one column it is a reorder; across columns the task also takes
// the destination status. The index is clamped to the destination bounds.
func (b Board) Move(id string, src, dst Status, index int) (Board, error) {
	if !IsValidStatus(src) || !IsValidStatus(dst) {
		return Board{}, ErrInvalidColumnID
	}
	task, ok := b.tasks[id]
	if !ok {
		return Board{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if task.Status != src {
		return Board{}, fmt.Errorf("%w: task %s is in %q, not %q", ErrInvalidColumnID, id, task.Status, src)
	}

	next := b.Clone()
	next.columns[src] = removeID(next.columns[src], id)
	next.columns[dst] = insertID(next.columns[dst], id, index)
	if src != dst {
		task.Status = dst
		next.tasks[id] = task
	}
	return next, nil
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(candidate string) bool {
		return candidate == id
	})
}

func insertID(ids []string, id string, index int) []string {
	index = max(0, min(index, len(ids)))
	return slices.Insert(ids, index, id)
}
