package domain

import "time"

// ChangeOperation describes a persisted board operation.
type ChangeOperation string

// ChangeOperation values used by the activity log.
const (
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationUpdate ChangeOperation = "update"
	ChangeOperationMove   ChangeOperation = "move"
	ChangeOperationDelete ChangeOperation = "delete"
	ChangeOperationImport ChangeOperation = "import"
)

// ChangeEvent represents a single activity-log entry for a task.
type ChangeEvent struct {
	ID         int64
	TaskID     string
	Operation  ChangeOperation
	ActorID    string
	Metadata   map[string]string
	OccurredAt time.Time
}
