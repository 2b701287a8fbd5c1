package domain

import "errors"

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidTitle       = errors.New("invalid title")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidDeadline    = errors.New("invalid deadline")
	ErrInvalidAssignee    = errors.New("invalid assignee")
	ErrInvalidPosition    = errors.New("invalid position")
	ErrInvalidColumnID    = errors.New("invalid column id")
	ErrTaskNotFound       = errors.New("task not found")
	ErrDuplicateTask      = errors.New("duplicate task id")
	ErrBoardInconsistent  = errors.New("board columns and tasks are inconsistent")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidTeamCode    = errors.New("invalid team code")
	ErrInvalidFilterValue = errors.New("invalid filter value")
)
