// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrConflict reports a request that collides with stored state.
var ErrConflict = errors.New("conflict")

// ErrUnauthorized reports a missing or rejected identity.
var ErrUnauthorized = errors.New("unauthorized")

// Task is the wire form of one task. Dates are yyyy-MM-dd.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Deadline    string `json:"deadline"`
	AssigneeID  string `json:"assignee_id"`
	CreatedAt   string `json:"created_at"`
}

// User is one roster member.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

// Column is one board lane with its visible tasks in order.
type Column struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	TaskIDs []string `json:"task_ids"`
	Tasks   []Task   `json:"tasks"`
}

// Progress summarizes completion over the whole board.
type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	Percentage int `json:"percentage"`
}

// Filters echoes the applied board filters.
type Filters struct {
	Search     string `json:"search"`
	Priority   string `json:"priority"`
	AssigneeID string `json:"assignee_id"`
	Status     string `json:"status"`
}

// Board is the filtered board view.
type Board struct {
	Columns  []Column `json:"columns"`
	Filters  Filters  `json:"filters"`
	Progress Progress `json:"progress"`
	Users    []User   `json:"users"`
}

// TaskDetail is a task with its resolved assignee and deadline information.
type TaskDetail struct {
	Task          Task   `json:"task"`
	Assignee      User   `json:"assignee"`
	DeadlineState string `json:"deadline_state"`
	DaysRemaining int    `json:"days_remaining"`
	Overdue       bool   `json:"overdue"`
	Progress      int    `json:"progress"`
}

// ChangeEvent is one activity-log entry.
type ChangeEvent struct {
	ID         int64             `json:"id"`
	TaskID     string            `json:"task_id,omitempty"`
	Operation  string            `json:"operation"`
	ActorID    string            `json:"actor_id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// TaskRequest carries the editable task fields from the task dialog.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Deadline    string `json:"deadline"`
	AssigneeID  string `json:"assignee_id"`
}

// MoveTaskRequest captures one drag-and-drop move.
type MoveTaskRequest struct {
	TaskID string `json:"task_id,omitempty"`
	From   string `json:"from"`
	To     string `json:"to"`
	Index  int    `json:"index"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest carries the fields of a new team owner.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// JoinRequest carries the fields of a new member joining by team code.
type JoinRequest struct {
	SignupRequest
	TeamCode string `json:"team_code"`
}

// InviteRequest names the teammate to invite.
type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Invitation is the team code and join link handed to a teammate.
type Invitation struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	TeamCode string `json:"team_code"`
	Link     string `json:"link"`
}

// Member is the signed-in account without credentials.
type Member struct {
	User
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	TeamCode string `json:"team_code"`
}

// BoardService covers task reads and mutations.
type BoardService interface {
	Board(context.Context, Filters) (Board, error)
	Task(context.Context, string) (TaskDetail, error)
	CreateTask(context.Context, TaskRequest) (Task, error)
	UpdateTask(context.Context, string, TaskRequest) (Task, error)
	DeleteTask(context.Context, string) error
	MoveTask(context.Context, MoveTaskRequest) (Task, error)
	Progress(context.Context) (Progress, error)
	Users(context.Context) ([]User, error)
	Activity(context.Context, int) ([]ChangeEvent, error)
}

// AccountService covers sign-in and team membership.
type AccountService interface {
	Login(context.Context, LoginRequest) (Member, error)
	Signup(context.Context, SignupRequest) (Member, error)
	Join(context.Context, JoinRequest) (Member, error)
	Invite(context.Context, string, InviteRequest) (Invitation, error)
}
