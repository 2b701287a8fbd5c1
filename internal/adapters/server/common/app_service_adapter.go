package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taskopia/taskopia/internal/app"
	"github.com/taskopia/taskopia/internal/domain"
)

// maxActivityLimit caps one activity page.
const maxActivityLimit = 200

// AdapterConfig holds configuration for the app service adapter.
type AdapterConfig struct {
	InviteBaseURL string
}

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
	cfg     AdapterConfig
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service, cfg AdapterConfig) *AppServiceAdapter {
	if strings.TrimSpace(cfg.InviteBaseURL) == "" {
		cfg.InviteBaseURL = app.DefaultInviteOrigin
	}
	return &AppServiceAdapter{service: service, cfg: cfg}
}

// Board returns the filtered board view.
func (a *AppServiceAdapter) Board(ctx context.Context, in Filters) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	view, err := a.service.BoardView(ctx, domain.FilterOptions{
		Search:     in.Search,
		Priority:   in.Priority,
		AssigneeID: in.AssigneeID,
		Status:     in.Status,
	})
	if err != nil {
		return Board{}, mapAppError("board", err)
	}
	out := Board{
		Columns: make([]Column, 0, len(view.Columns)),
		Filters: Filters{
			Search:     view.Filters.Search,
			Priority:   view.Filters.Priority,
			AssigneeID: view.Filters.AssigneeID,
			Status:     view.Filters.Status,
		},
		Progress: mapProgress(view.Progress),
		Users:    mapUsers(view.Users),
	}
	for _, column := range view.Columns {
		tasks := make([]Task, 0, len(column.Tasks))
		for _, task := range column.Tasks {
			tasks = append(tasks, MapTask(task))
		}
		out.Columns = append(out.Columns, Column{
			ID:      string(column.Column.ID),
			Title:   column.Column.Title,
			TaskIDs: column.Column.Clone().TaskIDs,
			Tasks:   tasks,
		})
	}
	return out, nil
}

// Task returns one task with its resolved assignee and deadline state.
func (a *AppServiceAdapter) Task(ctx context.Context, taskID string) (TaskDetail, error) {
	if err := a.ready(); err != nil {
		return TaskDetail{}, err
	}
	detail, err := a.service.GetTaskDetail(ctx, strings.TrimSpace(taskID))
	if err != nil {
		return TaskDetail{}, mapAppError("get task", err)
	}
	return TaskDetail{
		Task:          MapTask(detail.Task),
		Assignee:      mapUser(detail.Assignee),
		DeadlineState: string(detail.DeadlineState),
		DaysRemaining: detail.DaysRemaining,
		Overdue:       detail.Overdue,
		Progress:      detail.Progress,
	}, nil
}

// CreateTask validates the task form and appends a new task to its column.
func (a *AppServiceAdapter) CreateTask(ctx context.Context, in TaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.CreateTaskFromForm(ctx, taskForm(in))
	if err != nil {
		return Task{}, mapAppError("create task", err)
	}
	return MapTask(task), nil
}

// UpdateTask validates the task form and replaces the stored task.
func (a *AppServiceAdapter) UpdateTask(ctx context.Context, taskID string, in TaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.UpdateTaskFromForm(ctx, strings.TrimSpace(taskID), taskForm(in))
	if err != nil {
		return Task{}, mapAppError("update task", err)
	}
	return MapTask(task), nil
}

// DeleteTask removes one task.
func (a *AppServiceAdapter) DeleteTask(ctx context.Context, taskID string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return mapAppError("delete task", a.service.DeleteTask(ctx, strings.TrimSpace(taskID)))
}

// MoveTask applies one drag-and-drop move.
func (a *AppServiceAdapter) MoveTask(ctx context.Context, in MoveTaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	from, err := domain.ParseStatus(in.From)
	if err != nil {
		return Task{}, fmt.Errorf("move task: from %q: %w", in.From, errors.Join(ErrInvalidRequest, err))
	}
	to, err := domain.ParseStatus(in.To)
	if err != nil {
		return Task{}, fmt.Errorf("move task: to %q: %w", in.To, errors.Join(ErrInvalidRequest, err))
	}
	task, err := a.service.MoveTask(ctx, app.MoveTaskInput{
		TaskID: strings.TrimSpace(in.TaskID),
		From:   from,
		To:     to,
		Index:  in.Index,
	})
	if err != nil {
		return Task{}, mapAppError("move task", err)
	}
	return MapTask(task), nil
}

// Progress returns completion counts for the whole board.
func (a *AppServiceAdapter) Progress(ctx context.Context) (Progress, error) {
	if err := a.ready(); err != nil {
		return Progress{}, err
	}
	progress, err := a.service.Progress(ctx)
	if err != nil {
		return Progress{}, mapAppError("progress", err)
	}
	return mapProgress(progress), nil
}

// Users returns the team roster.
func (a *AppServiceAdapter) Users(ctx context.Context) ([]User, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	users, err := a.service.ListUsers(ctx)
	if err != nil {
		return nil, mapAppError("list users", err)
	}
	return mapUsers(users), nil
}

// Activity returns recent change events, newest first.
func (a *AppServiceAdapter) Activity(ctx context.Context, limit int) ([]ChangeEvent, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	limit = min(limit, maxActivityLimit)
	events, err := a.service.ListChangeEvents(ctx, limit)
	if err != nil {
		return nil, mapAppError("list activity", err)
	}
	out := make([]ChangeEvent, 0, len(events))
	for _, event := range events {
		out = append(out, MapChangeEvent(event))
	}
	return out, nil
}

// Login authenticates credentials against the roster.
func (a *AppServiceAdapter) Login(ctx context.Context, in LoginRequest) (Member, error) {
	if err := a.ready(); err != nil {
		return Member{}, err
	}
	account, err := a.service.Authenticate(ctx, domain.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		return Member{}, mapAppError("login", err)
	}
	return mapMember(account), nil
}

// Signup creates a team owner account.
func (a *AppServiceAdapter) Signup(ctx context.Context, in SignupRequest) (Member, error) {
	if err := a.ready(); err != nil {
		return Member{}, err
	}
	account, err := a.service.RegisterOwner(ctx, signupForm(in))
	if err != nil {
		return Member{}, mapAppError("signup", err)
	}
	return mapMember(account), nil
}

// Join creates a member account in an existing team.
func (a *AppServiceAdapter) Join(ctx context.Context, in JoinRequest) (Member, error) {
	if err := a.ready(); err != nil {
		return Member{}, err
	}
	account, err := a.service.JoinTeam(ctx, domain.JoinForm{SignupForm: signupForm(in.SignupRequest), TeamCode: in.TeamCode})
	if err != nil {
		return Member{}, mapAppError("join", err)
	}
	return mapMember(account), nil
}

// Invite builds the join link of userID's team.
func (a *AppServiceAdapter) Invite(ctx context.Context, userID string, in InviteRequest) (Invitation, error) {
	if err := a.ready(); err != nil {
		return Invitation{}, err
	}
	account, err := a.service.Account(ctx, userID)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			return Invitation{}, fmt.Errorf("invite: %w", errors.Join(ErrUnauthorized, err))
		}
		return Invitation{}, mapAppError("invite", err)
	}
	inv, err := app.NewInvitation(domain.InviteForm{Email: in.Email, Role: in.Role}, account.TeamCode, a.cfg.InviteBaseURL)
	if err != nil {
		return Invitation{}, mapAppError("invite", err)
	}
	return Invitation{Email: inv.Email, Role: inv.Role, TeamCode: inv.TeamCode, Link: inv.Link}, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

// MapTask converts a domain task to its wire form.
func MapTask(t domain.Task) Task {
	return Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Deadline:    domain.FormatDate(t.Deadline),
		AssigneeID:  t.AssigneeID,
		CreatedAt:   domain.FormatDate(t.CreatedAt),
	}
}

// MapChangeEvent converts a domain change event to its wire form.
func MapChangeEvent(e domain.ChangeEvent) ChangeEvent {
	return ChangeEvent{
		ID:         e.ID,
		TaskID:     e.TaskID,
		Operation:  string(e.Operation),
		ActorID:    e.ActorID,
		Metadata:   e.Metadata,
		OccurredAt: e.OccurredAt,
	}
}

func mapUser(u domain.User) User {
	return User{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Role: u.Role}
}

func mapUsers(users []domain.User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, mapUser(u))
	}
	return out
}

func mapMember(a domain.Account) Member {
	return Member{User: mapUser(a.User), Email: a.Email, IsAdmin: a.IsAdmin, TeamCode: a.TeamCode}
}

func mapProgress(p domain.Progress) Progress {
	return Progress{Total: p.Total, Completed: p.Completed, Pending: p.Pending, Percentage: p.Percentage}
}

func taskForm(in TaskRequest) domain.TaskForm {
	return domain.TaskForm{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Deadline:    in.Deadline,
		AssigneeID:  in.AssigneeID,
	}
}

func signupForm(in SignupRequest) domain.SignupForm {
	return domain.SignupForm{Name: in.Name, Email: in.Email, Password: in.Password, Role: in.Role}
}

// mapAppError maps app/domain errors into transport-layer error sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var validation domain.ValidationErrors
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrConflict), errors.Is(err, app.ErrEmailExists):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case errors.Is(err, app.ErrInvalidCredentials), errors.Is(err, app.ErrNotAuthenticated):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnauthorized, err))
	case errors.As(err, &validation),
		errors.Is(err, app.ErrUnknownTeamCode),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidDeadline),
		errors.Is(err, domain.ErrInvalidAssignee),
		errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, domain.ErrInvalidColumnID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidTeamCode),
		errors.Is(err, domain.ErrInvalidFilterValue):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
