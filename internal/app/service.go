package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/taskopia/taskopia/internal/domain"
)

// TaskIDPrefix prefixes generated task ids.
const TaskIDPrefix = "task-"

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Notifier ChangeNotifier
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service owns the board. Mutations are serialized and commit the task store and column
// lists together.
type Service struct {
	repo     Repository
	idGen    IDGenerator
	clock    Clock
	notifier ChangeNotifier

	mu sync.Mutex
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:     repo,
		idGen:    idGen,
		clock:    clock,
		notifier: cfg.Notifier,
	}
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.clock()
}

// Board returns the current board.
func (s *Service) Board(ctx context.Context) (domain.Board, error) {
	return s.repo.LoadBoard(ctx)
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	board, err := s.repo.LoadBoard(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	task, ok := board.Task(taskID)
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	return task, nil
}

// CreateTask stores a new task at the end of its status column.
func (s *Service) CreateTask(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	var created domain.Task
	err := s.mutate(ctx, func(board domain.Board, now time.Time) (domain.Board, []domain.ChangeEvent, error) {
		task, err := domain.NewTask(TaskIDPrefix+s.idGen(), draft, now)
		if err != nil {
			return domain.Board{}, nil, err
		}
		next, err := board.Create(task)
		if err != nil {
			return domain.Board{}, nil, err
		}
		created, _ = next.Task(task.ID)
		return next, []domain.ChangeEvent{s.event(ctx, created.ID, domain.ChangeOperationCreate, now, map[string]string{
			"status":   string(created.Status),
			"position": strconv.Itoa(len(next.ColumnIDs(created.Status)) - 1),
			"title":    created.Title,
		})}, nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	return created, nil
}

// CreateTaskFromForm validates task dialog input against the roster and creates the task.
func (s *Service) CreateTaskFromForm(ctx context.Context, form domain.TaskForm) (domain.Task, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	draft, err := form.Validate(users)
	if err != nil {
		return domain.Task{}, err
	}
	return s.CreateTask(ctx, draft)
}

// UpdateTask replaces a stored task. A changed status appends it to the new column.
func (s *Service) UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	var updated domain.Task
	err := s.mutate(ctx, func(board domain.Board, now time.Time) (domain.Board, []domain.ChangeEvent, error) {
		prev, ok := board.Task(task.ID)
		if !ok {
			return domain.Board{}, nil, fmt.Errorf("%w: %w", ErrNotFound, domain.ErrTaskNotFound)
		}
		next, err := board.Update(task)
		if err != nil {
			return domain.Board{}, nil, err
		}
		updated, _ = next.Task(task.ID)
		metadata := map[string]string{"title": updated.Title}
		if prev.Status != updated.Status {
			metadata["from_status"] = string(prev.Status)
			metadata["to_status"] = string(updated.Status)
		}
		return next, []domain.ChangeEvent{s.event(ctx, updated.ID, domain.ChangeOperationUpdate, now, metadata)}, nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

// UpdateTaskFromForm validates task dialog input and applies it to an existing task.
func (s *Service) UpdateTaskFromForm(ctx context.Context, taskID string, form domain.TaskForm) (domain.Task, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	draft, err := form.Validate(users)
	if err != nil {
		return domain.Task{}, err
	}
	return s.UpdateTask(ctx, domain.Task{
		ID:          taskID,
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		Priority:    draft.Priority,
		Deadline:    draft.Deadline,
		AssigneeID:  draft.AssigneeID,
	})
}

// DeleteTask removes a task and its column entry.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	return s.mutate(ctx, func(board domain.Board, now time.Time) (domain.Board, []domain.ChangeEvent, error) {
		next, deleted, err := board.Delete(taskID)
		if err != nil {
			return domain.Board{}, nil, err
		}
		return next, []domain.ChangeEvent{s.event(ctx, deleted.ID, domain.ChangeOperationDelete, now, map[string]string{
			"status": string(deleted.Status),
			"title":  deleted.Title,
		})}, nil
	})
}

// MoveTaskInput holds input values for move task operations.
type MoveTaskInput struct {
	TaskID string
	From   domain.Status
	To     domain.Status
	Index  int
}

// MoveTask repositions a task by explicit drag position. Dropping a task where it already is
// commits nothing.
func (s *Service) MoveTask(ctx context.Context, in MoveTaskInput) (domain.Task, error) {
	var moved domain.Task
	err := s.mutate(ctx, func(board domain.Board, now time.Time) (domain.Board, []domain.ChangeEvent, error) {
		status, idx, ok := board.Position(in.TaskID)
		if !ok {
			return domain.Board{}, nil, fmt.Errorf("%w: %w", ErrNotFound, domain.ErrTaskNotFound)
		}
		if in.From == in.To && in.From == status && clampIndex(in.Index, len(board.ColumnIDs(status))-1) == idx {
			moved, _ = board.Task(in.TaskID)
			return board, nil, nil
		}
		next, err := board.Move(in.TaskID, in.From, in.To, in.Index)
		if err != nil {
			return domain.Board{}, nil, err
		}
		moved, _ = next.Task(in.TaskID)
		_, newIdx, _ := next.Position(in.TaskID)
		return next, []domain.ChangeEvent{s.event(ctx, moved.ID, domain.ChangeOperationMove, now, map[string]string{
			"from_status": string(in.From),
			"to_status":   string(in.To),
			"position":    strconv.Itoa(newIdx),
		})}, nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	return moved, nil
}

// ListTasks returns the tasks that pass the filters in board order.
func (s *Service) ListTasks(ctx context.Context, filters domain.FilterOptions) ([]domain.Task, error) {
	filters, err := filters.Normalize()
	if err != nil {
		return nil, err
	}
	board, err := s.repo.LoadBoard(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ApplyFilters(board.Tasks(), filters), nil
}

// Progress returns completion counts for the whole board.
func (s *Service) Progress(ctx context.Context) (domain.Progress, error) {
	board, err := s.repo.LoadBoard(ctx)
	if err != nil {
		return domain.Progress{}, err
	}
	return domain.ComputeProgress(board), nil
}

// ColumnView is one projected column with its visible tasks.
type ColumnView struct {
	Column domain.Column
	Tasks  []domain.Task
}

// BoardView is the filtered board shown to a user.
type BoardView struct {
	Columns  []ColumnView
	Filters  domain.FilterOptions
	Progress domain.Progress
	Users    []domain.User
}

// Task returns a visible task by id.
func (v BoardView) Task(taskID string) (domain.Task, bool) {
	for _, column := range v.Columns {
		for _, task := range column.Tasks {
			if task.ID == taskID {
				return task, true
			}
		}
	}
	return domain.Task{}, false
}

// BoardView projects the board through filters. Progress always covers the unfiltered board.
func (s *Service) BoardView(ctx context.Context, filters domain.FilterOptions) (BoardView, error) {
	filters, err := filters.Normalize()
	if err != nil {
		return BoardView{}, err
	}
	board, err := s.repo.LoadBoard(ctx)
	if err != nil {
		return BoardView{}, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return BoardView{}, err
	}

	visible := domain.ApplyFilters(board.Tasks(), filters)
	projected := domain.ProjectColumns(board.Columns(), domain.TaskIDs(visible))
	view := BoardView{
		Columns:  make([]ColumnView, 0, len(projected)),
		Filters:  filters,
		Progress: domain.ComputeProgress(board),
		Users:    users,
	}
	for _, column := range projected {
		tasks := make([]domain.Task, 0, len(column.TaskIDs))
		for _, id := range column.TaskIDs {
			task, _ := board.Task(id)
			tasks = append(tasks, task)
		}
		view.Columns = append(view.Columns, ColumnView{Column: column, Tasks: tasks})
	}
	return view, nil
}

// TaskDetail is the resolved task shown on the detail screen.
type TaskDetail struct {
	Task          domain.Task
	Assignee      domain.User
	DeadlineState domain.DeadlineState
	DaysRemaining int
	Overdue       bool
	Progress      int
}

// GetTaskDetail resolves a task with its assignee and deadline information.
func (s *Service) GetTaskDetail(ctx context.Context, taskID string) (TaskDetail, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return TaskDetail{}, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return TaskDetail{}, err
	}
	assignee, ok := domain.FindUser(users, task.AssigneeID)
	if !ok {
		assignee = domain.User{ID: task.AssigneeID, Name: task.AssigneeID}
	}
	now := s.clock()
	days := domain.DaysRemaining(task.Deadline, now)
	return TaskDetail{
		Task:          task,
		Assignee:      assignee,
		DeadlineState: domain.ClassifyDeadline(task.Deadline, now),
		DaysRemaining: days,
		Overdue:       days < 0 && task.Status != domain.StatusCompleted,
		Progress:      task.Status.ProgressValue(),
	}, nil
}

// ListUsers returns the team roster.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// ListChangeEvents returns recent activity, newest first.
func (s *Service) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	return s.repo.ListChangeEvents(ctx, limit)
}

// Seed installs accounts and a board when the store holds neither tasks nor users. It reports
// whether anything was written.
func (s *Service) Seed(ctx context.Context, accounts []domain.Account, board domain.Board) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.LoadBoard(ctx)
	if err != nil {
		return false, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	if current.Len() > 0 || len(users) > 0 {
		return false, nil
	}
	for _, account := range accounts {
		if err := s.repo.CreateAccount(ctx, account); err != nil {
			return false, fmt.Errorf("seed account %s: %w", account.ID, err)
		}
	}
	if err := board.Validate(); err != nil {
		return false, err
	}
	event := s.event(ctx, "", domain.ChangeOperationImport, s.clock(), map[string]string{
		"source": "seed",
		"tasks":  strconv.Itoa(board.Len()),
	})
	if err := s.repo.SaveBoard(ctx, board, []domain.ChangeEvent{event}); err != nil {
		return false, err
	}
	s.publish([]domain.ChangeEvent{event})
	return true, nil
}

type mutation func(board domain.Board, now time.Time) (domain.Board, []domain.ChangeEvent, error)

// mutate loads the board, applies fn and commits the result with its events.
func (s *Service) mutate(ctx context.Context, fn mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.repo.LoadBoard(ctx)
	if err != nil {
		return err
	}
	next, events, err := fn(board, s.clock())
	if err != nil {
		return translateDomainErr(err)
	}
	if len(events) == 0 {
		return nil
	}
	if err := s.repo.SaveBoard(ctx, next, events); err != nil {
		return err
	}
	s.publish(events)
	return nil
}

func (s *Service) publish(events []domain.ChangeEvent) {
	if s.notifier == nil {
		return
	}
	for _, event := range events {
		s.notifier.Publish(event)
	}
}

func (s *Service) event(ctx context.Context, taskID string, op domain.ChangeOperation, now time.Time, metadata map[string]string) domain.ChangeEvent {
	return domain.ChangeEvent{
		TaskID:     taskID,
		Operation:  op,
		ActorID:    actorID(ctx),
		Metadata:   metadata,
		OccurredAt: now.UTC(),
	}
}

// translateDomainErr marks missing-task errors as not found for adapters.
func translateDomainErr(err error) error {
	if errors.Is(err, domain.ErrTaskNotFound) && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, domain.ErrDuplicateTask) && !errors.Is(err, ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func clampIndex(index, upper int) int {
	if upper < 0 {
		return 0
	}
	return max(0, min(index, upper))
}
