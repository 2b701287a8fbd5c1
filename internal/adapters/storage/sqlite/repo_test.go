package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/taskopia/taskopia/internal/app"
	"github.com/taskopia/taskopia/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "taskopia.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func testTask(id string, status domain.Status) domain.Task {
	return domain.Task{
		ID:          id,
		Title:       "Task " + id,
		Description: "details",
		Status:      status,
		Priority:    domain.PriorityHigh,
		Deadline:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		AssigneeID:  "user-1",
		CreatedAt:   time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestRepository_BoardRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	empty, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if empty.Len() != 0 {
		t.Fatalf("expected empty board, got %d tasks", empty.Len())
	}

	board, err := domain.RestoreBoard(
		[]domain.Task{testTask("t1", domain.StatusToDo), testTask("t2", domain.StatusToDo), testTask("t3", domain.StatusReview)},
		map[domain.Status][]string{
			domain.StatusToDo:   {"t2", "t1"},
			domain.StatusReview: {"t3"},
		},
	)
	if err != nil {
		t.Fatalf("RestoreBoard() error = %v", err)
	}
	events := []domain.ChangeEvent{{
		TaskID:     "t1",
		Operation:  domain.ChangeOperationCreate,
		ActorID:    "user-1",
		Metadata:   map[string]string{"title": "Task t1"},
		OccurredAt: time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC),
	}}
	if err := repo.SaveBoard(ctx, board, events); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}

	loaded, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if got := loaded.ColumnIDs(domain.StatusToDo); !reflect.DeepEqual(got, []string{"t2", "t1"}) {
		t.Fatalf("unexpected To Do order %#v", got)
	}
	if !reflect.DeepEqual(loaded.Tasks(), board.Tasks()) {
		t.Fatalf("loaded tasks differ\n got %#v\nwant %#v", loaded.Tasks(), board.Tasks())
	}

	moved, err := loaded.Move("t1", domain.StatusToDo, domain.StatusReview, 0)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	moved, _, err = moved.Delete("t2")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.SaveBoard(ctx, moved, nil); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}
	loaded, err = repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("expected deleted task removed, got %d tasks", loaded.Len())
	}
	if got := loaded.ColumnIDs(domain.StatusReview); !reflect.DeepEqual(got, []string{"t1", "t3"}) {
		t.Fatalf("unexpected Review order %#v", got)
	}

	listed, err := repo.ListChangeEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListChangeEvents() error = %v", err)
	}
	if len(listed) != 1 || listed[0].ID == 0 || listed[0].Operation != domain.ChangeOperationCreate || listed[0].Metadata["title"] != "Task t1" {
		t.Fatalf("unexpected events %#v", listed)
	}
}

func TestRepository_SaveSingleTask(t *testing.T) {
	repo := openTestRepo(t)
	board := domain.NewBoard()
	board, err := board.Create(testTask("t1", domain.StatusToDo))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.SaveBoard(context.Background(), board, nil); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}
	loaded, err := repo.LoadBoard(context.Background())
	if err != nil || loaded.Len() != 1 {
		t.Fatalf("LoadBoard() = %d tasks, %v", loaded.Len(), err)
	}
}

func TestRepository_ChangeEventsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	base := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	events := []domain.ChangeEvent{
		{TaskID: "t1", Operation: domain.ChangeOperationCreate, OccurredAt: base},
		{TaskID: "t1", Operation: domain.ChangeOperationMove, ActorID: "user-2", OccurredAt: base.Add(time.Minute)},
		{TaskID: "t1", Operation: "bogus", ActorID: "user-2", OccurredAt: base.Add(2 * time.Minute)},
	}
	if err := repo.SaveBoard(ctx, domain.NewBoard(), events); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}
	listed, err := repo.ListChangeEvents(ctx, 2)
	if err != nil {
		t.Fatalf("ListChangeEvents() error = %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected limit applied, got %d", len(listed))
	}
	if listed[0].Operation != domain.ChangeOperationUpdate || listed[1].Operation != domain.ChangeOperationMove {
		t.Fatalf("unexpected order %#v", listed)
	}
	all, err := repo.ListChangeEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListChangeEvents() error = %v", err)
	}
	if all[2].ActorID != "taskopia-user" {
		t.Fatalf("expected default actor, got %q", all[2].ActorID)
	}
}

func TestRepository_UsersAndAccounts(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if err := repo.UpsertUser(ctx, domain.User{ID: "user-2", Name: "Jane"}); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	owner := domain.Account{
		User:     domain.User{ID: "user-1", Name: "John Doe", Avatar: "a", Role: "Dev"},
		Email:    "John.Doe@Example.com",
		Password: "password123",
		IsAdmin:  true,
		TeamCode: "TEAM123",
	}
	if err := repo.CreateAccount(ctx, owner); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if err := repo.UpsertUser(ctx, domain.User{ID: "user-2", Name: "Jane Roe", Role: "QA"}); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 || users[0].ID != "user-2" || users[0].Name != "Jane Roe" || users[1].ID != "user-1" {
		t.Fatalf("unexpected users %#v", users)
	}

	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 1 || accounts[0].Email != "john.doe@example.com" || !accounts[0].IsAdmin || accounts[0].Name != "John Doe" {
		t.Fatalf("unexpected accounts %#v", accounts)
	}

	dup := owner
	dup.ID = "user-3"
	dup.Email = "john.doe@example.com"
	err = repo.CreateAccount(ctx, dup)
	if !errors.Is(err, app.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	users, _ = repo.ListUsers(ctx)
	if len(users) != 2 {
		t.Fatalf("expected failed account to roll back its user, got %d users", len(users))
	}
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	store := openTestRepo(t).Sessions()

	if _, err := store.Get(ctx, "taskopia_user"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, "taskopia_user", []byte(`{"id":"user-1"}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "taskopia_user", []byte(`{"id":"user-2"}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := store.Get(ctx, "taskopia_user")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"id":"user-2"}` {
		t.Fatalf("unexpected value %s", got)
	}
	if err := store.Delete(ctx, "taskopia_user"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "taskopia_user"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "taskopia_user"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestServiceOverSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	if err := repo.UpsertUser(ctx, domain.User{ID: "user-1", Name: "John Doe"}); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}

	n := 0
	svc := app.NewService(repo, func() string {
		n++
		return string(rune('a' + n - 1))
	}, func() time.Time { return time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC) }, app.ServiceConfig{})

	form := domain.TaskForm{
		Title:       "Ship release",
		Description: "Tag and publish the build",
		Status:      "To Do",
		Priority:    "High",
		Deadline:    "2026-03-20",
		AssigneeID:  "user-1",
	}
	created, err := svc.CreateTaskFromForm(ctx, form)
	if err != nil {
		t.Fatalf("CreateTaskFromForm() error = %v", err)
	}
	if _, err := svc.MoveTask(ctx, app.MoveTaskInput{TaskID: created.ID, From: domain.StatusToDo, To: domain.StatusCompleted}); err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
	progress, err := svc.Progress(ctx)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if progress.Total != 1 || progress.Completed != 1 || progress.Percentage != 100 {
		t.Fatalf("unexpected progress %#v", progress)
	}
	events, err := svc.ListChangeEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListChangeEvents() error = %v", err)
	}
	if len(events) != 2 || events[0].Operation != domain.ChangeOperationMove {
		t.Fatalf("unexpected events %#v", events)
	}
	if err := svc.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if err := svc.DeleteTask(ctx, created.ID); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenValidation(t *testing.T) {
	if _, err := Open("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
