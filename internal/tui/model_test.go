package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/taskopia/taskopia/internal/app"
	"github.com/taskopia/taskopia/internal/domain"
)

var testNow = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

type memRepo struct {
	mu       sync.Mutex
	board    domain.Board
	accounts []domain.Account
	events   []domain.ChangeEvent
}

func (r *memRepo) LoadBoard(context.Context) (domain.Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.Clone(), nil
}

func (r *memRepo) SaveBoard(_ context.Context, b domain.Board, events []domain.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.board = b.Clone()
	for _, event := range events {
		event.ID = int64(len(r.events) + 1)
		r.events = append(r.events, event)
	}
	return nil
}

func (r *memRepo) ListChangeEvents(_ context.Context, limit int) ([]domain.ChangeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ChangeEvent, 0, len(r.events))
	for i := len(r.events) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}

func (r *memRepo) ListUsers(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.accounts))
	for _, account := range r.accounts {
		out = append(out, account.User)
	}
	return out, nil
}

func (r *memRepo) UpsertUser(context.Context, domain.User) error {
	return nil
}

func (r *memRepo) ListAccounts(context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Account(nil), r.accounts...), nil
}

func (r *memRepo) CreateAccount(_ context.Context, a domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return app.ErrEmailExists
		}
	}
	r.accounts = append(r.accounts, a)
	return nil
}

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *memKV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, app.ErrNotFound
	}
	return raw, nil
}

func (s *memKV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// failingService fails board loads.
type failingService struct {
	Service
}

func (failingService) BoardView(context.Context, domain.FilterOptions) (app.BoardView, error) {
	return app.BoardView{}, errors.New("disk on fire")
}

// newTestService seeds two accounts and three tasks: t1 and t2 in To Do, t3 in In Progress.
func newTestService(t *testing.T) (*app.Service, *memRepo) {
	t.Helper()
	repo := &memRepo{board: domain.NewBoard()}
	seq := 3
	svc := app.NewService(repo, func() string {
		seq++
		return strconv.Itoa(seq)
	}, func() time.Time { return testNow }, app.ServiceConfig{})

	accounts := []domain.Account{
		{User: domain.User{ID: "user-1", Name: "John Doe", Role: "Frontend Developer"}, Email: "john.doe@example.com", Password: "password123", IsAdmin: true, TeamCode: "TEAM123"},
		{User: domain.User{ID: "user-2", Name: "Alice Smith", Role: "Backend Developer"}, Email: "alice.smith@example.com", Password: "password123", TeamCode: "TEAM123"},
	}
	board := domain.NewBoard()
	for _, draft := range []struct {
		id    string
		draft domain.TaskDraft
	}{
		{"t1", domain.TaskDraft{Title: "Ship it", Description: "Release the build", Status: domain.StatusToDo, Priority: domain.PriorityHigh, Deadline: testNow.AddDate(0, 0, 1), AssigneeID: "user-1"}},
		{"t2", domain.TaskDraft{Title: "Write docs", Description: "Document the API", Status: domain.StatusToDo, Priority: domain.PriorityLow, Deadline: testNow.AddDate(0, 0, 10), AssigneeID: "user-2"}},
		{"t3", domain.TaskDraft{Title: "Fix bug", Description: "Crash on login", Status: domain.StatusInProgress, Priority: domain.PriorityMedium, Deadline: testNow.AddDate(0, 0, -1), AssigneeID: "user-2"}},
	} {
		task, err := domain.NewTask(draft.id, draft.draft, testNow)
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		if board, err = board.Create(task); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if _, err := svc.Seed(context.Background(), accounts, board); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	return svc, repo
}

func newTestSession(svc *app.Service) *app.Session {
	return app.NewSession(svc, &memKV{data: map[string][]byte{}}, app.SessionConfig{
		Sleep: func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	})
}

func TestModelLoadAndNavigation(t *testing.T) {
	svc, _ := newTestService(t)
	m := loadReadyModel(t, NewModel(svc, WithClock(func() time.Time { return testNow })))

	if m.screen != screenBoard || len(m.view.Columns) != 4 {
		t.Fatalf("expected board with 4 columns, got screen %d columns %d", m.screen, len(m.view.Columns))
	}
	if got := m.currentColumnTasks(); len(got) != 2 || got[0].ID != "t1" {
		t.Fatalf("unexpected To Do tasks %#v", got)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	if m.selectedColumn != 1 {
		t.Fatalf("expected selectedColumn=1, got %d", m.selectedColumn)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyLeft})
	m = applyMsg(t, m, keyRune('j'))
	if task, ok := m.selectedTaskInCurrentColumn(); !ok || task.ID != "t2" {
		t.Fatalf("expected t2 selected, got %#v", task)
	}

	out := m.View().Content
	for _, want := range []string{"taskopia", "To Do (2)", "Ship it", "Fix bug", "0 completed • 3 pending • 3 total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in board view\n%s", want, out)
		}
	}
}

func TestModelLoadErrorShowsRetry(t *testing.T) {
	svc, _ := newTestService(t)
	m := loadReadyModel(t, NewModel(failingService{Service: svc}))
	if m.err == nil {
		t.Fatal("expected load error")
	}
	if out := m.View().Content; !strings.Contains(out, "disk on fire") || !strings.Contains(out, "press r to retry") {
		t.Fatalf("unexpected error view %q", out)
	}
}

func TestModelCreateTaskThroughDialog(t *testing.T) {
	svc, repo := newTestService(t)
	m := loadReadyModel(t, NewModel(svc, WithClock(func() time.Time { return testNow })))

	m = sendKeys(t, m, keyRune('n'))
	if m.mode != modeTaskForm || m.dialog.Mode() != domain.DialogCreate {
		t.Fatalf("expected create dialog, got mode %d dialog %q", m.mode, m.dialog.Mode())
	}
	m = typeText(t, m, "Plan sprint")
	m = sendKeys(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m = typeText(t, m, "Pick the next stories")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if m.mode != modeNone || m.dialog.IsOpen() {
		t.Fatalf("expected dialog closed, got mode %d", m.mode)
	}
	board, _ := repo.LoadBoard(context.Background())
	created, ok := board.Task("task-4")
	if !ok {
		t.Fatalf("expected task-4 to be created, board has %#v", board.Tasks())
	}
	if created.Status != domain.StatusToDo || created.Priority != domain.PriorityMedium || created.AssigneeID != "user-1" {
		t.Fatalf("unexpected defaults %#v", created)
	}
	if domain.FormatDate(created.Deadline) != "2026-03-09" {
		t.Fatalf("expected today as default deadline, got %s", domain.FormatDate(created.Deadline))
	}
	if ids := board.ColumnIDs(domain.StatusToDo); ids[len(ids)-1] != "task-4" {
		t.Fatalf("expected new task appended to To Do, got %#v", ids)
	}
	if task, ok := m.selectedTaskInCurrentColumn(); !ok || task.ID != "task-4" {
		t.Fatalf("expected selection to follow the new task, got %#v", task)
	}
}

func TestModelTaskFormValidationKeepsDialogOpen(t *testing.T) {
	svc, _ := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))

	m = sendKeys(t, m, keyRune('n'))
	m = typeText(t, m, "x")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeTaskForm {
		t.Fatalf("expected dialog to stay open, got mode %d", m.mode)
	}
	if got := m.taskForm.errors["title"]; got != "Title must be at least 2 characters." {
		t.Fatalf("unexpected title error %q", got)
	}
	if got := m.taskForm.errors["description"]; got != "Description must be at least 5 characters." {
		t.Fatalf("unexpected description error %q", got)
	}
	if out := m.View().Content; !strings.Contains(out, "Title must be at least 2 characters.") {
		t.Fatalf("expected validation message in view\n%s", out)
	}

	m = sendKeys(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone || m.dialog.IsOpen() {
		t.Fatal("expected esc to close the dialog")
	}
}

func TestModelEditTaskKeepsPickers(t *testing.T) {
	svc, repo := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))

	m = sendKeys(t, m, keyRune('e'))
	bound, ok := m.dialog.Task()
	if !ok || bound.ID != "t1" || m.dialog.Mode() != domain.DialogEdit {
		t.Fatalf("expected edit dialog bound to t1, got %#v", bound)
	}
	m = typeText(t, m, " now")
	// status picker: To Do -> In Progress
	m = sendKeys(t, m, tea.KeyPressMsg{Code: tea.KeyTab}, tea.KeyPressMsg{Code: tea.KeyTab}, tea.KeyPressMsg{Code: tea.KeyRight})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	board, _ := repo.LoadBoard(context.Background())
	updated, _ := board.Task("t1")
	if updated.Title != "Ship it now" || updated.Status != domain.StatusInProgress || updated.AssigneeID != "user-1" {
		t.Fatalf("unexpected updated task %#v", updated)
	}
	if ids := board.ColumnIDs(domain.StatusInProgress); len(ids) != 2 || ids[1] != "t1" {
		t.Fatalf("expected t1 appended to In Progress, got %#v", ids)
	}
}

func TestModelMoveAndReorder(t *testing.T) {
	svc, repo := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('K'))
	board, _ := repo.LoadBoard(context.Background())
	if ids := board.ColumnIDs(domain.StatusToDo); len(ids) != 2 || ids[0] != "t2" || ids[1] != "t1" {
		t.Fatalf("expected reorder to [t2 t1], got %#v", ids)
	}
	if task, ok := m.selectedTaskInCurrentColumn(); !ok || task.ID != "t2" {
		t.Fatalf("expected selection to follow t2, got %#v", task)
	}

	m = applyMsg(t, m, keyRune(']'))
	board, _ = repo.LoadBoard(context.Background())
	if ids := board.ColumnIDs(domain.StatusInProgress); len(ids) != 2 || ids[1] != "t2" {
		t.Fatalf("expected t2 at the end of In Progress, got %#v", ids)
	}
	if task, _ := board.Task("t2"); task.Status != domain.StatusInProgress {
		t.Fatalf("expected t2 status In Progress, got %q", task.Status)
	}
	if m.selectedColumn != 1 {
		t.Fatalf("expected selection to follow into column 1, got %d", m.selectedColumn)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyLeft})
	m = applyMsg(t, m, keyRune('['))
	if !strings.Contains(m.status, "already in To Do") {
		t.Fatalf("expected first-column move to be refused, got %q", m.status)
	}
}

func TestModelDeleteWithConfirmation(t *testing.T) {
	svc, repo := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('d'))
	if m.mode != modeConfirmDelete || m.pendingDelete.ID != "t1" {
		t.Fatalf("expected confirmation for t1, got mode %d pending %q", m.mode, m.pendingDelete.ID)
	}
	if out := m.View().Content; !strings.Contains(out, "Delete task") {
		t.Fatalf("expected confirm overlay\n%s", out)
	}
	m = applyMsg(t, m, keyRune('n'))
	if board, _ := repo.LoadBoard(context.Background()); board.Len() != 3 {
		t.Fatalf("expected cancel to keep the task, got %d tasks", board.Len())
	}

	m = applyMsg(t, m, keyRune('d'))
	m = applyMsg(t, m, keyRune('y'))
	board, _ := repo.LoadBoard(context.Background())
	if _, ok := board.Task("t1"); ok {
		t.Fatal("expected t1 deleted")
	}
	if ids := board.ColumnIDs(domain.StatusToDo); len(ids) != 1 || ids[0] != "t2" {
		t.Fatalf("expected To Do [t2], got %#v", ids)
	}
}

func TestModelDeleteWithoutConfirmation(t *testing.T) {
	svc, repo := newTestService(t)
	m := loadReadyModel(t, NewModel(svc, WithConfirmDelete(false)))

	m = applyMsg(t, m, keyRune('d'))
	if m.mode != modeNone {
		t.Fatalf("expected no confirmation, got mode %d", m.mode)
	}
	if board, _ := repo.LoadBoard(context.Background()); board.Len() != 2 {
		t.Fatalf("expected immediate delete, got %d tasks", board.Len())
	}
}

func TestModelFilters(t *testing.T) {
	svc, _ := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('p'))
	if m.filters.Priority != string(domain.PriorityLow) {
		t.Fatalf("expected Low priority filter, got %q", m.filters.Priority)
	}
	if got := m.view.Columns[0].Tasks; len(got) != 1 || got[0].ID != "t2" {
		t.Fatalf("expected To Do [t2] under Low filter, got %#v", got)
	}
	if m.view.Progress.Total != 3 {
		t.Fatalf("expected progress over the whole board, got %#v", m.view.Progress)
	}
	if out := m.View().Content; !strings.Contains(out, "priority: Low") || !strings.Contains(out, "To Do (1/2)") {
		t.Fatalf("expected filter summary and counts\n%s", out)
	}

	m = applyMsg(t, m, keyRune('c'))
	if m.filters.IsActive() {
		t.Fatalf("expected cleared filters, got %#v", m.filters)
	}

	m = sendKeys(t, m, keyRune('/'))
	if m.mode != modeSearch {
		t.Fatalf("expected search mode, got %d", m.mode)
	}
	m = typeText(t, m, "CRASH")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.filters.Search != "CRASH" {
		t.Fatalf("expected search applied, got %q", m.filters.Search)
	}
	if len(m.view.Columns[0].Tasks) != 0 || len(m.view.Columns[1].Tasks) != 1 {
		t.Fatalf("expected only t3 visible, got %#v", m.view.Columns)
	}

	m = applyMsg(t, m, keyRune('a'))
	if m.filters.AssigneeID != "user-1" {
		t.Fatalf("expected assignee filter user-1, got %q", m.filters.AssigneeID)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.filters.IsActive() {
		t.Fatalf("expected esc to clear filters, got %#v", m.filters)
	}
}

func TestModelDetailScreen(t *testing.T) {
	svc, _ := newTestService(t)
	m := loadReadyModel(t, NewModel(svc, WithMarkdownStyle("notty"), WithClock(func() time.Time { return testNow })))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.screen != screenDetail || m.detail == nil || m.detail.Task.ID != "t1" {
		t.Fatalf("expected detail screen for t1, got screen %d", m.screen)
	}
	out := m.View().Content
	for _, want := range []string{"Ship it", "John Doe", "Frontend Developer", "1 day left", "Release the build", "0%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in detail view\n%s", want, out)
		}
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.screen != screenBoard || m.detail != nil {
		t.Fatalf("expected back on board, got screen %d", m.screen)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if out := m.View().Content; !strings.Contains(out, "overdue by 1 day") {
		t.Fatalf("expected overdue badge for t3\n%s", out)
	}
}

func TestModelAuthLoginFlow(t *testing.T) {
	svc, _ := newTestService(t)
	session := newTestSession(svc)
	m := NewModel(svc, WithSession(session))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = run(t, m, m.Init())
	if m.screen != screenAuth || m.auth.screen != authLogin {
		t.Fatalf("expected login screen, got screen %d auth %d", m.screen, m.auth.screen)
	}

	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.auth.errors["email"] != "Please enter a valid email address" || m.auth.pending {
		t.Fatalf("expected email validation without submit, got %#v", m.auth)
	}

	m = typeText(t, m, "john.doe@example.com")
	m = sendKeys(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m = typeText(t, m, "wrong-password")
	var cmd tea.Cmd
	m, cmd = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if !m.auth.pending || cmd == nil {
		t.Fatal("expected pending submit")
	}
	if out := m.View().Content; !strings.Contains(out, "Signing in...") {
		t.Fatalf("expected loading text\n%s", out)
	}
	m, _ = run(t, m, cmd)
	if m.auth.pending || m.auth.message != "Invalid email or password" {
		t.Fatalf("expected credential error, got %#v", m.auth)
	}

	m, _ = update(t, m, authResultMsg{err: app.ErrAuthPending})
	if !strings.HasPrefix(m.auth.message, "Please wait") {
		t.Fatalf("expected pending message, got %q", m.auth.message)
	}

	m.auth.inputs[1].SetValue("password123")
	m, cmd = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	m, cmd = run(t, m, cmd)
	m = applyCmd(t, m, cmd)
	if m.screen != screenBoard {
		t.Fatalf("expected board after login, got screen %d (%q)", m.screen, m.auth.message)
	}
	if state := session.State(); !state.IsAuthenticated || state.User.ID != "user-1" {
		t.Fatalf("unexpected session state %#v", state)
	}
	if out := m.View().Content; !strings.Contains(out, "John Doe") {
		t.Fatalf("expected signed-in user in header\n%s", out)
	}

	m, cmd = update(t, m, keyRune('L'))
	m, _ = run(t, m, cmd)
	if m.screen != screenAuth || session.State().IsAuthenticated {
		t.Fatalf("expected logout to return to login, got screen %d", m.screen)
	}
}

func TestModelCreatedTaskIsAttributedToSessionUser(t *testing.T) {
	svc, repo := newTestService(t)
	session := newTestSession(svc)
	if _, err := session.Login(context.Background(), domain.Credentials{Email: "alice.smith@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	m := loadReadyModel(t, NewModel(svc, WithSession(session)))
	if m.screen != screenBoard {
		t.Fatalf("expected restored session to open the board, got screen %d", m.screen)
	}

	m = sendKeys(t, m, keyRune('n'))
	m = typeText(t, m, "Review PR")
	m = sendKeys(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m = typeText(t, m, "Check the migration")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	board, _ := repo.LoadBoard(context.Background())
	if task, ok := board.Task("task-4"); !ok || task.AssigneeID != "user-2" {
		t.Fatalf("expected task assigned to the signed-in user, got %#v", task)
	}
	events, _ := repo.ListChangeEvents(context.Background(), 1)
	if len(events) != 1 || events[0].ActorID != "user-2" || events[0].Operation != domain.ChangeOperationCreate {
		t.Fatalf("unexpected newest event %#v", events)
	}

	m = applyMsg(t, m, keyRune('g'))
	if m.mode != modeActivityLog || len(m.activity) != 2 {
		t.Fatalf("expected activity log with 2 events, got mode %d events %d", m.mode, len(m.activity))
	}
	if out := m.View().Content; !strings.Contains(out, "Alice Smith created Review PR in To Do") {
		t.Fatalf("expected create row in activity overlay\n%s", out)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone {
		t.Fatalf("expected activity closed, got %d", m.mode)
	}
}

func TestModelJoinCodeOpensJoinScreen(t *testing.T) {
	svc, _ := newTestService(t)
	m := NewModel(svc, WithSession(newTestSession(svc)), WithJoinCode(" TEAM123 "))
	m, _ = run(t, m, m.Init())
	if m.screen != screenAuth || m.auth.screen != authJoin {
		t.Fatalf("expected join screen, got screen %d auth %d", m.screen, m.auth.screen)
	}
	if got := m.auth.inputs[0].Value(); got != "TEAM123" {
		t.Fatalf("expected prefilled team code, got %q", got)
	}

	m = sendKeys(t, m, tea.KeyPressMsg{Code: 'n', Mod: tea.ModCtrl})
	if m.auth.screen != authLogin {
		t.Fatalf("expected ctrl+n to wrap to login, got %d", m.auth.screen)
	}
}

func TestModelInviteCopiesLink(t *testing.T) {
	svc, _ := newTestService(t)
	session := newTestSession(svc)
	if _, err := session.Login(context.Background(), domain.Credentials{Email: "john.doe@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	var copied string
	m := loadReadyModel(t, NewModel(svc, WithSession(session), WithClipboard(func(s string) error {
		copied = s
		return nil
	})))

	m = sendKeys(t, m, keyRune('I'))
	if m.mode != modeInvite {
		t.Fatalf("expected invite mode, got %d", m.mode)
	}
	m = typeText(t, m, "new.hire@example.com")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.invite.errors["role"] != "Role is required" {
		t.Fatalf("expected role validation, got %#v", m.invite.errors)
	}
	m = sendKeys(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m = typeText(t, m, "QA Engineer")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.invite.result == nil || m.invite.result.Link != app.DefaultInviteOrigin+"/join?code=TEAM123" {
		t.Fatalf("unexpected invitation %#v", m.invite.result)
	}
	if out := m.View().Content; !strings.Contains(out, "/join?code=TEAM123") {
		t.Fatalf("expected link in invite overlay\n%s", out)
	}

	m = applyMsg(t, m, keyRune('c'))
	if copied != m.invite.result.Link || m.status != "invite link copied" {
		t.Fatalf("expected link copied, got %q status %q", copied, m.status)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone || m.invite.result != nil {
		t.Fatal("expected invite overlay closed")
	}
}

func TestModelHelpToggle(t *testing.T) {
	svc, _ := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll || !strings.Contains(m.View().Content, "Taskopia help") {
		t.Fatal("expected help overlay")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.help.ShowAll {
		t.Fatal("expected esc to close help")
	}
}

func TestModelQuitKey(t *testing.T) {
	svc, _ := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))
	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestHelpers(t *testing.T) {
	if got := cycleOption([]string{"All", "Low", "High"}, "high"); got != "All" {
		t.Fatalf("cycleOption() = %q", got)
	}
	if got := cycleOption([]string{"All", "Low"}, "missing"); got != "All" {
		t.Fatalf("cycleOption() unknown = %q", got)
	}
	if got := wrapIndex(0, -1, 4); got != 3 {
		t.Fatalf("wrapIndex() = %d", got)
	}
	if got := wrapIndex(-1, 1, 4); got != 0 {
		t.Fatalf("wrapIndex() from none = %d", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate() = %q", got)
	}
	if got := fitLines("a\nb\nc", 2); got != "a\n…" {
		t.Fatalf("fitLines() = %q", got)
	}
	if start, end := windowBounds(20, 18, 5); start != 15 || end != 20 {
		t.Fatalf("windowBounds() = %d,%d", start, end)
	}
	if got := plural(1, "day"); got != "day" {
		t.Fatalf("plural() = %q", got)
	}
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	return applyMsg(t, applyCmd(t, m, m.Init()), tea.WindowSizeMsg{Width: 120, Height: 40})
}

// update applies msg and returns the follow-up command without running it.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return out, cmd
}

// run executes cmd once and applies its message.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return m, nil
	}
	return update(t, m, cmd())
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	out, cmd := update(t, m, msg)
	return applyCmd(t, out, cmd)
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		out, currentCmd = run(t, out, currentCmd)
	}
	return out
}

// sendKeys applies key presses and drops their commands, which are cursor blinks for text input.
func sendKeys(t *testing.T, m Model, keys ...tea.KeyPressMsg) Model {
	t.Helper()
	for _, k := range keys {
		m, _ = update(t, m, k)
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = update(t, m, keyRune(r))
	}
	return m
}

func keyRune(r rune) tea.KeyPressMsg {
	if r == ' ' {
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	}
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
