package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/taskopia/taskopia/internal/app"
	"github.com/taskopia/taskopia/internal/domain"
)

// Service is the board surface the terminal UI drives.
type Service interface {
	Board(context.Context) (domain.Board, error)
	BoardView(context.Context, domain.FilterOptions) (app.BoardView, error)
	CreateTaskFromForm(context.Context, domain.TaskForm) (domain.Task, error)
	UpdateTaskFromForm(context.Context, string, domain.TaskForm) (domain.Task, error)
	DeleteTask(context.Context, string) error
	MoveTask(context.Context, app.MoveTaskInput) (domain.Task, error)
	GetTaskDetail(context.Context, string) (app.TaskDetail, error)
	ListChangeEvents(context.Context, int) ([]domain.ChangeEvent, error)
}

// Session is the authentication state the UI signs in through.
type Session interface {
	State() app.SessionState
	Restore(context.Context) (app.SessionState, error)
	Login(context.Context, domain.Credentials) (app.SessionState, error)
	Signup(context.Context, domain.SignupForm) (app.SessionState, error)
	Join(context.Context, domain.JoinForm) (app.SessionState, error)
	Invite(context.Context, domain.InviteForm) (app.Invitation, error)
	Logout(context.Context) error
	Context(context.Context) context.Context
}

// screen names the routed view.
type screen int

const (
	screenLoading screen = iota
	screenAuth
	screenBoard
	screenDetail
)

// inputMode represents a board overlay.
type inputMode int

const (
	modeNone inputMode = iota
	modeSearch
	modeTaskForm
	modeConfirmDelete
	modeInvite
	modeActivityLog
)

// activity log limits used by the overlay.
const (
	activityLogLimit      = 50
	activityLogViewWindow = 14
)

// moveToEnd is clamped by the board to the end of the destination column.
const moveToEnd = math.MaxInt32

// Model is the bubbletea model for the board.
type Model struct {
	svc     Service
	session Session

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	screen screen
	auth   authForm

	view           app.BoardView
	board          domain.Board
	filters        domain.FilterOptions
	selectedColumn int
	selectedTask   int
	focusTaskID    string

	mode        inputMode
	searchInput textinput.Model

	dialog   domain.Dialog
	taskForm taskForm

	confirmDelete bool
	pendingDelete domain.Task
	confirmChoice int

	invite inviteForm

	activity       []domain.ChangeEvent
	activityScroll int

	detail       *app.TaskDetail
	detailScroll int

	markdown        *markdownRenderer
	joinCode        string
	copyToClipboard func(string) error
	now             func() time.Time
}

// sessionRestoredMsg carries the persisted session read at startup.
type sessionRestoredMsg struct {
	state app.SessionState
	err   error
}

// authResultMsg carries the outcome of a login, signup or join submit.
type authResultMsg struct {
	state app.SessionState
	err   error
}

// loggedOutMsg reports a finished logout.
type loggedOutMsg struct {
	err error
}

// loadedMsg carries the board projection and the unfiltered board.
type loadedMsg struct {
	view  app.BoardView
	board domain.Board
	err   error
}

// actionMsg carries the result of a board mutation.
type actionMsg struct {
	err         error
	status      string
	reload      bool
	focusTaskID string
}

// taskSavedMsg carries the result of a task dialog submit.
type taskSavedMsg struct {
	task    domain.Task
	created bool
	err     error
}

// detailLoadedMsg carries the detail screen contents.
type detailLoadedMsg struct {
	detail app.TaskDetail
	err    error
}

// activityLoadedMsg carries the newest-first activity log.
type activityLoadedMsg struct {
	events []domain.ChangeEvent
	err    error
}

// inviteResultMsg carries a generated invitation.
type inviteResultMsg struct {
	invitation app.Invitation
	err        error
}

// NewModel constructs the board model.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	searchInput := newModalInput("", "title or description", "", 120)
	m := Model{
		svc:             svc,
		status:          "loading...",
		help:            h,
		keys:            newKeyMap(),
		filters:         domain.DefaultFilters(),
		searchInput:     searchInput,
		confirmDelete:   true,
		markdown:        &markdownRenderer{style: "dark"},
		copyToClipboard: clipboard.WriteAll,
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init restores the session when one is configured and loads the board otherwise.
func (m Model) Init() tea.Cmd {
	if m.session != nil {
		return m.restoreSession
	}
	return m.loadData
}

// Update updates state for the received message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionRestoredMsg:
		if msg.err != nil {
			m.status = "session unavailable: " + msg.err.Error()
		}
		if msg.state.IsAuthenticated && m.joinCode == "" {
			m.screen = screenLoading
			return m, m.loadData
		}
		if m.joinCode != "" {
			return m, m.startAuth(authJoin)
		}
		return m, m.startAuth(authLogin)

	case authResultMsg:
		if errors.Is(msg.err, app.ErrAuthPending) {
			m.auth.message = app.UserMessage(msg.err)
			return m, nil
		}
		m.auth.pending = false
		if msg.err != nil {
			var validation domain.ValidationErrors
			if errors.As(msg.err, &validation) {
				m.auth.errors = validation
				m.auth.message = ""
				return m, nil
			}
			m.auth.message = msg.state.Error
			if m.auth.message == "" {
				m.auth.message = app.UserMessage(msg.err)
			}
			return m, nil
		}
		m.joinCode = ""
		m.auth = authForm{}
		m.screen = screenLoading
		m.status = "signed in"
		if msg.state.User != nil {
			m.status = "signed in as " + msg.state.User.Name
		}
		return m, m.loadData

	case loggedOutMsg:
		if msg.err != nil {
			m.status = "logout failed: " + msg.err.Error()
			return m, nil
		}
		m.resetBoardState()
		return m, m.startAuth(authLogin)

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view = msg.view
		m.board = msg.board
		m.filters = msg.view.Filters
		if m.screen == screenLoading || m.screen == screenAuth {
			m.screen = screenBoard
		}
		m.clampSelections()
		if m.focusTaskID != "" {
			m.focusTaskByID(m.focusTaskID)
			m.focusTaskID = ""
		}
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = "error: " + app.UserMessage(msg.err)
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusTaskID != "" {
			m.focusTaskID = msg.focusTaskID
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case taskSavedMsg:
		return m.applyTaskSaved(msg)

	case detailLoadedMsg:
		if msg.err != nil {
			m.status = "error: " + app.UserMessage(msg.err)
			if m.screen == screenDetail {
				m.screen = screenBoard
				m.detail = nil
			}
			return m, nil
		}
		detail := msg.detail
		m.detail = &detail
		m.detailScroll = 0
		m.screen = screenDetail
		m.status = "task details"
		return m, nil

	case activityLoadedMsg:
		if msg.err != nil {
			m.status = "activity log unavailable: " + msg.err.Error()
			return m, nil
		}
		m.activity = msg.events
		m.activityScroll = 0
		return m, nil

	case inviteResultMsg:
		m.invite.pending = false
		if msg.err != nil {
			var validation domain.ValidationErrors
			if errors.As(msg.err, &validation) {
				m.invite.errors = validation
				return m, nil
			}
			m.invite.message = app.UserMessage(msg.err)
			return m, nil
		}
		inv := msg.invitation
		m.invite.result = &inv
		m.invite.message = ""
		m.status = "invitation ready"
		return m, nil

	case tea.KeyPressMsg:
		switch m.screen {
		case screenAuth:
			return m.handleAuthKey(msg)
		case screenDetail:
			if m.mode == modeNone {
				return m.handleDetailKey(msg)
			}
		case screenLoading:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			if m.err != nil && key.Matches(msg, m.keys.reload) {
				m.err = nil
				return m, m.loadData
			}
			return m, nil
		}
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		if m.screen == screenAuth {
			return m.updateAuthInput(msg)
		}
		return m, nil
	}
}

// View renders the routed screen.
func (m Model) View() tea.View {
	var content string
	switch {
	case m.err != nil:
		content = "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	case !m.ready:
		content = "loading..."
	case m.screen == screenAuth:
		content = m.renderAuthView()
	case m.screen == screenDetail && m.detail != nil:
		content = m.withOverlay(m.renderDetailView())
	case m.screen == screenBoard || m.screen == screenDetail:
		content = m.withOverlay(m.renderBoardView())
	default:
		content = "loading..."
	}
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// ctx returns a context attributed to the signed-in user.
func (m Model) ctx() context.Context {
	ctx := context.Background()
	if m.session != nil {
		return m.session.Context(ctx)
	}
	return ctx
}

// restoreSession reads the persisted session once.
func (m Model) restoreSession() tea.Msg {
	state, err := m.session.Restore(context.Background())
	return sessionRestoredMsg{state: state, err: err}
}

// loadData loads the filtered board projection.
func (m Model) loadData() tea.Msg {
	view, err := m.svc.BoardView(m.ctx(), m.filters)
	if err != nil {
		return loadedMsg{err: err}
	}
	board, err := m.svc.Board(m.ctx())
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{view: view, board: board}
}

// loadActivityLog loads the newest change events.
func (m Model) loadActivityLog() tea.Msg {
	events, err := m.svc.ListChangeEvents(m.ctx(), activityLogLimit)
	return activityLoadedMsg{events: events, err: err}
}

// loadDetail resolves one task for the detail screen.
func (m Model) loadDetail(taskID string) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.svc.GetTaskDetail(m.ctx(), taskID)
		return detailLoadedMsg{detail: detail, err: err}
	}
}

// resetBoardState drops everything tied to the signed-in user.
func (m *Model) resetBoardState() {
	m.view = app.BoardView{}
	m.board = domain.Board{}
	m.filters = domain.DefaultFilters()
	m.selectedColumn = 0
	m.selectedTask = 0
	m.mode = modeNone
	m.dialog.Close()
	m.detail = nil
	m.activity = nil
	m.invite = inviteForm{}
	m.help.ShowAll = false
	m.status = "signed out"
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
			return m, nil
		}
		if m.filters.IsActive() {
			return m.clearFilters()
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.view.Columns)-1 {
			m.selectedColumn++
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if tasks := m.currentColumnTasks(); len(tasks) > 0 && m.selectedTask < len(tasks)-1 {
			m.selectedTask++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedTask > 0 {
			m.selectedTask--
		}
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		m.help.ShowAll = false
		return m, m.openCreateDialog()
	case key.Matches(msg, m.keys.taskInfo):
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.loadDetail(task.ID)
	case key.Matches(msg, m.keys.editTask):
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.openEditDialog(task)
	case key.Matches(msg, m.keys.deleteTask):
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m.requestDelete(task)
	case key.Matches(msg, m.keys.moveTaskLeft):
		return m.moveSelectedAcross(-1)
	case key.Matches(msg, m.keys.moveTaskRight):
		return m.moveSelectedAcross(1)
	case key.Matches(msg, m.keys.reorderUp):
		return m.reorderSelected(-1)
	case key.Matches(msg, m.keys.reorderDown):
		return m.reorderSelected(1)
	case key.Matches(msg, m.keys.search):
		return m, m.startSearchMode()
	case key.Matches(msg, m.keys.filterPriority):
		options := []string{domain.FilterAll}
		for _, p := range domain.Priorities() {
			options = append(options, string(p))
		}
		m.filters.Priority = cycleOption(options, m.filters.Priority)
		m.status = "priority: " + m.filters.Priority
		return m, m.loadData
	case key.Matches(msg, m.keys.filterAssignee):
		options := []string{domain.FilterAll}
		for _, user := range m.view.Users {
			options = append(options, user.ID)
		}
		m.filters.AssigneeID = cycleOption(options, m.filters.AssigneeID)
		m.status = "assignee: " + m.assigneeLabel(m.filters.AssigneeID)
		return m, m.loadData
	case key.Matches(msg, m.keys.filterStatus):
		options := []string{domain.FilterAll}
		for _, status := range domain.ColumnOrder {
			options = append(options, string(status))
		}
		m.filters.Status = cycleOption(options, m.filters.Status)
		m.status = "status: " + m.filters.Status
		return m, m.loadData
	case key.Matches(msg, m.keys.clearFilters):
		return m.clearFilters()
	case key.Matches(msg, m.keys.invite):
		if m.session == nil {
			m.status = "invites need a signed-in session"
			return m, nil
		}
		return m, m.startInvite()
	case key.Matches(msg, m.keys.activityLog):
		m.mode = modeActivityLog
		m.status = "activity log"
		return m, m.loadActivityLog
	case key.Matches(msg, m.keys.logout):
		if m.session == nil {
			return m, nil
		}
		session := m.session
		return m, func() tea.Msg {
			return loggedOutMsg{err: session.Logout(context.Background())}
		}
	default:
		return m, nil
	}
}

func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeSearch:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.searchInput.Blur()
			m.status = "search cancelled"
			return m, nil
		case "enter":
			m.mode = modeNone
			m.searchInput.Blur()
			m.filters.Search = strings.TrimSpace(m.searchInput.Value())
			if m.filters.Search == "" {
				m.status = "search cleared"
			} else {
				m.status = "search: " + m.filters.Search
			}
			m.selectedTask = 0
			return m, m.loadData
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	case modeTaskForm:
		return m.handleTaskFormKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	case modeInvite:
		return m.handleInviteKey(msg)
	case modeActivityLog:
		switch msg.String() {
		case "esc", "g", "q":
			m.mode = modeNone
			m.status = "ready"
		case "j", "down":
			m.activityScroll = clamp(m.activityScroll+1, 0, max(0, len(m.activity)-activityLogViewWindow))
		case "k", "up":
			m.activityScroll = clamp(m.activityScroll-1, 0, max(0, len(m.activity)-activityLogViewWindow))
		}
		return m, nil
	}
	return m, nil
}

// handleDetailKey handles keys on the task detail screen.
func (m Model) handleDetailKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case msg.String() == "esc", msg.String() == "backspace", key.Matches(msg, m.keys.quit):
		m.screen = screenBoard
		m.detail = nil
		m.status = "ready"
		return m, m.loadData
	case key.Matches(msg, m.keys.editTask):
		return m, m.openEditDialog(m.detail.Task)
	case key.Matches(msg, m.keys.deleteTask):
		return m.requestDelete(m.detail.Task)
	case key.Matches(msg, m.keys.moveDown):
		m.detailScroll++
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.detailScroll = max(0, m.detailScroll-1)
		return m, nil
	}
	return m, nil
}

func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.screen != screenBoard || m.mode != modeNone {
		return m, nil
	}
	tasks := m.currentColumnTasks()
	if len(tasks) == 0 {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		if m.selectedTask > 0 {
			m.selectedTask--
		}
	case tea.MouseWheelDown:
		if m.selectedTask < len(tasks)-1 {
			m.selectedTask++
		}
	}
	return m, nil
}

// startSearchMode opens the search prompt with the current query.
func (m *Model) startSearchMode() tea.Cmd {
	m.mode = modeSearch
	m.help.ShowAll = false
	m.searchInput.SetValue(m.filters.Search)
	m.searchInput.CursorEnd()
	m.status = "search"
	return m.searchInput.Focus()
}

// clearFilters resets every filter to its neutral value.
func (m Model) clearFilters() (tea.Model, tea.Cmd) {
	m.filters.Clear()
	m.searchInput.SetValue("")
	m.selectedTask = 0
	m.status = "filters cleared"
	return m, m.loadData
}

// requestDelete deletes task, asking first when confirmation is enabled.
func (m Model) requestDelete(task domain.Task) (tea.Model, tea.Cmd) {
	if !m.confirmDelete {
		return m, m.deleteTaskCmd(task)
	}
	m.pendingDelete = task
	m.confirmChoice = 1
	m.mode = modeConfirmDelete
	m.status = "confirm delete"
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.confirmChoice = 0
	case "n", "esc":
		m.mode = modeNone
		m.pendingDelete = domain.Task{}
		m.status = "delete cancelled"
		return m, nil
	case "h", "left", "l", "right", "tab":
		m.confirmChoice = 1 - m.confirmChoice
		return m, nil
	case "enter":
	default:
		return m, nil
	}
	task := m.pendingDelete
	m.mode = modeNone
	m.pendingDelete = domain.Task{}
	if m.confirmChoice != 0 {
		m.status = "delete cancelled"
		return m, nil
	}
	return m, m.deleteTaskCmd(task)
}

// deleteTaskCmd removes task and leaves the detail screen if it showed it.
func (m *Model) deleteTaskCmd(task domain.Task) tea.Cmd {
	if m.screen == screenDetail {
		m.screen = screenBoard
		m.detail = nil
	}
	ctx := m.ctx()
	svc := m.svc
	return func() tea.Msg {
		if err := svc.DeleteTask(ctx, task.ID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: fmt.Sprintf("deleted %q", truncate(task.Title, 32)), reload: true}
	}
}

// moveSelectedAcross moves the selected task to the end of the neighbouring column.
func (m Model) moveSelectedAcross(delta int) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTaskInCurrentColumn()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	to := task.Status.Next()
	if delta < 0 {
		to = task.Status.Prev()
	}
	if to == task.Status {
		m.status = "already in " + string(task.Status)
		return m, nil
	}
	return m, m.moveTaskCmd(app.MoveTaskInput{TaskID: task.ID, From: task.Status, To: to, Index: moveToEnd})
}

// reorderSelected swaps the selected task with its visible neighbour in the same column.
func (m Model) reorderSelected(delta int) (tea.Model, tea.Cmd) {
	tasks := m.currentColumnTasks()
	task, ok := m.selectedTaskInCurrentColumn()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	target := m.selectedTask + delta
	if target < 0 || target >= len(tasks) {
		return m, nil
	}
	_, index, found := m.board.Position(tasks[target].ID)
	if !found {
		m.status = "board out of date, reloading"
		return m, m.loadData
	}
	return m, m.moveTaskCmd(app.MoveTaskInput{TaskID: task.ID, From: task.Status, To: task.Status, Index: index})
}

func (m Model) moveTaskCmd(in app.MoveTaskInput) tea.Cmd {
	ctx := m.ctx()
	svc := m.svc
	return func() tea.Msg {
		moved, err := svc.MoveTask(ctx, in)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{
			status:      fmt.Sprintf("moved %q to %s", truncate(moved.Title, 32), moved.Status),
			reload:      true,
			focusTaskID: moved.ID,
		}
	}
}

// cycleOption returns the option after current, wrapping around.
func cycleOption(options []string, current string) string {
	for idx, option := range options {
		if strings.EqualFold(option, current) {
			return options[(idx+1)%len(options)]
		}
	}
	return options[0]
}

// assigneeLabel returns the display name of a user id filter value.
func (m Model) assigneeLabel(id string) string {
	if id == "" || id == domain.FilterAll {
		return domain.FilterAll
	}
	if user, ok := domain.FindUser(m.view.Users, id); ok {
		return user.Name
	}
	return id
}

func (m *Model) clampSelections() {
	if len(m.view.Columns) == 0 {
		m.selectedColumn = 0
		m.selectedTask = 0
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.view.Columns)-1)
	m.selectedTask = clamp(m.selectedTask, 0, max(0, len(m.currentColumnTasks())-1))
}

func (m Model) currentColumnTasks() []domain.Task {
	if m.selectedColumn < 0 || m.selectedColumn >= len(m.view.Columns) {
		return nil
	}
	return m.view.Columns[m.selectedColumn].Tasks
}

func (m Model) selectedTaskInCurrentColumn() (domain.Task, bool) {
	tasks := m.currentColumnTasks()
	if len(tasks) == 0 || m.selectedTask < 0 || m.selectedTask >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[m.selectedTask], true
}

// currentStatus returns the status of the selected column.
func (m Model) currentStatus() domain.Status {
	if m.selectedColumn < 0 || m.selectedColumn >= len(m.view.Columns) {
		return domain.StatusToDo
	}
	return m.view.Columns[m.selectedColumn].Column.ID
}

// focusTaskByID selects the column and row holding taskID.
func (m *Model) focusTaskByID(taskID string) {
	for colIdx, column := range m.view.Columns {
		for taskIdx, task := range column.Tasks {
			if task.ID == taskID {
				m.selectedColumn = colIdx
				m.selectedTask = taskIdx
				return
			}
		}
	}
}

// withOverlay composes the active overlay over base.
func (m Model) withOverlay(base string) string {
	overlay := m.renderModeOverlay()
	if m.help.ShowAll && m.mode == modeNone {
		overlay = m.renderHelpOverlay()
	}
	if overlay == "" {
		return base
	}
	height := lipgloss.Height(base)
	if m.height > 0 {
		height = m.height
	}
	return overlayOnContent(base, overlay, max(1, m.width), max(1, height))
}
