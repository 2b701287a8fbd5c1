package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/taskopia/taskopia/internal/domain"
)

// task dialog field indexes in display order.
const (
	taskFieldTitle = iota
	taskFieldDescription
	taskFieldStatus
	taskFieldPriority
	taskFieldDeadline
	taskFieldAssignee
	taskFieldCount
)

// taskFormKeys maps field indexes to validation error keys.
var taskFormKeys = []string{"title", "description", "status", "priority", "deadline", "assigneeId"}

var taskFormLabels = []string{"Title", "Description", "Status", "Priority", "Deadline", "Assignee"}

// taskForm is the task dialog input. Status, priority and assignee are pickers; the rest are
// text inputs.
type taskForm struct {
	title       textinput.Model
	description textinput.Model
	deadline    textinput.Model
	statusIdx   int
	priorityIdx int
	assigneeIdx int
	focus       int
	errors      domain.ValidationErrors
	users       []domain.User
}

// openCreateDialog opens an empty dialog defaulting to the selected column.
func (m *Model) openCreateDialog() tea.Cmd {
	m.dialog.OpenCreate()
	form := m.newTaskForm()
	form.statusIdx = max(0, slices.Index(domain.ColumnOrder, m.currentStatus()))
	form.priorityIdx = max(0, slices.Index(domain.Priorities(), domain.PriorityMedium))
	form.deadline.SetValue(domain.FormatDate(m.now()))
	form.assigneeIdx = m.defaultAssigneeIndex(form.users)
	m.taskForm = form
	m.mode = modeTaskForm
	m.status = "new task"
	return m.focusTaskFormField(taskFieldTitle)
}

// openEditDialog opens the dialog bound to a snapshot of task.
func (m *Model) openEditDialog(task domain.Task) tea.Cmd {
	m.dialog.OpenEdit(task)
	form := m.newTaskForm()
	form.title.SetValue(task.Title)
	form.description.SetValue(task.Description)
	form.deadline.SetValue(domain.FormatDate(task.Deadline))
	form.title.CursorEnd()
	form.description.CursorEnd()
	form.deadline.CursorEnd()
	form.statusIdx = max(0, slices.Index(domain.ColumnOrder, task.Status))
	form.priorityIdx = max(0, slices.Index(domain.Priorities(), task.Priority))
	form.assigneeIdx = slices.IndexFunc(form.users, func(u domain.User) bool { return u.ID == task.AssigneeID })
	m.taskForm = form
	m.mode = modeTaskForm
	m.status = "edit task"
	return m.focusTaskFormField(taskFieldTitle)
}

func (m Model) newTaskForm() taskForm {
	return taskForm{
		title:       newModalInput("", "at least 2 characters", "", 120),
		description: newModalInput("", "at least 5 characters", "", 500),
		deadline:    newModalInput("", domain.DateLayout, "", 10),
		users:       append([]domain.User(nil), m.view.Users...),
		assigneeIdx: -1,
	}
}

// defaultAssigneeIndex prefers the signed-in user, then the first roster user.
func (m Model) defaultAssigneeIndex(users []domain.User) int {
	if len(users) == 0 {
		return -1
	}
	if m.session != nil {
		if state := m.session.State(); state.User != nil {
			if idx := slices.IndexFunc(users, func(u domain.User) bool { return u.ID == state.User.ID }); idx >= 0 {
				return idx
			}
		}
	}
	return 0
}

func (m *Model) focusTaskFormField(idx int) tea.Cmd {
	idx = clamp(idx, 0, taskFieldCount-1)
	m.taskForm.focus = idx
	m.taskForm.title.Blur()
	m.taskForm.description.Blur()
	m.taskForm.deadline.Blur()
	switch idx {
	case taskFieldTitle:
		return m.taskForm.title.Focus()
	case taskFieldDescription:
		return m.taskForm.description.Focus()
	case taskFieldDeadline:
		return m.taskForm.deadline.Focus()
	}
	return nil
}

// value returns the raw form values.
func (f taskForm) value() domain.TaskForm {
	form := domain.TaskForm{
		Title:       f.title.Value(),
		Description: f.description.Value(),
		Deadline:    f.deadline.Value(),
	}
	if f.statusIdx >= 0 && f.statusIdx < len(domain.ColumnOrder) {
		form.Status = string(domain.ColumnOrder[f.statusIdx])
	}
	priorities := domain.Priorities()
	if f.priorityIdx >= 0 && f.priorityIdx < len(priorities) {
		form.Priority = string(priorities[f.priorityIdx])
	}
	if f.assigneeIdx >= 0 && f.assigneeIdx < len(f.users) {
		form.AssigneeID = f.users[f.assigneeIdx].ID
	}
	return form
}

// cyclePicker moves the focused picker by delta. It reports false for text fields.
func (f *taskForm) cyclePicker(delta int) bool {
	switch f.focus {
	case taskFieldStatus:
		f.statusIdx = wrapIndex(f.statusIdx, delta, len(domain.ColumnOrder))
	case taskFieldPriority:
		f.priorityIdx = wrapIndex(f.priorityIdx, delta, len(domain.Priorities()))
	case taskFieldAssignee:
		f.assigneeIdx = wrapIndex(f.assigneeIdx, delta, len(f.users))
	default:
		return false
	}
	return true
}

func (m Model) handleTaskFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.dialog.Close()
		m.mode = modeNone
		m.status = "cancelled"
		return m, nil
	case "tab", "down":
		return m, m.focusTaskFormField((m.taskForm.focus + 1) % taskFieldCount)
	case "shift+tab", "up":
		return m, m.focusTaskFormField((m.taskForm.focus - 1 + taskFieldCount) % taskFieldCount)
	case "enter":
		return m.submitTaskForm()
	case "left", "h":
		if m.taskForm.cyclePicker(-1) {
			return m, nil
		}
	case "right", "l", "space":
		if m.taskForm.cyclePicker(1) {
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.taskForm.focus {
	case taskFieldTitle:
		m.taskForm.title, cmd = m.taskForm.title.Update(msg)
	case taskFieldDescription:
		m.taskForm.description, cmd = m.taskForm.description.Update(msg)
	case taskFieldDeadline:
		m.taskForm.deadline, cmd = m.taskForm.deadline.Update(msg)
	}
	return m, cmd
}

// submitTaskForm sends the dialog to the service; validation errors keep the dialog open.
func (m Model) submitTaskForm() (tea.Model, tea.Cmd) {
	form := m.taskForm.value()
	ctx := m.ctx()
	svc := m.svc
	switch m.dialog.Mode() {
	case domain.DialogCreate:
		return m, func() tea.Msg {
			task, err := svc.CreateTaskFromForm(ctx, form)
			return taskSavedMsg{task: task, created: true, err: err}
		}
	case domain.DialogEdit:
		bound, _ := m.dialog.Task()
		return m, func() tea.Msg {
			task, err := svc.UpdateTaskFromForm(ctx, bound.ID, form)
			return taskSavedMsg{task: task, err: err}
		}
	}
	m.mode = modeNone
	return m, nil
}

func (m Model) applyTaskSaved(msg taskSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		var validation domain.ValidationErrors
		if errors.As(msg.err, &validation) && m.mode == modeTaskForm {
			m.taskForm.errors = validation
			m.status = "please fix the highlighted fields"
			return m, nil
		}
		m.status = "error: " + msg.err.Error()
		return m, nil
	}
	m.dialog.Close()
	m.mode = modeNone
	m.focusTaskID = msg.task.ID
	if msg.created {
		m.status = fmt.Sprintf("created %q", truncate(msg.task.Title, 32))
	} else {
		m.status = fmt.Sprintf("updated %q", truncate(msg.task.Title, 32))
	}
	if m.screen == screenDetail {
		return m, tea.Batch(m.loadData, m.loadDetail(msg.task.ID))
	}
	return m, m.loadData
}

// renderTaskForm renders the task dialog overlay.
func (m Model) renderTaskForm() string {
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	width := clamp(m.width-12, 44, 80)

	title := "New task"
	if m.dialog.Mode() == domain.DialogEdit {
		title = "Edit task"
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accent).Render(title), ""}

	f := m.taskForm
	priorities := domain.Priorities()
	for idx := 0; idx < taskFieldCount; idx++ {
		labelStyle := lipgloss.NewStyle().Foreground(muted)
		if idx == f.focus {
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
		}
		var value string
		switch idx {
		case taskFieldTitle:
			in := f.title
			in.SetWidth(width - 18)
			value = in.View()
		case taskFieldDescription:
			in := f.description
			in.SetWidth(width - 18)
			value = in.View()
		case taskFieldDeadline:
			in := f.deadline
			in.SetWidth(width - 18)
			value = in.View()
		case taskFieldStatus:
			value = pickerValue(string(domain.ColumnOrder[clamp(f.statusIdx, 0, len(domain.ColumnOrder)-1)]), idx == f.focus)
		case taskFieldPriority:
			value = pickerValue(string(priorities[clamp(f.priorityIdx, 0, len(priorities)-1)]), idx == f.focus)
		case taskFieldAssignee:
			name := "(none)"
			if f.assigneeIdx >= 0 && f.assigneeIdx < len(f.users) {
				name = f.users[f.assigneeIdx].Name
			}
			value = pickerValue(name, idx == f.focus)
		}
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-12s", taskFormLabels[idx]))+" "+value)
		if msg := f.errors[taskFormKeys[idx]]; msg != "" {
			lines = append(lines, strings.Repeat(" ", 13)+errorStyle.Render(msg))
		}
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render("tab next • ←/→ change picker • enter save • esc cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

func pickerValue(value string, focused bool) string {
	if focused {
		return "‹ " + value + " ›"
	}
	return "  " + value
}

// wrapIndex moves current by delta within [0, total).
func wrapIndex(current int, delta int, total int) int {
	if total <= 0 {
		return -1
	}
	if current < 0 {
		if delta < 0 {
			return total - 1
		}
		return 0
	}
	return ((current+delta)%total + total) % total
}
