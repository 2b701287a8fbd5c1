package tui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/taskopia/taskopia/internal/domain"
)

var (
	mutedColor   = lipgloss.Color("241")
	dimColor     = lipgloss.Color("239")
	accentColor  = lipgloss.Color("62")
	warningColor = lipgloss.Color("214")
	dangerColor  = lipgloss.Color("203")
	successColor = lipgloss.Color("42")
)

// statusColor returns the column accent for a status.
func statusColor(status domain.Status) color.Color {
	switch status {
	case domain.StatusInProgress:
		return lipgloss.Color("39")
	case domain.StatusReview:
		return lipgloss.Color("170")
	case domain.StatusCompleted:
		return successColor
	default:
		return accentColor
	}
}

func priorityColor(priority domain.Priority) color.Color {
	switch priority {
	case domain.PriorityHigh:
		return dangerColor
	case domain.PriorityMedium:
		return warningColor
	default:
		return mutedColor
	}
}

// renderBoardView renders header, columns, progress and the help footer.
func (m Model) renderBoardView() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)

	header := titleStyle.Render("taskopia")
	if m.session != nil {
		if state := m.session.State(); state.User != nil {
			header += "  " + state.User.Name + statusStyle.Render("  ("+state.User.Role+")")
		}
	}
	header += statusStyle.Render("  [" + m.modeLabel() + "]")
	if summary := m.filterSummary(); summary != "" {
		header += statusStyle.Render("  " + summary)
	}

	progress := m.renderProgressLine()

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	statusLine := ""
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		statusLine = statusStyle.Render(m.status)
	}

	chrome := 4 + lipgloss.Height(helpLine)
	if statusLine != "" {
		chrome++
	}
	colHeight := 20
	if m.height > 0 {
		colHeight = max(6, m.height-chrome)
	}

	body := m.renderColumns(colHeight)
	sections := []string{header, progress, body}
	if statusLine != "" {
		sections = append(sections, statusLine)
	}
	content := strings.Join(sections, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	return content + "\n" + helpLine
}

// renderColumns renders the four status columns side by side.
func (m Model) renderColumns(colHeight int) string {
	columnCount := max(1, len(m.view.Columns))
	colWidth := max(18, m.width/columnCount-1)
	innerHeight := max(1, colHeight-2)

	itemSubStyle := lipgloss.NewStyle().Foreground(mutedColor)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedTaskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)

	now := m.now()
	views := make([]string, 0, len(m.view.Columns))
	for colIdx, column := range m.view.Columns {
		accent := statusColor(column.Column.ID)
		colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
		total := len(m.board.ColumnIDs(column.Column.ID))
		heading := fmt.Sprintf("%s (%d)", column.Column.Title, len(column.Tasks))
		if total != len(column.Tasks) {
			heading = fmt.Sprintf("%s (%d/%d)", column.Column.Title, len(column.Tasks), total)
		}
		headerLines := []string{colTitle.Render(heading), ""}

		taskLines := make([]string, 0, len(column.Tasks)*3)
		selectedStart, selectedEnd := -1, -1
		if len(column.Tasks) == 0 {
			taskLines = append(taskLines, emptyStyle.Render("(no tasks)"))
		}
		textWidth := max(1, colWidth-8)
		for taskIdx, task := range column.Tasks {
			selected := colIdx == m.selectedColumn && taskIdx == m.selectedTask
			prefix := "  "
			if selected {
				prefix = "│ "
			}
			title := prefix + truncate(task.Title, textWidth)
			if selected {
				title = selectedTaskStyle.Render(title)
			}
			badge := lipgloss.NewStyle().Foreground(priorityColor(task.Priority)).Render(string(task.Priority))
			sub := prefix + badge + itemSubStyle.Render(" • "+truncate(m.assigneeName(task.AssigneeID), max(1, textWidth/2)))
			sub += " " + deadlineBadge(task, now)

			rowStart := len(taskLines)
			taskLines = append(taskLines, title, sub)
			if taskIdx < len(column.Tasks)-1 {
				taskLines = append(taskLines, "")
			}
			if selected {
				selectedStart, selectedEnd = rowStart, len(taskLines)-1
			}
		}

		window := max(1, innerHeight-len(headerLines))
		scrollTop := 0
		if selectedStart >= 0 && selectedEnd >= window {
			scrollTop = selectedEnd - window + 1
		}
		scrollTop = clamp(scrollTop, 0, max(0, len(taskLines)-window))
		if len(taskLines) > window {
			taskLines = taskLines[scrollTop : scrollTop+window]
		}

		content := fitLines(strings.Join(append(headerLines, taskLines...), "\n"), innerHeight)
		style := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimColor).
			Padding(0, 1).
			Width(colWidth)
		if colIdx == m.selectedColumn {
			style = style.BorderForeground(accent)
		}
		views = append(views, style.Render(content))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// renderProgressLine renders the completion bar for the whole board.
func (m Model) renderProgressLine() string {
	p := m.view.Progress
	barWidth := clamp(m.width/3, 10, 40)
	filled := 0
	if p.Total > 0 {
		filled = barWidth * p.Completed / p.Total
	}
	bar := lipgloss.NewStyle().Foreground(successColor).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(dimColor).Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s %d%%  %d completed • %d pending • %d total", bar, p.Percentage, p.Completed, p.Pending, p.Total)
}

// deadlineBadge renders the deadline with its classification color.
func deadlineBadge(task domain.Task, now time.Time) string {
	label := domain.FormatDate(task.Deadline)
	if task.Status == domain.StatusCompleted {
		return lipgloss.NewStyle().Foreground(mutedColor).Render(label)
	}
	switch domain.ClassifyDeadline(task.Deadline, now) {
	case domain.DeadlineOverdue:
		return lipgloss.NewStyle().Foreground(dangerColor).Bold(true).Render(label + " overdue")
	case domain.DeadlineApproaching:
		return lipgloss.NewStyle().Foreground(warningColor).Render(label + " soon")
	default:
		return lipgloss.NewStyle().Foreground(mutedColor).Render(label)
	}
}

func (m Model) assigneeName(id string) string {
	if user, ok := domain.FindUser(m.view.Users, id); ok {
		return user.Name
	}
	if id == "" {
		return "unassigned"
	}
	return id
}

// filterSummary describes the active filters for the header.
func (m Model) filterSummary() string {
	if !m.filters.IsActive() {
		return ""
	}
	parts := []string{}
	if m.filters.Search != "" {
		parts = append(parts, "search: "+m.filters.Search)
	}
	if m.filters.Priority != domain.FilterAll && m.filters.Priority != "" {
		parts = append(parts, "priority: "+m.filters.Priority)
	}
	if m.filters.AssigneeID != domain.FilterAll && m.filters.AssigneeID != "" {
		parts = append(parts, "assignee: "+m.assigneeLabel(m.filters.AssigneeID))
	}
	if m.filters.Status != domain.FilterAll && m.filters.Status != "" {
		parts = append(parts, "status: "+m.filters.Status)
	}
	return strings.Join(parts, "  ")
}

// modeLabel names the active mode for the header.
func (m Model) modeLabel() string {
	switch m.mode {
	case modeSearch:
		return "search"
	case modeTaskForm:
		if m.dialog.Mode() == domain.DialogEdit {
			return "edit"
		}
		return "new"
	case modeConfirmDelete:
		return "confirm"
	case modeInvite:
		return "invite"
	case modeActivityLog:
		return "activity"
	default:
		if m.screen == screenDetail {
			return "details"
		}
		return "board"
	}
}
