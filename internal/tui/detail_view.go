package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/taskopia/taskopia/internal/domain"
)

// renderDetailView renders the task detail screen.
func (m Model) renderDetailView() string {
	d := m.detail
	accent := statusColor(d.Task.Status)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	labelStyle := lipgloss.NewStyle().Foreground(mutedColor)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(dimColor)

	wrapWidth := max(24, m.width-8)
	field := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + value
	}

	assignee := d.Assignee.Name
	if d.Assignee.Role != "" {
		assignee += labelStyle.Render(" (" + d.Assignee.Role + ")")
	}

	lines := []string{
		titleStyle.Render(d.Task.Title),
		labelStyle.Render(d.Task.ID),
		"",
		field("Status", lipgloss.NewStyle().Foreground(accent).Render(string(d.Task.Status))),
		field("Priority", lipgloss.NewStyle().Foreground(priorityColor(d.Task.Priority)).Render(string(d.Task.Priority))),
		field("Assignee", assignee),
		field("Deadline", domain.FormatDate(d.Task.Deadline)+"  "+m.deadlineText()),
		field("Created", domain.FormatDate(d.Task.CreatedAt)),
		field("Progress", progressBar(d.Progress, clamp(wrapWidth/3, 10, 30))),
		"",
		sectionStyle.Render("Description"),
	}
	description := m.markdown.render(d.Task.Description, wrapWidth)
	if description == "" {
		description = labelStyle.Render("(no description)")
	}
	body := append(lines, strings.Split(description, "\n")...)

	footer := hintStyle.Render("e edit • d delete • j/k scroll • esc back")
	status := ""
	if strings.TrimSpace(m.status) != "" && m.status != "ready" && m.status != "task details" {
		status = lipgloss.NewStyle().Foreground(dimColor).Render(m.status)
	}

	height := len(body)
	if m.height > 0 {
		height = max(3, m.height-2)
		if status != "" {
			height--
		}
	}
	scroll := clamp(m.detailScroll, 0, max(0, len(body)-height))
	visible := body[scroll:]
	content := fitLines(strings.Join(visible, "\n"), height)
	out := content + "\n" + footer
	if status != "" {
		out += "\n" + status
	}
	return out
}

// deadlineText describes the days remaining on the detail screen.
func (m Model) deadlineText() string {
	d := m.detail
	switch {
	case d.Task.Status == domain.StatusCompleted:
		return lipgloss.NewStyle().Foreground(successColor).Render("done")
	case d.Overdue:
		days := -d.DaysRemaining
		return lipgloss.NewStyle().Foreground(dangerColor).Bold(true).Render(fmt.Sprintf("overdue by %d %s", days, plural(days, "day")))
	case d.DaysRemaining == 0:
		return lipgloss.NewStyle().Foreground(warningColor).Render("due today")
	case d.DeadlineState == domain.DeadlineApproaching:
		return lipgloss.NewStyle().Foreground(warningColor).Render(fmt.Sprintf("%d %s left", d.DaysRemaining, plural(d.DaysRemaining, "day")))
	default:
		return lipgloss.NewStyle().Foreground(mutedColor).Render(fmt.Sprintf("%d %s left", d.DaysRemaining, plural(d.DaysRemaining, "day")))
	}
}

func progressBar(percent, width int) string {
	percent = clamp(percent, 0, 100)
	filled := width * percent / 100
	return lipgloss.NewStyle().Foreground(successColor).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(dimColor).Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %d%%", percent)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
