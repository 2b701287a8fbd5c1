package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/taskopia/taskopia/internal/domain"
)

// renderModeOverlay renders the overlay of the active input mode, if any.
func (m Model) renderModeOverlay() string {
	switch m.mode {
	case modeSearch:
		return m.renderSearchOverlay()
	case modeTaskForm:
		return m.renderTaskForm()
	case modeConfirmDelete:
		return m.renderConfirmOverlay()
	case modeInvite:
		return m.renderInviteOverlay()
	case modeActivityLog:
		return m.renderActivityOverlay()
	}
	return ""
}

func overlayBox(width int, lines ...string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderSearchOverlay() string {
	width := clamp(m.width-16, 40, 72)
	in := m.searchInput
	in.SetWidth(width - 6)
	return overlayBox(width,
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Search tasks"),
		"",
		in.View(),
		"",
		lipgloss.NewStyle().Foreground(dimColor).Render("enter apply • empty clears • esc cancel"),
	)
}

func (m Model) renderConfirmOverlay() string {
	yes, no := "[ delete ]", "[ keep ]"
	idle := lipgloss.NewStyle().Foreground(mutedColor)
	if m.confirmChoice == 0 {
		yes, no = lipgloss.NewStyle().Bold(true).Foreground(dangerColor).Render(yes), idle.Render(no)
	} else {
		yes, no = idle.Render(yes), lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render(no)
	}
	return overlayBox(clamp(m.width-16, 40, 64),
		lipgloss.NewStyle().Bold(true).Foreground(dangerColor).Render("Delete task"),
		"",
		fmt.Sprintf("Delete %q? This cannot be undone.", truncate(m.pendingDelete.Title, 40)),
		"",
		yes+"  "+no,
		"",
		lipgloss.NewStyle().Foreground(dimColor).Render("y/n • ←/→ choose • enter confirm • esc cancel"),
	)
}

// renderActivityOverlay renders the newest-first activity log.
func (m Model) renderActivityOverlay() string {
	width := clamp(m.width-12, 48, 96)
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Activity"), ""}
	if len(m.activity) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(mutedColor).Render("(no activity yet)"))
	}
	start, end := windowBounds(len(m.activity), m.activityScroll, activityLogViewWindow)
	for _, event := range m.activity[start:end] {
		lines = append(lines, truncate(m.describeEvent(event), width-4))
	}
	if len(m.activity) > activityLogViewWindow {
		lines = append(lines, lipgloss.NewStyle().Foreground(dimColor).Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(m.activity))))
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(dimColor).Render("j/k scroll • esc close"))
	return overlayBox(width, lines...)
}

// describeEvent renders one change event as a log row.
func (m Model) describeEvent(event domain.ChangeEvent) string {
	at := event.OccurredAt.Local().Format("Jan 02 15:04")
	actor := m.assigneeName(event.ActorID)
	if event.ActorID == "" {
		actor = "system"
	}
	target := strings.TrimSpace(event.Metadata["title"])
	if target == "" {
		target = event.TaskID
	}
	var what string
	switch event.Operation {
	case domain.ChangeOperationCreate:
		what = fmt.Sprintf("created %s in %s", target, event.Metadata["status"])
	case domain.ChangeOperationUpdate:
		what = "updated " + target
	case domain.ChangeOperationMove:
		what = fmt.Sprintf("moved %s from %s to %s", target, event.Metadata["from_status"], event.Metadata["to_status"])
	case domain.ChangeOperationDelete:
		what = "deleted " + target
	case domain.ChangeOperationImport:
		what = fmt.Sprintf("imported %s tasks from %s", event.Metadata["tasks"], event.Metadata["source"])
	default:
		what = string(event.Operation) + " " + target
	}
	return fmt.Sprintf("%s  %s %s", lipgloss.NewStyle().Foreground(mutedColor).Render(at), actor, what)
}

func (m Model) renderHelpOverlay() string {
	width := clamp(m.width-8, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Workflows"),
		"1. n new task in the selected column  •  e edit  •  i/enter details",
		"2. [ ] move across columns  •  K/J reorder inside a column",
		"3. / search  •  p/a/s cycle priority, assignee, status  •  c or esc clears",
		"4. I invite a teammate and copy the join link  •  g activity log",
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Taskopia help"),
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(mutedColor).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(mutedColor).Render("press ? or esc to close"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// windowBounds returns the [start, end) slice of total rows starting near top.
func windowBounds(total, top, windowSize int) (int, int) {
	if total <= 0 || windowSize <= 0 {
		return 0, 0
	}
	start := clamp(top, 0, max(0, total-windowSize))
	return start, min(total, start+windowSize)
}

// clamp clamps v to [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines pads or cuts content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base on a canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	overlayLayer := lipgloss.NewLayer(centered).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
