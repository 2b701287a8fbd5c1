package tui

import (
	"context"
	"errors"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/taskopia/taskopia/internal/app"
	"github.com/taskopia/taskopia/internal/domain"
)

// invite form field indexes.
const (
	inviteFieldEmail = iota
	inviteFieldRole
)

var inviteFieldKeys = []string{"email", "role"}

// inviteForm is the invite-a-teammate overlay.
type inviteForm struct {
	inputs  []textinput.Model
	focus   int
	errors  domain.ValidationErrors
	message string
	pending bool
	result  *app.Invitation
}

func (m *Model) startInvite() tea.Cmd {
	m.invite = inviteForm{
		inputs: []textinput.Model{
			newModalInput("", "teammate@example.com", "", 120),
			newModalInput("", "role, e.g. Backend Developer", "", 60),
		},
	}
	m.mode = modeInvite
	m.help.ShowAll = false
	m.status = "invite teammate"
	return m.focusInviteField(inviteFieldEmail)
}

func (m *Model) focusInviteField(idx int) tea.Cmd {
	idx = clamp(idx, 0, len(m.invite.inputs)-1)
	m.invite.focus = idx
	for i := range m.invite.inputs {
		m.invite.inputs[i].Blur()
	}
	return m.invite.inputs[idx].Focus()
}

func (m Model) handleInviteKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.invite.result != nil {
		switch msg.String() {
		case "c", "y":
			link := m.invite.result.Link
			if err := m.copyToClipboard(link); err != nil {
				m.invite.message = "copy failed: " + err.Error()
				return m, nil
			}
			m.invite.message = "invite link copied"
			m.status = "invite link copied"
			return m, nil
		case "esc", "enter", "q":
			m.mode = modeNone
			m.invite = inviteForm{}
			m.status = "ready"
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.invite = inviteForm{}
		m.status = "invite cancelled"
		return m, nil
	case "tab", "down", "shift+tab", "up":
		return m, m.focusInviteField(1 - m.invite.focus)
	case "enter":
		if m.invite.pending {
			return m, nil
		}
		form := domain.InviteForm{
			Email: m.invite.inputs[inviteFieldEmail].Value(),
			Role:  m.invite.inputs[inviteFieldRole].Value(),
		}
		if err := form.Validate(); err != nil {
			var validation domain.ValidationErrors
			if errors.As(err, &validation) {
				m.invite.errors = validation
			}
			return m, nil
		}
		m.invite.errors = nil
		m.invite.message = ""
		m.invite.pending = true
		session := m.session
		return m, func() tea.Msg {
			inv, err := session.Invite(context.Background(), form)
			return inviteResultMsg{invitation: inv, err: err}
		}
	}

	var cmd tea.Cmd
	m.invite.inputs[m.invite.focus], cmd = m.invite.inputs[m.invite.focus].Update(msg)
	return m, cmd
}

// renderInviteOverlay renders the invite form or the generated invitation.
func (m Model) renderInviteOverlay() string {
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	width := clamp(m.width-12, 44, 76)

	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Invite a teammate"), ""}
	if inv := m.invite.result; inv != nil {
		lines = append(lines,
			"Share this link with "+inv.Email+" ("+inv.Role+"):",
			"",
			lipgloss.NewStyle().Bold(true).Render(inv.Link),
			"",
			lipgloss.NewStyle().Foreground(muted).Render("team code: "+inv.TeamCode),
		)
		if m.invite.message != "" {
			lines = append(lines, "", m.invite.message)
		}
		lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render("c copy link • esc close"))
	} else {
		labels := []string{"Email", "Role"}
		for idx, in := range m.invite.inputs {
			labelStyle := lipgloss.NewStyle().Foreground(muted)
			if idx == m.invite.focus {
				labelStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
			}
			in.SetWidth(width - 12)
			lines = append(lines, labelStyle.Render(labels[idx]), "  "+in.View())
			if msg := m.invite.errors[inviteFieldKeys[idx]]; msg != "" {
				lines = append(lines, "  "+errorStyle.Render(msg))
			}
		}
		if m.invite.pending {
			lines = append(lines, "", lipgloss.NewStyle().Foreground(muted).Render("Generating invitation..."))
		}
		if m.invite.message != "" {
			lines = append(lines, "", errorStyle.Render(m.invite.message))
		}
		lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render("tab next • enter send • esc cancel"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}
