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

// authScreen selects the login, signup or join form.
type authScreen int

const (
	authLogin authScreen = iota
	authSignup
	authJoin
)

// authField is one labelled input; key matches the validation error keys.
type authField struct {
	key   string
	label string
}

var authFields = map[authScreen][]authField{
	authLogin: {
		{key: "email", label: "Email"},
		{key: "password", label: "Password"},
	},
	authSignup: {
		{key: "name", label: "Name"},
		{key: "email", label: "Email"},
		{key: "password", label: "Password"},
		{key: "role", label: "Role"},
	},
	authJoin: {
		{key: "teamCode", label: "Team code"},
		{key: "name", label: "Name"},
		{key: "email", label: "Email"},
		{key: "password", label: "Password"},
		{key: "role", label: "Role"},
	},
}

var authTitles = map[authScreen]string{
	authLogin:  "Sign in",
	authSignup: "Create a team",
	authJoin:   "Join a team",
}

// authForm is the state of the sign-in screens.
type authForm struct {
	screen  authScreen
	inputs  []textinput.Model
	focus   int
	errors  domain.ValidationErrors
	message string
	pending bool
}

// startAuth shows an empty auth form.
func (m *Model) startAuth(screen authScreen) tea.Cmd {
	fields := authFields[screen]
	inputs := make([]textinput.Model, 0, len(fields))
	for _, field := range fields {
		in := newModalInput("", strings.ToLower(field.label), "", 120)
		if field.key == "password" {
			in.EchoMode = textinput.EchoPassword
		}
		if field.key == "teamCode" && m.joinCode != "" {
			in.SetValue(m.joinCode)
		}
		inputs = append(inputs, in)
	}
	m.screen = screenAuth
	m.auth = authForm{screen: screen, inputs: inputs}
	m.status = strings.ToLower(authTitles[screen])
	return m.focusAuthField(0)
}

func (m *Model) focusAuthField(idx int) tea.Cmd {
	if len(m.auth.inputs) == 0 {
		return nil
	}
	idx = clamp(idx, 0, len(m.auth.inputs)-1)
	m.auth.focus = idx
	for i := range m.auth.inputs {
		m.auth.inputs[i].Blur()
	}
	return m.auth.inputs[idx].Focus()
}

// authValues returns the raw input values keyed by field.
func (m Model) authValues() map[string]string {
	out := map[string]string{}
	for idx, field := range authFields[m.auth.screen] {
		if idx < len(m.auth.inputs) {
			out[field.key] = m.auth.inputs[idx].Value()
		}
	}
	return out
}

func (m Model) handleAuthKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "down":
		return m, m.focusAuthField((m.auth.focus + 1) % max(1, len(m.auth.inputs)))
	case "shift+tab", "up":
		return m, m.focusAuthField((m.auth.focus - 1 + len(m.auth.inputs)) % max(1, len(m.auth.inputs)))
	case "ctrl+n":
		if m.auth.pending {
			return m, nil
		}
		return m, m.startAuth((m.auth.screen + 1) % 3)
	case "enter":
		return m.submitAuth()
	}
	return m.updateAuthInput(msg)
}

func (m Model) updateAuthInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(m.auth.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.auth.inputs[m.auth.focus], cmd = m.auth.inputs[m.auth.focus].Update(msg)
	return m, cmd
}

// submitAuth validates the form and starts the session call. A submit while one is in flight
// still reaches the session, which rejects it.
func (m Model) submitAuth() (tea.Model, tea.Cmd) {
	vals := m.authValues()
	signup := domain.SignupForm{
		Name:     vals["name"],
		Email:    vals["email"],
		Password: vals["password"],
		Role:     vals["role"],
	}

	var (
		validateErr error
		call        func(context.Context) (app.SessionState, error)
	)
	session := m.session
	switch m.auth.screen {
	case authLogin:
		creds := domain.Credentials{Email: vals["email"], Password: vals["password"]}
		validateErr = creds.Validate()
		call = func(ctx context.Context) (app.SessionState, error) {
			return session.Login(ctx, creds)
		}
	case authSignup:
		validateErr = signup.Validate()
		call = func(ctx context.Context) (app.SessionState, error) {
			return session.Signup(ctx, signup)
		}
	case authJoin:
		form := domain.JoinForm{SignupForm: signup, TeamCode: vals["teamCode"]}
		validateErr = form.Validate()
		call = func(ctx context.Context) (app.SessionState, error) {
			return session.Join(ctx, form)
		}
	}

	if validateErr != nil {
		var errs domain.ValidationErrors
		if errors.As(validateErr, &errs) {
			m.auth.errors = errs
		}
		m.auth.message = ""
		return m, nil
	}
	m.auth.errors = nil
	m.auth.message = ""
	m.auth.pending = true
	return m, func() tea.Msg {
		state, err := call(context.Background())
		return authResultMsg{state: state, err: err}
	}
}

// renderAuthView renders the centered sign-in card.
func (m Model) renderAuthView() string {
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	labelStyle := lipgloss.NewStyle().Foreground(muted)
	focusLabel := lipgloss.NewStyle().Bold(true).Foreground(accent)

	width := clamp(m.width-8, 36, 64)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render("taskopia"),
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render(authTitles[m.auth.screen]),
		"",
	}
	for idx, field := range authFields[m.auth.screen] {
		if idx >= len(m.auth.inputs) {
			break
		}
		label := labelStyle.Render(field.label)
		if idx == m.auth.focus {
			label = focusLabel.Render(field.label)
		}
		in := m.auth.inputs[idx]
		in.SetWidth(max(10, width-6))
		lines = append(lines, label, "  "+in.View())
		if msg := m.auth.errors[field.key]; msg != "" {
			lines = append(lines, "  "+errorStyle.Render(msg))
		}
	}
	lines = append(lines, "")
	switch {
	case m.auth.pending && m.auth.screen == authLogin:
		lines = append(lines, labelStyle.Render("Signing in..."))
	case m.auth.pending:
		lines = append(lines, labelStyle.Render("Creating account..."))
	}
	if m.auth.message != "" {
		lines = append(lines, errorStyle.Render(m.auth.message))
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(dim).Render("enter submit • tab next field • ctrl+n switch form • ctrl+c quit"))

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(1, 2).
		Width(width).
		Render(strings.Join(lines, "\n"))
	if m.width <= 0 || m.height <= 0 {
		return card
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}
