package tui

import (
	"strings"
	"time"
)

// Option configures a Model.
type Option func(*Model)

// WithSession enables the login, signup and join screens backed by session.
func WithSession(session Session) Option {
	return func(m *Model) {
		m.session = session
	}
}

// WithConfirmDelete toggles the delete confirmation overlay.
func WithConfirmDelete(enabled bool) Option {
	return func(m *Model) {
		m.confirmDelete = enabled
	}
}

// WithMarkdownStyle selects the glamour style used for task descriptions.
func WithMarkdownStyle(style string) Option {
	return func(m *Model) {
		switch style = strings.ToLower(strings.TrimSpace(style)); style {
		case "dark", "light", "notty":
			m.markdown.style = style
		}
	}
}

// WithJoinCode opens the join screen with the team code prefilled.
func WithJoinCode(code string) Option {
	return func(m *Model) {
		m.joinCode = strings.TrimSpace(code)
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyToClipboard = write
		}
	}
}

// WithClock replaces the clock used for default deadlines and deadline badges.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}
