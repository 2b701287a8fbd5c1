package tui

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/exp/teatest/v2"
)

func waitFor(t *testing.T, tm *teatest.TestModel, want string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), want)
	}, teatest.WithDuration(3*time.Second), teatest.WithCheckInterval(10*time.Millisecond))
}

// TestModelWithTeatest renders the board and quits.
func TestModelWithTeatest(t *testing.T) {
	svc, _ := newTestService(t)
	tm := teatest.NewTestModel(t, NewModel(svc), teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	waitFor(t, tm, "Write docs")

	tm.Send(tea.KeyPressMsg{Code: '?', Text: "?"})
	waitFor(t, tm, "Taskopia help")

	tm.Send(tea.KeyPressMsg{Code: tea.KeyEscape})
	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

// TestModelWithTeatestLoginThenCreate signs in and adds a task through the dialog.
func TestModelWithTeatestLoginThenCreate(t *testing.T) {
	svc, repo := newTestService(t)
	m := NewModel(svc, WithSession(newTestSession(svc)), WithClock(func() time.Time { return testNow }))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	waitFor(t, tm, "Sign in")
	tm.Type("john.doe@example.com")
	tm.Send(tea.KeyPressMsg{Code: tea.KeyTab})
	tm.Type("password123")
	tm.Send(tea.KeyPressMsg{Code: tea.KeyEnter})
	waitFor(t, tm, "Frontend Developer")

	tm.Send(tea.KeyPressMsg{Code: 'n', Text: "n"})
	waitFor(t, tm, "New task")
	tm.Type("Plan sprint")
	tm.Send(tea.KeyPressMsg{Code: tea.KeyTab})
	tm.Type("Pick the next stories")
	tm.Send(tea.KeyPressMsg{Code: tea.KeyEnter})
	waitFor(t, tm, "To Do (3)")

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	board, _ := repo.LoadBoard(t.Context())
	if board.Len() != 4 {
		t.Fatalf("expected 4 tasks after create, got %d", board.Len())
	}
}
