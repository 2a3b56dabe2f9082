package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func testModel(t *testing.T, total int) (model, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return newModel("demo", total, cancel), ctx
}

func TestProgressUpdatesView(t *testing.T) {
	m, _ := testModel(t, 10)

	next, _ := m.Update(progressMsg{done: 4, total: 10})
	view := next.View()

	if !strings.Contains(view, "4/10") {
		t.Errorf("view missing counter, got:\n%s", view)
	}
	if !strings.Contains(view, "demo") {
		t.Errorf("view missing run name")
	}
}

func TestQuitKeyCancelsContext(t *testing.T) {
	m, ctx := testModel(t, 5)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	select {
	case <-ctx.Done():
	default:
		t.Errorf("expected context canceled after q")
	}
}

func TestDoneMsgQuitsAndShowsError(t *testing.T) {
	m, _ := testModel(t, 5)

	next, cmd := m.Update(doneMsg{err: errors.New("trial 3 failed")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if !strings.Contains(next.View(), "trial 3 failed") {
		t.Errorf("view missing error message")
	}

	ok, _ := testModel(t, 5)
	next, _ = ok.Update(doneMsg{})
	if !strings.Contains(next.View(), "complete") {
		t.Errorf("view missing completion notice")
	}
}

func TestBarClampsToWidth(t *testing.T) {
	m, _ := testModel(t, 0)
	m.done = 3

	// total of zero must not panic or overflow the bar.
	if got := m.bar(); !strings.Contains(got, "3/0") {
		t.Errorf("unexpected bar output: %s", got)
	}
}
