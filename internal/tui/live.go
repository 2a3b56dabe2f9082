// Package tui renders live progress for a running Monte Carlo batch.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

const barWidth = 50

type progressMsg struct {
	done  int
	total int
}

type doneMsg struct {
	err error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	name   string
	done   int
	total  int
	start  time.Time
	err    error
	ended  bool
	cancel context.CancelFunc
}

func newModel(name string, total int, cancel context.CancelFunc) model {
	return model{
		name:   name,
		total:  total,
		start:  time.Now(),
		cancel: cancel,
	}
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, nil
		}
	case progressMsg:
		m.done = msg.done
		m.total = msg.total
		return m, nil
	case doneMsg:
		m.err = msg.err
		m.ended = true
		return m, tea.Quit
	case tickMsg:
		if m.ended {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(cyan.Render("Monte Carlo") + "  " + white.Render(m.name) + "\n\n")
	b.WriteString("  " + m.bar() + "\n\n")

	elapsed := time.Since(m.start)
	b.WriteString(fmt.Sprintf("  %s %s",
		dim.Render("elapsed"), white.Render(elapsed.Truncate(100*time.Millisecond).String())))

	if m.done > 0 && m.done < m.total {
		rate := float64(m.done) / elapsed.Seconds()
		remain := time.Duration(float64(m.total-m.done)/rate) * time.Second
		b.WriteString(fmt.Sprintf("   %s %s",
			dim.Render("eta"), white.Render(remain.Truncate(time.Second).String())))
	}
	b.WriteString("\n\n")

	if m.ended && m.err != nil {
		b.WriteString("  " + yellow.Render(m.err.Error()) + "\n")
	} else if m.ended {
		b.WriteString("  " + green.Render("complete") + "\n")
	} else {
		b.WriteString("  " + dim.Render("q to stop (files are saved)") + "\n")
	}

	return b.String()
}

func (m model) bar() string {
	filled := 0
	if m.total > 0 {
		filled = barWidth * m.done / m.total
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := green.Render(strings.Repeat("█", filled)) + dim.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s %s", bar, white.Render(fmt.Sprintf("%d/%d", m.done, m.total)))
}

// RunLive drives run under a progress display. The run callback receives a
// progress function safe to call from any goroutine. Pressing q cancels via
// the provided cancel func; run is expected to observe its context and
// return.
func RunLive(name string, total int, cancel context.CancelFunc, run func(progress func(done, total int)) error) error {
	p := tea.NewProgram(newModel(name, total, cancel))

	errc := make(chan error, 1)
	go func() {
		err := run(func(done, total int) {
			p.Send(progressMsg{done: done, total: total})
		})
		errc <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return err
	}
	return <-errc
}
