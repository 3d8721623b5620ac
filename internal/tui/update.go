package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/michaelscutari/zrewrite/internal/runner"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case candidatesMsg:
		m.total = msg.total
		return m, nil

	case fileMsg:
		m.applyEvent(msg.ev)
		return m, nil

	case doneMsg:
		res := msg.res
		m.result = &res
		return m, nil

	case finishedMsg:
		m.err = msg.err
		m.finished = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyEvent(ev runner.FileEvent) {
	if ev.Progress.Total > 0 {
		m.total = ev.Progress.Total
	}
	m.processed = ev.Progress.Current

	switch ev.State {
	case runner.Eligible:
		m.current = ev.Path
		return
	case runner.Skipped:
		m.skipped++
	case runner.Rewritten:
		if !ev.DryRun {
			return
		}
		m.rewritten++
	case runner.Committed:
		m.rewritten++
		m.current = ""
	case runner.Failed:
		m.current = ""
	}
	m.pushRecent(ev)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if m.finished {
			return m, tea.Quit
		}
		if !m.stopping {
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	}
	return m, nil
}
