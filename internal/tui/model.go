// Package tui renders live progress of a rewrite run with bubbletea.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/michaelscutari/zrewrite/internal/runner"
)

const recentLimit = 8

type recentLine struct {
	path   string
	state  runner.FileState
	reason runner.SkipReason
	dryRun bool
}

// Model holds the TUI state. It only reads runner events; the run itself
// executes on another goroutine.
type Model struct {
	root   string
	dryRun bool
	cancel context.CancelFunc
	now    func() time.Time

	start     time.Time
	total     int
	processed int
	rewritten int
	skipped   int
	current   string
	recent    []recentLine

	result   *runner.Result
	err      error
	stopping bool
	finished bool

	width  int
	height int
}

// NewModel creates a model for a run over root. cancel is called when the
// user asks to stop; the run then ends after the file in progress.
func NewModel(root string, dryRun bool, cancel context.CancelFunc) *Model {
	return &Model{
		root:   root,
		dryRun: dryRun,
		cancel: cancel,
		now:    time.Now,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.start = m.now()
	return nil
}

type candidatesMsg struct{ total int }

type fileMsg struct{ ev runner.FileEvent }

type doneMsg struct{ res runner.Result }

type finishedMsg struct{ err error }

func (m *Model) pushRecent(ev runner.FileEvent) {
	m.recent = append(m.recent, recentLine{path: ev.Path, state: ev.State, reason: ev.Reason, dryRun: ev.DryRun})
	if len(m.recent) > recentLimit {
		m.recent = m.recent[len(m.recent)-recentLimit:]
	}
}

func (m *Model) helpLine() string {
	switch {
	case m.finished:
		return "q: quit"
	case m.stopping:
		return "Stopping after the current file..."
	default:
		return "q/ctrl+c: stop after the current file"
	}
}
