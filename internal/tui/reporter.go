package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/michaelscutari/zrewrite/internal/runner"
)

// Reporter forwards runner events to a running program.
type Reporter struct {
	send func(tea.Msg)
}

// NewReporter returns a runner.Reporter feeding p.
func NewReporter(p *tea.Program) *Reporter {
	return &Reporter{send: p.Send}
}

func (r *Reporter) Candidates(total int) { r.send(candidatesMsg{total: total}) }

func (r *Reporter) File(ev runner.FileEvent) { r.send(fileMsg{ev: ev}) }

func (r *Reporter) Done(res runner.Result) { r.send(doneMsg{res: res}) }

// Finish tells the program the run has returned, which closes the view.
func (r *Reporter) Finish(err error) { r.send(finishedMsg{err: err}) }

var _ runner.Reporter = (*Reporter)(nil)
