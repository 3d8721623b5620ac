package runner

import (
	"fmt"
	"strconv"
	"time"
)

// FileState is the position of a candidate in its lifecycle.
//
//	Discovered -> Eligible -> Rewritten -> Committed
//	Discovered -> Skipped
type FileState uint8

const (
	Discovered FileState = iota
	Eligible
	Rewritten
	Committed
	Skipped
	Failed
)

func (s FileState) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case Eligible:
		return "eligible"
	case Rewritten:
		return "rewritten"
	case Committed:
		return "committed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is a 1-based position within the candidate set.
type Progress struct {
	Current int
	Total   int
}

// Percent returns the completed share, rounded down.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 100
	}
	return p.Current * 100 / p.Total
}

// String renders the counter as "( n/total pct%)", padding n to the width of total.
func (p Progress) String() string {
	width := len(strconv.Itoa(p.Total))
	return fmt.Sprintf("(%*d/%*d %3d%%)", width, p.Current, width, p.Total, p.Percent())
}

// SkipReason explains why a candidate was skipped during processing.
type SkipReason string

const (
	ReasonNotRegular SkipReason = "not a regular file"
	ReasonSeen       SkipReason = "already rewritten"
	ReasonVanished   SkipReason = "no longer accessible"
)

// FileEvent reports a state change for one candidate.
type FileEvent struct {
	Progress Progress
	Path     string
	State    FileState
	Reason   SkipReason
	DryRun   bool
	Duration time.Duration
	Err      error
}

// Reporter observes a run. Calls are made from the runner goroutine.
type Reporter interface {
	Candidates(total int)
	File(ev FileEvent)
	Done(res Result)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) Candidates(int) {}
func (NopReporter) File(FileEvent) {}
func (NopReporter) Done(Result)    {}
