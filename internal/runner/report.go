package runner

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/michaelscutari/zrewrite/internal/rewrite"
)

// LogReporter writes one log line per file decision and a summary at the end.
type LogReporter struct {
	log *logrus.Entry
}

// NewLogReporter returns a reporter writing to l, or to the runner logger when l is nil.
func NewLogReporter(l *logrus.Entry) *LogReporter {
	if l == nil {
		l = log
	}
	return &LogReporter{log: l}
}

func (r *LogReporter) Candidates(total int) {
	r.log.Infof("Found %s files to rewrite", humanize.Comma(int64(total)))
}

func (r *LogReporter) File(ev FileEvent) {
	switch ev.State {
	case Skipped:
		switch ev.Reason {
		case ReasonNotRegular:
			r.log.Infof("%s Skipping non-file '%s'", ev.Progress, ev.Path)
		case ReasonSeen:
			r.log.Infof("%s Skipping already rewritten file '%s'", ev.Progress, ev.Path)
		default:
			r.log.Infof("%s Skipping '%s': %s", ev.Progress, ev.Path, ev.Reason)
		}
	case Eligible:
		r.log.Infof("%s %s", ev.Progress, ev.Path)
	case Rewritten:
		if ev.DryRun {
			r.log.Warnf("%s Dry-run enabled, would rewrite '%s'", ev.Progress, ev.Path)
		}
	case Committed:
		r.log.Debugf("Rewrote '%s' in %s", ev.Path, ev.Duration)
	case Failed:
		r.log.Errorf("Failed to rewrite '%s': %s", ev.Path, failureDetail(ev.Err))
	}
}

func (r *LogReporter) Done(res Result) {
	if res.Interrupted {
		r.log.Warnf("Interrupted after %d of %d files", res.Processed, res.Candidates)
	}
	r.log.Infof("Done. Processed %d files, rewritten %d files.", res.Processed, res.Rewritten)
	if res.DryRun {
		r.log.Info("Dry run mode: no files were actually rewritten.")
	}
}

func failureDetail(err error) string {
	var failure *rewrite.Failure
	if errors.As(err, &failure) {
		if s := strings.TrimSpace(failure.Stderr); s != "" {
			return s
		}
		if failure.Err != nil {
			return failure.Err.Error()
		}
	}
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
