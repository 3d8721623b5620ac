// Package runner applies a rewrite action exactly once to every regular file
// below a root directory.
//
// A run loads the persisted state into an identity tracker, discovers the
// candidate files, and processes them sequentially. Every successful rewrite
// is appended to the state file before the next file is considered, so an
// interrupted or failed run can be resumed with the same arguments.
package runner

import (
	"context"
	"slices"
	"time"

	"github.com/pkg/errors"

	"github.com/michaelscutari/zrewrite/internal/entry"
	"github.com/michaelscutari/zrewrite/internal/identity"
	"github.com/michaelscutari/zrewrite/internal/logger"
	"github.com/michaelscutari/zrewrite/internal/rewrite"
	"github.com/michaelscutari/zrewrite/internal/scan"
	"github.com/michaelscutari/zrewrite/internal/state"
)

var log = logger.GetLogger("runner")

// ErrInvariant means the processed count disagrees with the candidate count.
var ErrInvariant = errors.New("processed file count does not match candidate count")

// Options configures a run.
type Options struct {
	Root      string
	StatePath string
	DryRun    bool
}

// Result summarizes a run.
type Result struct {
	Candidates  int
	Processed   int
	Rewritten   int
	Skipped     int
	DryRun      bool
	Interrupted bool
}

// Recorder durably records a rewritten path. *state.Appender implements it.
type Recorder interface {
	Append(path string) error
}

// Journal keeps an optional history of runs.
type Journal interface {
	BeginRun(meta *entry.RunMeta) error
	RecordScanErrors(runID string, errs []entry.ScanError) error
	RecordRewrite(rw entry.Rewrite) error
	FinishRun(meta *entry.RunMeta) error
}

// Runner executes a rewrite run.
type Runner struct {
	opts     Options
	tracker  *identity.Tracker
	walker   scan.Walker
	action   rewrite.Action
	reporter Reporter
	journal  Journal
	runID    string

	scanErrors []entry.ScanError
}

// New creates a runner. The tracker is owned by the runner for the duration of Run.
func New(opts Options, tracker *identity.Tracker, walker scan.Walker, action rewrite.Action) *Runner {
	if tracker == nil {
		tracker = identity.NewTracker()
	}
	return &Runner{
		opts:     opts,
		tracker:  tracker,
		walker:   walker,
		action:   action,
		reporter: NewLogReporter(nil),
	}
}

// SetReporter replaces the default log reporter.
func (r *Runner) SetReporter(rep Reporter) {
	if rep == nil {
		rep = NopReporter{}
	}
	r.reporter = rep
}

// SetJournal enables run history. The journal is not used for dry runs.
func (r *Runner) SetJournal(j Journal) {
	r.journal = j
}

// Run loads state, discovers candidates, and processes them.
func (r *Runner) Run(ctx context.Context) (res Result, err error) {
	res.DryRun = r.opts.DryRun

	stats, err := state.Load(r.tracker, r.opts.StatePath)
	if err != nil {
		return res, err
	}
	log.Infof("Loaded %d rewritten paths from %q (%d stale)", stats.Loaded, r.opts.StatePath, stats.Stale)

	var rec Recorder
	if !r.opts.DryRun {
		app, openErr := state.OpenAppender(r.opts.StatePath)
		if openErr != nil {
			return res, openErr
		}
		defer func() {
			if cerr := app.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		rec = app
	}

	cands, err := r.Discover(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Interrupted during discovery")
			res.Interrupted = true
			return res, nil
		}
		return res, err
	}
	r.reporter.Candidates(cands.Len())

	meta := r.beginJournal()

	res, err = r.Process(ctx, cands, rec)

	r.finishJournal(meta, res, err)

	if err != nil {
		return res, err
	}
	r.reporter.Done(res)
	return res, nil
}

// Discover walks the root and returns the files eligible in this run, in
// lexical order. Only one path of each hardlink group is kept. The run
// tracker is consulted but never modified.
func (r *Runner) Discover(ctx context.Context) (*CandidateSet, error) {
	walked, err := r.walker.Walk(ctx, r.opts.Root)
	if err != nil {
		return nil, err
	}
	r.scanErrors = walked.Errors
	if len(walked.Errors) > 0 {
		log.Debugf("Ignored %d unreadable entries below %q", len(walked.Errors), r.opts.Root)
	}

	cands := NewCandidateSet()
	groups := identity.NewTracker()
	own := r.stateKeys()

	for _, e := range walked.Entries {
		if e.Kind != entry.KindFile {
			continue
		}

		check, err := r.tracker.CheckSeen(e.Path)
		if err != nil {
			log.WithError(err).Debugf("Skipping unreadable file: %q", e.Path)
			continue
		}
		if !check.IsEligible() {
			log.Tracef("Already rewritten: %q", e.Path)
			continue
		}
		if slices.Contains(own, check.Key) {
			log.Debugf("Skipping state file: %q", e.Path)
			continue
		}
		if groups.SeenKey(check.Key) {
			log.Tracef("Hardlink of an earlier candidate: %q", e.Path)
			continue
		}

		groups.Record(e.Path, check.Key)
		cands.Add(e.Path)
	}

	return cands, nil
}

// Process handles each candidate once, in order. It stops at the first
// failed rewrite or failed record and returns that error. Cancellation of
// ctx is observed between files; a rewrite in progress always completes and
// is recorded. rec may be nil for dry runs.
func (r *Runner) Process(ctx context.Context, cands *CandidateSet, rec Recorder) (Result, error) {
	res := Result{Candidates: cands.Len(), DryRun: r.opts.DryRun}
	if !r.opts.DryRun && rec == nil {
		return res, errors.New("no recorder for a real run")
	}

	for _, path := range cands.Paths() {
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}

		res.Processed++
		ev := FileEvent{
			Progress: Progress{Current: res.Processed, Total: res.Candidates},
			Path:     path,
			DryRun:   r.opts.DryRun,
		}

		if !identity.IsRegularNoFollow(path) {
			res.Skipped++
			ev.State, ev.Reason = Skipped, ReasonNotRegular
			r.reporter.File(ev)
			continue
		}

		check, err := r.tracker.CheckSeen(path)
		if err != nil {
			log.WithError(err).Debugf("Stat failed: %q", path)
			res.Skipped++
			ev.State, ev.Reason = Skipped, ReasonVanished
			r.reporter.File(ev)
			continue
		}
		if !check.IsEligible() {
			res.Skipped++
			ev.State, ev.Reason = Skipped, ReasonSeen
			r.reporter.File(ev)
			continue
		}

		if r.opts.DryRun {
			res.Rewritten++
			r.tracker.Record(path, check.Key)
			ev.State = Rewritten
			r.reporter.File(ev)
			continue
		}

		ev.State = Eligible
		r.reporter.File(ev)

		start := time.Now()
		if err := r.action.Rewrite(context.WithoutCancel(ctx), path); err != nil {
			err = asFailure(path, err)
			ev.State, ev.Err = Failed, err
			r.reporter.File(ev)
			return res, err
		}
		ev.Duration = time.Since(start)
		res.Rewritten++

		r.tracker.Record(path, check.Key)

		if err := rec.Append(path); err != nil {
			if !errors.Is(err, state.ErrUnrecordable) {
				return res, errors.Wrapf(err, "record rewrite of %q", path)
			}
			log.WithError(err).Warnf("Rewrote %q but cannot record it", path)
		}

		r.recordJournal(path, check.Key, ev.Duration)

		ev.State = Committed
		r.reporter.File(ev)
	}

	if !res.Interrupted && res.Processed != res.Candidates {
		return res, errors.Wrapf(ErrInvariant, "processed %d of %d", res.Processed, res.Candidates)
	}
	return res, nil
}

// stateKeys returns the identities of the state file and its lock that
// currently exist.
func (r *Runner) stateKeys() []identity.Key {
	if r.opts.StatePath == "" {
		return nil
	}
	var keys []identity.Key
	for _, p := range []string{r.opts.StatePath, state.LockPath(r.opts.StatePath)} {
		if info, err := identity.Stat(p); err == nil {
			keys = append(keys, info.Key)
		}
	}
	return keys
}

func asFailure(path string, err error) error {
	var failure *rewrite.Failure
	if errors.As(err, &failure) {
		return err
	}
	return &rewrite.Failure{Path: path, Args: []string{path}, ExitCode: -1, Err: err}
}

func (r *Runner) beginJournal() *entry.RunMeta {
	if r.journal == nil || r.opts.DryRun {
		return nil
	}
	meta := &entry.RunMeta{
		RootPath:  r.opts.Root,
		StatePath: r.opts.StatePath,
		StartTime: time.Now(),
		Status:    entry.RunRunning,
	}
	if err := r.journal.BeginRun(meta); err != nil {
		log.WithError(err).Warn("Run journal disabled")
		r.journal = nil
		return nil
	}
	r.runID = meta.ID
	if err := r.journal.RecordScanErrors(meta.ID, r.scanErrors); err != nil {
		log.WithError(err).Warn("Failed to journal traversal errors")
	}
	return meta
}

func (r *Runner) recordJournal(path string, key identity.Key, took time.Duration) {
	if r.journal == nil || r.runID == "" {
		return
	}
	err := r.journal.RecordRewrite(entry.Rewrite{
		RunID:    r.runID,
		Path:     path,
		DevID:    key.Device,
		Inode:    key.Inode,
		Duration: took,
		Time:     time.Now(),
	})
	if err != nil {
		log.WithError(err).Warnf("Failed to journal rewrite of %q", path)
	}
}

func (r *Runner) finishJournal(meta *entry.RunMeta, res Result, runErr error) {
	if meta == nil || r.journal == nil {
		return
	}
	meta.EndTime = time.Now()
	meta.Candidates = int64(res.Candidates)
	meta.Processed = int64(res.Processed)
	meta.Rewritten = int64(res.Rewritten)
	meta.Skipped = int64(res.Skipped)

	switch {
	case runErr != nil:
		meta.Status = entry.RunFailed
		meta.Error = runErr.Error()
	case res.Interrupted:
		meta.Status = entry.RunInterrupted
	default:
		meta.Status = entry.RunCompleted
	}

	if err := r.journal.FinishRun(meta); err != nil {
		log.WithError(err).Warn("Failed to finish run journal")
	}
}
