// Package state persists the list of rewritten paths across runs.
//
// The state file is plain UTF-8 text with one path per line. It is only ever
// appended to during a run, so it may accumulate stale entries for files that
// were moved or deleted later; those are skipped on load.
package state

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/michaelscutari/zrewrite/internal/identity"
	"github.com/michaelscutari/zrewrite/internal/logger"
)

const maxLineSize = 1024 * 1024

var log = logger.GetLogger("state")

// LoadStats summarizes a Load call.
type LoadStats struct {
	Lines  int // non-blank lines read
	Loaded int // lines marked seen
	Stale  int // lines that are unreadable or no longer resolve to a regular file
}

// Load marks every recorded path that still resolves to a regular file as
// seen in tracker. A missing state file is not an error.
func Load(tracker *identity.Tracker, statePath string) (LoadStats, error) {
	var stats LoadStats

	f, err := os.Open(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("No state file at %q, starting fresh", statePath)
			return stats, nil
		}
		return stats, errors.Wrap(err, "open state file")
	}
	defer f.Close()

	overlong, err := eachPath(f, func(path string) {
		stats.Lines++

		if !identity.IsRegular(path) {
			log.Tracef("Skipping stale entry: %q", path)
			stats.Stale++
			return
		}

		if err := tracker.MarkSeen(path, nil); err != nil {
			log.WithError(err).Tracef("Skipping unreadable entry: %q", path)
			stats.Stale++
			return
		}
		stats.Loaded++
	})
	stats.Lines += overlong
	stats.Stale += overlong
	if err != nil {
		return stats, errors.Wrapf(err, "read state file %s", statePath)
	}

	return stats, nil
}

// eachPath calls fn for every non-blank line of the state file and returns
// the number of lines skipped for exceeding maxLineSize.
// Only the line terminator is removed; paths are not otherwise trimmed.
func eachPath(f io.Reader, fn func(path string)) (int, error) {
	r := bufio.NewReaderSize(f, 64*1024)

	var (
		line     []byte
		tooLong  bool
		overlong int
	)
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err == io.EOF {
			return overlong, nil
		}
		if err != nil {
			return overlong, err
		}

		if !tooLong && len(line)+len(chunk) > maxLineSize {
			tooLong = true
			line = line[:0]
		}
		if !tooLong {
			line = append(line, chunk...)
		}
		if isPrefix {
			continue
		}

		if tooLong {
			log.Debugf("Skipping state line longer than %d bytes", maxLineSize)
			overlong++
			tooLong = false
			continue
		}

		path := strings.TrimSuffix(string(line), "\r")
		line = line[:0]
		if strings.TrimSpace(path) == "" {
			continue
		}
		fn(path)
	}
}
