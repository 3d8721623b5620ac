package state

import (
	"bytes"
	"os"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
	"github.com/scylladb/go-set/strset"

	"github.com/michaelscutari/zrewrite/internal/identity"
)

// CompactStats summarizes a Compact call.
type CompactStats struct {
	Kept       int
	Duplicates int
	Stale      int
}

// Dropped returns the number of lines removed.
func (s CompactStats) Dropped() int {
	return s.Duplicates + s.Stale
}

// Compact rewrites the state file in place, keeping the first occurrence of
// each path that still resolves to a regular file. The replacement is atomic
// and the state file lock is held for the duration, so it fails with
// ErrLocked while a run is in progress.
func Compact(statePath string) (CompactStats, error) {
	var stats CompactStats

	lock, err := acquireLock(statePath)
	if err != nil {
		return stats, err
	}
	defer lock.release()

	f, err := os.Open(statePath)
	if err != nil {
		return stats, errors.Wrap(err, "open state file")
	}

	var buf bytes.Buffer
	seen := strset.New()
	overlong, err := eachPath(f, func(path string) {
		switch {
		case seen.Has(path):
			stats.Duplicates++
		case !identity.IsRegular(path):
			seen.Add(path)
			stats.Stale++
		default:
			seen.Add(path)
			stats.Kept++
			buf.WriteString(path)
			buf.WriteByte('\n')
		}
	})
	f.Close()
	stats.Stale += overlong
	if err != nil {
		return stats, errors.Wrapf(err, "read state file %s", statePath)
	}

	if stats.Dropped() == 0 {
		log.Debugf("State file %q is already compact", statePath)
		return stats, nil
	}

	if err := atomic.WriteFile(statePath, &buf); err != nil {
		return stats, errors.Wrap(err, "replace state file")
	}

	log.Infof("Compacted %q: kept %d, dropped %d stale and %d duplicate entries",
		statePath, stats.Kept, stats.Stale, stats.Duplicates)
	return stats, nil
}
