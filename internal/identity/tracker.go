// Package identity tracks which paths and which device/inode pairs have been
// handled during a run.
package identity

import (
	"github.com/scylladb/go-set/strset"
	"github.com/scylladb/go-set/u64set"
)

// Tracker records seen paths and seen identities. Both sets only grow.
//
// Path tracking lets a caller skip a file without a stat when the exact path
// was recorded before. Identity tracking catches hardlinks reached through a
// path that was never recorded.
type Tracker struct {
	paths  *strset.Set
	inodes map[uint64]*u64set.Set
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		paths:  strset.New(),
		inodes: make(map[uint64]*u64set.Set),
	}
}

// CheckSeen reports whether path should be processed.
// The path is stat'ed when it has not been recorded itself, since the
// identity is needed by the caller for marking. Stat errors are returned
// as *os.PathError.
func (t *Tracker) CheckSeen(path string) (Check, error) {
	if t.paths.Has(path) {
		return Check{Status: AlreadySeen}, nil
	}

	info, err := Stat(path)
	if err != nil {
		return Check{}, err
	}

	if t.SeenKey(info.Key) {
		return Check{Status: AlreadySeen}, nil
	}

	return Check{Status: Eligible, Key: info.Key}, nil
}

// MarkSeen records path and its identity. When key is nil the identity is
// derived via stat, and nothing is recorded if that fails.
func (t *Tracker) MarkSeen(path string, key *Key) error {
	if key == nil {
		info, err := Stat(path)
		if err != nil {
			return err
		}
		key = &info.Key
	}

	t.Record(path, *key)
	return nil
}

// Record adds path and key to the tracker.
func (t *Tracker) Record(path string, key Key) {
	t.paths.Add(path)

	inodes, ok := t.inodes[key.Device]
	if !ok {
		inodes = u64set.New()
		t.inodes[key.Device] = inodes
	}
	inodes.Add(key.Inode)
}

// SeenPath reports whether the exact path was recorded.
func (t *Tracker) SeenPath(path string) bool {
	return t.paths.Has(path)
}

// SeenKey reports whether the identity was recorded under any path.
func (t *Tracker) SeenKey(key Key) bool {
	inodes, ok := t.inodes[key.Device]
	return ok && inodes.Has(key.Inode)
}

// Len returns the number of recorded paths.
func (t *Tracker) Len() int {
	return t.paths.Size()
}

// Identities returns the number of recorded device/inode pairs.
func (t *Tracker) Identities() int {
	n := 0
	for _, inodes := range t.inodes {
		n += inodes.Size()
	}
	return n
}
