package identity

import "fmt"

// Key identifies a file's on-disk identity (device + inode).
// Device identifiers are only comparable within a single run and are never persisted.
type Key struct {
	Device uint64
	Inode  uint64
}

// String returns a string representation of the Key.
func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.Device, k.Inode)
}

// Status is the outcome of a seen check.
type Status uint8

const (
	// AlreadySeen means the path or its hardlink group was recorded earlier.
	AlreadySeen Status = iota
	// Eligible means neither the path nor its identity has been recorded.
	Eligible
)

func (s Status) String() string {
	if s == Eligible {
		return "eligible"
	}
	return "already-seen"
}

// Check is the result of Tracker.CheckSeen. Key is only set when Status is Eligible.
type Check struct {
	Status Status
	Key    Key
}

// IsEligible reports whether the checked file should be processed.
func (c Check) IsEligible() bool {
	return c.Status == Eligible
}

// Info holds the stat fields needed to classify and identify a file.
type Info struct {
	Key     Key
	Regular bool
	Dir     bool
	Symlink bool
	Links   uint64
}
