package state

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnrecordable is returned by Append for paths the line format cannot hold.
var ErrUnrecordable = errors.New("path contains a newline and cannot be recorded")

// Appender appends rewritten paths to the state file, one line per path.
// It holds the state file lock until Close.
type Appender struct {
	path string
	file *os.File
	lock *fileLock
}

// OpenAppender locks and opens statePath for appending, creating it if needed.
func OpenAppender(statePath string) (*Appender, error) {
	lock, err := acquireLock(statePath)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(statePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		lock.release()
		return nil, errors.Wrap(err, "open state file for append")
	}

	return &Appender{path: statePath, file: f, lock: lock}, nil
}

// Path returns the state file path.
func (a *Appender) Path() string {
	return a.path
}

// Append durably records path. The line is synced before Append returns.
func (a *Appender) Append(path string) error {
	if a.file == nil {
		return errors.Errorf("append to closed state file %s", a.path)
	}
	if strings.ContainsAny(path, "\n\r") {
		return errors.Wrap(ErrUnrecordable, path)
	}

	if _, err := a.file.WriteString(path + "\n"); err != nil {
		return errors.Wrapf(err, "append %q", path)
	}
	if err := a.file.Sync(); err != nil {
		return errors.Wrapf(err, "sync after %q", path)
	}
	return nil
}

// Close closes the state file and releases the lock. It is safe to call more than once.
func (a *Appender) Close() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	a.lock.release()
	return errors.Wrap(err, "close state file")
}
