package state

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrLocked is returned when another process holds the state file lock.
var ErrLocked = errors.New("state file is in use by another run")

// fileLock is an exclusive advisory lock on a ".lock" sidecar of the state file.
type fileLock struct {
	file *os.File
}

// LockPath returns the path of the lock sidecar for statePath.
func LockPath(statePath string) string {
	return statePath + ".lock"
}

func acquireLock(statePath string) (*fileLock, error) {
	f, err := os.OpenFile(LockPath(statePath), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "open lock file")
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, errors.Wrap(ErrLocked, statePath)
		}
		return nil, errors.Wrap(err, "flock")
	}

	return &fileLock{file: f}, nil
}

func (l *fileLock) release() {
	if l == nil || l.file == nil {
		return
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	l.file.Close()
	l.file = nil
}
