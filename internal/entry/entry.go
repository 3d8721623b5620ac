package entry

import (
	"os"
	"time"
)

// Kind represents the type of filesystem entry.
type Kind uint8

const (
	KindFile    Kind = 0
	KindDir     Kind = 1
	KindSymlink Kind = 2
	KindOther   Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// KindFromMode derives the Kind from an os.FileMode.
func KindFromMode(mode os.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&os.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// Entry is a path found during traversal.
type Entry struct {
	Path string
	Kind Kind
}

// ScanError represents an error encountered during traversal.
type ScanError struct {
	Path    string
	Message string
}

// RunStatus is the final state of a recorded run.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunFailed      RunStatus = "failed"
	RunInterrupted RunStatus = "interrupted"
)

// RunMeta holds metadata about a rewrite run.
type RunMeta struct {
	ID         string
	RootPath   string
	StatePath  string
	StartTime  time.Time
	EndTime    time.Time
	Status     RunStatus
	Candidates int64
	Processed  int64
	Rewritten  int64
	Skipped    int64
	Error      string
}

// Rewrite records one committed file.
type Rewrite struct {
	RunID    string
	Path     string
	DevID    uint64
	Inode    uint64
	Duration time.Duration
	Time     time.Time
}
