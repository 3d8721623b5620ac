// Package rewrite runs the per-file maintenance operation.
package rewrite

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/michaelscutari/zrewrite/internal/logger"
)

var log = logger.GetLogger("rewrite")

// DefaultArgv is the command prefix used when none is configured.
var DefaultArgv = []string{"zfs", "rewrite"}

// Action rewrites a single file in place. Implementations are never called
// concurrently.
type Action interface {
	Rewrite(ctx context.Context, path string) error
}

// Func adapts an ordinary function to Action.
type Func func(ctx context.Context, path string) error

// Rewrite implements Action.
func (f Func) Rewrite(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Failure describes a rewrite that did not succeed.
type Failure struct {
	Path     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("rewrite %s failed", f.Path)
	if f.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit %d)", f.ExitCode)
	}
	if s := strings.TrimSpace(f.Stderr); s != "" {
		msg += ": " + s
	} else if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Command runs an external program with the file path appended to Argv.
type Command struct {
	Argv []string
}

// NewCommand validates argv and returns a Command.
func NewCommand(argv []string) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("rewrite command must not be empty")
	}
	return &Command{Argv: append([]string(nil), argv...)}, nil
}

// Rewrite implements Action. A non-zero exit status or a failure to start
// the program yields a *Failure; ExitCode is -1 when the program never ran.
func (c *Command) Rewrite(ctx context.Context, path string) error {
	args := append(append([]string(nil), c.Argv[1:]...), path)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Argv[0], args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if out := strings.TrimSpace(stdout.String()); out != "" {
		log.Debugf("%s: %s", c.Argv[0], out)
	}

	if err == nil {
		log.Tracef("Rewrote %q in %s", path, elapsed)
		return nil
	}

	failure := &Failure{
		Path:     path,
		Args:     append([]string{c.Argv[0]}, args...),
		ExitCode: -1,
		Stderr:   stderr.String(),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		failure.ExitCode = exitErr.ExitCode()
	}
	return failure
}
