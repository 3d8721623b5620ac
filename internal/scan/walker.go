package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/pkg/errors"

	"github.com/michaelscutari/zrewrite/internal/entry"
	"github.com/michaelscutari/zrewrite/internal/identity"
	"github.com/michaelscutari/zrewrite/internal/logger"
)

var log = logger.GetLogger("scan")

// Result is the outcome of a walk. Entries are sorted by path and never
// include the root itself.
type Result struct {
	Entries []entry.Entry
	Errors  []entry.ScanError
}

// Count returns the number of entries of the given kind.
func (r *Result) Count(kind entry.Kind) int {
	n := 0
	for _, e := range r.Entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Walker enumerates the entries below root without following symlinks.
type Walker interface {
	Walk(ctx context.Context, root string) (*Result, error)
}

// FastWalker is a Walker backed by fastwalk. Directories are read in
// parallel; results are collected and sorted before returning so callers
// see a deterministic, sequential listing.
type FastWalker struct {
	opts *ScanOptions
}

// NewFastWalker creates a walker.
func NewFastWalker(opts *ScanOptions) *FastWalker {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &FastWalker{opts: opts}
}

// Walk implements Walker. Unreadable entries are recorded in Result.Errors
// and do not stop the walk. A root that is a symlink to a directory is
// followed; entries are still reported below root as given.
func (w *FastWalker) Walk(ctx context.Context, root string) (*Result, error) {
	root = filepath.Clean(root)

	rootInfo, err := identity.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat root")
	}
	if !rootInfo.Dir {
		return nil, errors.Errorf("root %s is not a directory", root)
	}

	walkRoot := root
	if linkInfo, err := identity.Lstat(root); err == nil && linkInfo.Symlink {
		walkRoot, err = filepath.EvalSymlinks(root)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve root")
		}
		log.Debugf("Following symlinked root %q to %q", root, walkRoot)
	}
	display := func(path string) string {
		if walkRoot == root {
			return path
		}
		return filepath.Join(root, strings.TrimPrefix(path, walkRoot))
	}

	var (
		mu  sync.Mutex
		res = &Result{}
	)

	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: w.opts.Workers,
	}

	err = fastwalk.Walk(&conf, walkRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path == walkRoot && err == nil {
			return nil
		}
		path = display(path)

		if err != nil {
			log.WithError(err).Debugf("Skipping unreadable entry: %q", path)
			mu.Lock()
			res.Errors = append(res.Errors, entry.ScanError{Path: path, Message: err.Error()})
			mu.Unlock()
			return nil
		}

		kind := entry.KindFromMode(d.Type())

		if w.opts.ShouldExclude(path) {
			log.Tracef("Skipping excluded path: %q", path)
			if kind == entry.KindDir {
				return fs.SkipDir
			}
			return nil
		}

		if kind == entry.KindDir && w.opts.Xdev {
			info, err := identity.Lstat(path)
			if err == nil && info.Key.Device != rootInfo.Key.Device {
				log.Debugf("Not crossing filesystem boundary: %q", path)
				return fs.SkipDir
			}
		}

		mu.Lock()
		res.Entries = append(res.Entries, entry.Entry{Path: path, Kind: kind})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", root)
	}

	sort.Slice(res.Entries, func(i, j int) bool {
		return res.Entries[i].Path < res.Entries[j].Path
	})

	return res, nil
}
