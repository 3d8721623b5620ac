package db

import (
	"database/sql"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/michaelscutari/zrewrite/internal/entry"
)

const runColumns = `id, root_path, state_path, start_time, COALESCE(end_time, 0), status,
       candidates, processed, rewritten, skipped, COALESCE(error, '')`

// OpenReadOnly opens an existing journal for queries.
func OpenReadOnly(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "journal not found")
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal")
	}
	database.SetMaxOpenConns(1)
	if err := ApplyReadPragmas(database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (entry.RunMeta, error) {
	var m entry.RunMeta
	var startTime, endTime int64
	var status string

	err := row.Scan(&m.ID, &m.RootPath, &m.StatePath, &startTime, &endTime, &status,
		&m.Candidates, &m.Processed, &m.Rewritten, &m.Skipped, &m.Error)
	if err != nil {
		return m, err
	}

	m.Status = entry.RunStatus(status)
	m.StartTime = time.Unix(startTime, 0)
	if endTime > 0 {
		m.EndTime = time.Unix(endTime, 0)
	}
	return m, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less returns all runs.
func ListRuns(db *sql.DB, limit int) ([]entry.RunMeta, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM runs ORDER BY start_time DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	defer rows.Close()

	var runs []entry.RunMeta
	for rows.Next() {
		m, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan failed")
		}
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

// GetRun finds a run by id or unique id prefix. It returns nil when nothing matches.
func GetRun(db *sql.DB, idPrefix string) (*entry.RunMeta, error) {
	rows, err := db.Query(`SELECT `+runColumns+` FROM runs WHERE id LIKE ? || '%' ESCAPE '\' LIMIT 2`, escapeLike(idPrefix))
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	defer rows.Close()

	var found []entry.RunMeta
	for rows.Next() {
		m, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan failed")
		}
		found = append(found, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	default:
		return nil, errors.Errorf("run id prefix %q is ambiguous", idPrefix)
	}
}

// LoadRewrites returns the files committed by a run in commit order.
func LoadRewrites(db *sql.DB, runID string, limit int) ([]entry.Rewrite, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT run_id, path, dev_id, inode, duration_ns, time
		FROM rewrites WHERE run_id = ?
		ORDER BY id
		LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	defer rows.Close()

	var out []entry.Rewrite
	for rows.Next() {
		var rw entry.Rewrite
		var dev, inode, took, at int64
		if err := rows.Scan(&rw.RunID, &rw.Path, &dev, &inode, &took, &at); err != nil {
			return nil, errors.Wrap(err, "scan failed")
		}
		rw.DevID = uint64(dev)
		rw.Inode = uint64(inode)
		rw.Duration = time.Duration(took)
		rw.Time = time.Unix(at, 0)
		out = append(out, rw)
	}
	return out, rows.Err()
}

// LoadScanErrors returns the traversal errors recorded for a run.
func LoadScanErrors(db *sql.DB, runID string) ([]entry.ScanError, error) {
	rows, err := db.Query(`SELECT path, message FROM scan_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	defer rows.Close()

	var out []entry.ScanError
	for rows.Next() {
		var e entry.ScanError
		if err := rows.Scan(&e.Path, &e.Message); err != nil {
			return nil, errors.Wrap(err, "scan failed")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
