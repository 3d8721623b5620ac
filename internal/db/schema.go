// Package db stores the run journal in SQLite.
package db

import (
	"database/sql"

	"github.com/pkg/errors"
)

const runsTableDDL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    root_path TEXT NOT NULL,
    state_path TEXT NOT NULL,
    start_time INTEGER NOT NULL,
    end_time INTEGER,
    status TEXT NOT NULL,
    candidates INTEGER DEFAULT 0,
    processed INTEGER DEFAULT 0,
    rewritten INTEGER DEFAULT 0,
    skipped INTEGER DEFAULT 0,
    error TEXT
);
`

const rewritesTableDDL = `
CREATE TABLE IF NOT EXISTS rewrites (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    path TEXT NOT NULL,
    dev_id INTEGER NOT NULL,
    inode INTEGER NOT NULL,
    duration_ns INTEGER NOT NULL,
    time INTEGER NOT NULL
);
`

const scanErrorsTableDDL = `
CREATE TABLE IF NOT EXISTS scan_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    path TEXT NOT NULL,
    message TEXT NOT NULL
);
`

const rewritesRunIndexDDL = `CREATE INDEX IF NOT EXISTS idx_rewrites_run ON rewrites(run_id, id);`
const scanErrorsRunIndexDDL = `CREATE INDEX IF NOT EXISTS idx_scan_errors_run ON scan_errors(run_id);`
const runsStartIndexDDL = `CREATE INDEX IF NOT EXISTS idx_runs_start ON runs(start_time DESC);`

// InitSchema creates all tables and indexes.
func InitSchema(db *sql.DB) error {
	ddls := []string{
		runsTableDDL,
		rewritesTableDDL,
		scanErrorsTableDDL,
		rewritesRunIndexDDL,
		scanErrorsRunIndexDDL,
		runsStartIndexDDL,
	}

	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return errors.Wrap(err, "failed to execute DDL")
		}
	}

	return nil
}

// ApplyWritePragmas configures SQLite for a long-running writer.
func ApplyWritePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return errors.Wrapf(err, "failed to apply pragma %q", pragma)
		}
	}

	return nil
}

// ApplyReadPragmas configures SQLite for read-only queries.
func ApplyReadPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA query_only = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return errors.Wrapf(err, "failed to apply pragma %q", pragma)
		}
	}

	return nil
}

// Finalize checkpoints the write-ahead log so the journal is a single file at rest.
func Finalize(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA optimize"); err != nil {
		return errors.Wrap(err, "failed to optimize")
	}

	if _, err := db.Exec("PRAGMA journal_mode = DELETE"); err != nil {
		return errors.Wrap(err, "failed to set journal mode")
	}

	return nil
}
