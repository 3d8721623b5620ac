package db

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/michaelscutari/zrewrite/internal/entry"
	"github.com/michaelscutari/zrewrite/internal/logger"
)

var log = logger.GetLogger("journal")

const insertRunSQL = `INSERT INTO runs (id, root_path, state_path, start_time, status) VALUES (?, ?, ?, ?, ?)`
const finishRunSQL = `UPDATE runs SET end_time = ?, status = ?, candidates = ?, processed = ?, rewritten = ?, skipped = ?, error = ? WHERE id = ?`
const insertRewriteSQL = `INSERT INTO rewrites (run_id, path, dev_id, inode, duration_ns, time) VALUES (?, ?, ?, ?, ?, ?)`
const insertScanErrorSQL = `INSERT INTO scan_errors (run_id, path, message) VALUES (?, ?, ?)`

// Journal writes run history to a SQLite database.
type Journal struct {
	db          *sql.DB
	path        string
	rewriteStmt *sql.Stmt
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create journal directory")
		}
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal")
	}
	database.SetMaxOpenConns(1)

	if err := ApplyWritePragmas(database); err != nil {
		database.Close()
		return nil, err
	}
	if err := InitSchema(database); err != nil {
		database.Close()
		return nil, err
	}

	stmt, err := database.Prepare(insertRewriteSQL)
	if err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to prepare rewrite insert")
	}

	log.Debugf("Opened journal %q", path)
	return &Journal{db: database, path: path, rewriteStmt: stmt}, nil
}

// DB returns the underlying database handle.
func (j *Journal) DB() *sql.DB {
	return j.db
}

// BeginRun inserts a run row and assigns meta.ID.
func (j *Journal) BeginRun(meta *entry.RunMeta) error {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Status == "" {
		meta.Status = entry.RunRunning
	}
	_, err := j.db.Exec(insertRunSQL, meta.ID, meta.RootPath, meta.StatePath, meta.StartTime.Unix(), string(meta.Status))
	return errors.Wrap(err, "failed to insert run")
}

// RecordRewrite inserts one committed file.
func (j *Journal) RecordRewrite(rw entry.Rewrite) error {
	_, err := j.rewriteStmt.Exec(rw.RunID, rw.Path, int64(rw.DevID), int64(rw.Inode), int64(rw.Duration), rw.Time.Unix())
	return errors.Wrapf(err, "failed to record rewrite of %q", rw.Path)
}

// RecordScanErrors stores traversal errors for a run in one transaction.
func (j *Journal) RecordScanErrors(runID string, scanErrs []entry.ScanError) error {
	if len(scanErrs) == 0 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	stmt, err := tx.Prepare(insertScanErrorSQL)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to prepare scan error insert")
	}
	defer stmt.Close()

	for _, e := range scanErrs {
		if _, err := stmt.Exec(runID, e.Path, e.Message); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "failed to record scan error for %q", e.Path)
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit scan errors")
}

// FinishRun stores the final counters and status of a run.
func (j *Journal) FinishRun(meta *entry.RunMeta) error {
	var errText sql.NullString
	if meta.Error != "" {
		errText = sql.NullString{String: meta.Error, Valid: true}
	}
	res, err := j.db.Exec(finishRunSQL,
		meta.EndTime.Unix(), string(meta.Status),
		meta.Candidates, meta.Processed, meta.Rewritten, meta.Skipped,
		errText, meta.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to finish run")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Errorf("run %s not found", meta.ID)
	}
	return nil
}

// Close finalizes and closes the journal.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	j.rewriteStmt.Close()
	if err := Finalize(j.db); err != nil {
		log.WithError(err).Warnf("Failed to finalize journal %q", j.path)
	}
	err := j.db.Close()
	j.db = nil
	return errors.Wrap(err, "failed to close journal")
}
