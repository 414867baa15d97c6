// Package history persists a record of supervised runs in a local SQLite
// database. Recording is strictly best-effort: a broken or locked database
// must never fail the run that tried to record into it, so callers log and
// continue on error.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded invocation.
type Run struct {
	ID          int64
	StartedAt   time.Time
	Command     string
	ExitCode    int
	TimedOut    bool
	DurationMS  int64
	StdoutBytes int
	StderrBytes int
}

// Open opens (or creates) the history database at the given path, ensuring
// the parent directory exists.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history db at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history db at %s: %w", path, err)
	}
	return db, nil
}

// InitSchema creates the runs table if it does not exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER NOT NULL,
			command TEXT NOT NULL,
			exit_code INTEGER NOT NULL,
			timed_out INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL,
			stdout_bytes INTEGER NOT NULL DEFAULT 0,
			stderr_bytes INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`)
	return err
}

// Record inserts one finished run.
func Record(db *sql.DB, r Run) error {
	_, err := db.Exec(
		`INSERT INTO runs (started_at, command, exit_code, timed_out, duration_ms, stdout_bytes, stderr_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.Unix(), r.Command, r.ExitCode, boolToInt(r.TimedOut), r.DurationMS, r.StdoutBytes, r.StderrBytes,
	)
	return err
}

// Recent returns the most recent runs, newest first.
func Recent(db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT id, started_at, command, exit_code, timed_out, duration_ms, stdout_bytes, stderr_bytes
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt int64
		var timedOut int
		if err := rows.Scan(&r.ID, &startedAt, &r.Command, &r.ExitCode, &timedOut, &r.DurationMS, &r.StdoutBytes, &r.StderrBytes); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(startedAt, 0)
		r.TimedOut = timedOut != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CommandLine renders an argv slice the way it is stored in the database.
func CommandLine(argv []string) string {
	return strings.Join(argv, " ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
