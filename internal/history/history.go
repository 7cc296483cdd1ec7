// Package history provides SQLite-backed storage of pipeline run results,
// so grade and finding trends survive across invocations.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	ran_at      DATETIME NOT NULL,
	site_root   TEXT NOT NULL DEFAULT '',
	grade       TEXT NOT NULL,
	score       REAL NOT NULL,
	pass_count  INTEGER NOT NULL DEFAULT 0,
	warn_count  INTEGER NOT NULL DEFAULT 0,
	fail_count  INTEGER NOT NULL DEFAULT 0,
	size_errors INTEGER NOT NULL DEFAULT 0,
	changes     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_findings (
	run_id   INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	rule     TEXT NOT NULL,
	severity TEXT NOT NULL,
	subject  TEXT NOT NULL,
	message  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS run_pages (
	run_id   INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	path     TEXT NOT NULL,
	checksum TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_ran_at ON runs(ran_at);
CREATE INDEX IF NOT EXISTS idx_run_findings_run ON run_findings(run_id);
CREATE INDEX IF NOT EXISTS idx_run_pages_run ON run_pages(run_id);
`

// Store defines the run-history operations. Consumers should depend on this
// interface rather than the concrete *DB type to facilitate testing with mocks.
type Store interface {
	RecordRun(r RunRow, findings []FindingRow, pages []PageRow) (int64, error)
	RecentRuns(limit int) ([]RunRow, error)
	RunFindings(runID int64) ([]FindingRow, error)
	RunPages(runID int64) ([]PageRow, error)
	FailingRules(lastN int) (map[string]int, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with history-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
