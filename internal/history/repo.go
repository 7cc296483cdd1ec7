package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/locallmhub/sitekit/internal/models"
)

// RunRow is one recorded pipeline run.
type RunRow struct {
	ID         int64
	RanAt      time.Time
	SiteRoot   string
	Grade      string
	Score      float64
	PassCount  int
	WarnCount  int
	FailCount  int
	SizeErrors int
	Changes    int
}

// FindingRow is one validation finding attached to a run.
type FindingRow struct {
	Rule     string
	Severity string
	Subject  string
	Message  string
}

// PageRow records the checksum of one page at run time, so a trend query can
// tell whether a grade change came with content changes.
type PageRow struct {
	Path     string
	Checksum string
}

// FromReport flattens a run report into its history rows.
func FromReport(r *models.RunReport) (RunRow, []FindingRow) {
	sizeErrors := 0
	for _, s := range r.SizeReports {
		if s.Class == models.SizeError {
			sizeErrors++
		}
	}
	run := RunRow{
		RanAt:      r.GeneratedAt,
		SiteRoot:   r.SiteRoot,
		Grade:      r.Grade,
		Score:      r.Score,
		PassCount:  r.PassCount,
		WarnCount:  r.WarnCount,
		FailCount:  r.FailCount,
		SizeErrors: sizeErrors,
		Changes:    len(r.Changes),
	}
	findings := make([]FindingRow, 0, len(r.Findings))
	for _, f := range r.Findings {
		findings = append(findings, FindingRow{
			Rule:     f.Rule,
			Severity: string(f.Severity),
			Subject:  f.Subject,
			Message:  f.Message,
		})
	}
	return run, findings
}

// RecordRun inserts a run, its findings, and its page checksums within a
// transaction and returns the new run id.
func (db *DB) RecordRun(r RunRow, findings []FindingRow, pages []PageRow) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`
		INSERT INTO runs (ran_at, site_root, grade, score, pass_count, warn_count, fail_count, size_errors, changes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RanAt, r.SiteRoot, r.Grade, r.Score, r.PassCount, r.WarnCount, r.FailCount, r.SizeErrors, r.Changes)
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}

	if len(findings) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO run_findings (run_id, rule, severity, subject, message) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("history: prepare finding insert: %w", err)
		}
		defer stmt.Close()
		for _, f := range findings {
			if _, err := stmt.Exec(id, f.Rule, f.Severity, f.Subject, f.Message); err != nil {
				return 0, fmt.Errorf("history: insert finding: %w", err)
			}
		}
	}

	if len(pages) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO run_pages (run_id, path, checksum) VALUES (?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("history: prepare page insert: %w", err)
		}
		defer stmt.Close()
		for _, p := range pages {
			if _, err := stmt.Exec(id, p.Path, p.Checksum); err != nil {
				return 0, fmt.Errorf("history: insert page: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit: %w", err)
	}
	return id, nil
}

// RecentRuns returns the most recent runs, newest first.
func (db *DB) RecentRuns(limit int) ([]RunRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, ran_at, site_root, grade, score, pass_count, warn_count, fail_count, size_errors, changes
		FROM runs ORDER BY ran_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.RanAt, &r.SiteRoot, &r.Grade, &r.Score,
			&r.PassCount, &r.WarnCount, &r.FailCount, &r.SizeErrors, &r.Changes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunFindings returns the findings recorded for one run.
func (db *DB) RunFindings(runID int64) ([]FindingRow, error) {
	rows, err := db.conn.Query(`SELECT rule, severity, subject, message FROM run_findings WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: run findings: %w", err)
	}
	defer rows.Close()

	var out []FindingRow
	for rows.Next() {
		var f FindingRow
		if err := rows.Scan(&f.Rule, &f.Severity, &f.Subject, &f.Message); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// RunPages returns the page checksums recorded for one run.
func (db *DB) RunPages(runID int64) ([]PageRow, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM run_pages WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: run pages: %w", err)
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		var p PageRow
		if err := rows.Scan(&p.Path, &p.Checksum); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FailingRules counts fail findings per rule across the last n runs.
func (db *DB) FailingRules(lastN int) (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT f.rule, count(*) FROM run_findings f
		WHERE f.severity = 'fail' AND f.run_id IN (SELECT id FROM runs ORDER BY ran_at DESC, id DESC LIMIT ?)
		GROUP BY f.rule
	`, lastN)
	if err != nil {
		return nil, fmt.Errorf("history: failing rules: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var rule string
		var n int
		if err := rows.Scan(&rule, &n); err != nil {
			return nil, err
		}
		out[rule] = n
	}
	return out, rows.Err()
}

// Trend renders the recent runs as a human-readable table.
func Trend(runs []RunRow) string {
	var b strings.Builder
	b.WriteString("date        grade score pass warn fail size-errors changes\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "%s  %-5s %.2f  %4d %4d %4d %11d %7d\n",
			r.RanAt.Format("2006-01-02"), r.Grade, r.Score,
			r.PassCount, r.WarnCount, r.FailCount, r.SizeErrors, r.Changes)
	}
	return b.String()
}
