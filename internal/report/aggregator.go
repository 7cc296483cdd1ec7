// Package report aggregates per-component outputs into one graded report.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/locallmhub/sitekit/internal"
	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/storage"
)

// Artifact file names, relative to the reports directory.
const (
	ValidationReportFile = "validation-report.json"
	FullReportJSONFile   = "comprehensive-test-report.json"
	FullReportHTMLFile   = "comprehensive-test-report.html"
)

// Aggregator assembles and persists the run report.
type Aggregator struct {
	Store  storage.Provider
	Config *internal.Config
	Logger *slog.Logger
}

// Build assembles a run report from the component outputs and derives the
// severity counts, score, and grade.
func (a *Aggregator) Build(siteRoot string, findings []models.Finding, sizes []models.SizeReport, changes []models.ChangeRecord, now time.Time) *models.RunReport {
	r := &models.RunReport{
		GeneratedAt: now,
		SiteRoot:    siteRoot,
		Findings:    findings,
		SizeReports: sizes,
		Changes:     changes,
	}
	r.Tally()
	return r
}

// Write persists the validation report, the comprehensive JSON report, and
// its HTML rendering into the reports directory.
func (a *Aggregator) Write(r *models.RunReport) error {
	dir := a.Config.Reports.Dir

	validation := struct {
		GeneratedAt time.Time        `json:"generated_at"`
		Findings    []models.Finding `json:"findings"`
		PassCount   int              `json:"pass_count"`
		WarnCount   int              `json:"warn_count"`
		FailCount   int              `json:"fail_count"`
	}{r.GeneratedAt, r.Findings, r.PassCount, r.WarnCount, r.FailCount}

	data, err := json.MarshalIndent(validation, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal validation report: %w", err)
	}
	if err := a.Store.Write(path.Join(dir, ValidationReportFile), append(data, '\n')); err != nil {
		return err
	}

	data, err = json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal full report: %w", err)
	}
	if err := a.Store.Write(path.Join(dir, FullReportJSONFile), append(data, '\n')); err != nil {
		return err
	}

	html, err := renderHTML(r)
	if err != nil {
		return err
	}
	if err := a.Store.Write(path.Join(dir, FullReportHTMLFile), html); err != nil {
		return err
	}

	a.Logger.Info("report: written",
		slog.String("dir", dir),
		slog.String("grade", r.Grade),
		slog.Int("fail", r.FailCount))
	return nil
}

// Summary renders the human-readable run summary.
func Summary(r *models.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Site maintenance report: grade %s (score %.2f)\n", r.Grade, r.Score)
	fmt.Fprintf(&b, "  findings: %d pass, %d warn, %d fail\n", r.PassCount, r.WarnCount, r.FailCount)
	if len(r.SizeReports) > 0 {
		over := 0
		for _, s := range r.SizeReports {
			if s.Class == models.SizeError {
				over++
			}
		}
		fmt.Fprintf(&b, "  size budget: %d files checked, %d over budget\n", len(r.SizeReports), over)
	}
	if len(r.Changes) > 0 {
		fmt.Fprintf(&b, "  freshness: %d regions rewritten\n", len(r.Changes))
	}
	for _, f := range r.Findings {
		if f.Severity == models.SeverityFail {
			fmt.Fprintf(&b, "  FAIL %s %s: %s\n", f.Rule, f.Subject, f.Message)
		}
	}
	return b.String()
}
