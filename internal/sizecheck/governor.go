// Package sizecheck enforces source-file line budgets and suggests split
// points for files over the error threshold.
package sizecheck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/storage"
)

// Fixed thresholds, in lines.
const (
	WarnThreshold  = 400
	ErrorThreshold = 500
)

// Artifact file names, relative to the reports directory.
const (
	ReportFile = "file-size-report.json"
	AlertsFile = "size-alerts.json"
)

// Governor counts lines per source file and classifies each against the
// fixed thresholds.
type Governor struct {
	Store  storage.Provider
	Logger *slog.Logger
}

// CountLines returns the newline count of the UTF-8 contents plus one,
// consistent with common tooling.
func CountLines(data []byte) int {
	return bytes.Count(data, []byte("\n")) + 1
}

// ClassifyLines maps a line count to its size class.
func ClassifyLines(lines int) models.SizeClass {
	switch {
	case lines > ErrorThreshold:
		return models.SizeError
	case lines > WarnThreshold:
		return models.SizeWarn
	default:
		return models.SizeOK
	}
}

// isMinified reports whether the file is a minified artifact, which the
// governor never budgets.
func isMinified(p string) bool {
	name := path.Base(p)
	return strings.Contains(name, ".min.")
}

// Run produces one size report per source file. With no explicit paths it
// walks the whole site for markup, style, and script sources; otherwise it
// checks only the named relative paths.
func (g *Governor) Run(paths ...string) ([]models.SizeReport, error) {
	if len(paths) == 0 {
		metas, err := g.Store.List("", ".html", ".css", ".js")
		if err != nil {
			return nil, fmt.Errorf("sizecheck: %w", err)
		}
		for _, m := range metas {
			paths = append(paths, m.Path)
		}
	}

	var out []models.SizeReport
	for _, p := range paths {
		if isMinified(p) {
			continue
		}
		data, err := g.Store.Read(p)
		if err != nil {
			g.Logger.Warn("sizecheck: read failed, skipping",
				slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		out = append(out, g.report(p, data))
	}
	return out, nil
}

func (g *Governor) report(p string, data []byte) models.SizeReport {
	lines := CountLines(data)
	r := models.SizeReport{
		Path:  p,
		Lines: lines,
		Class: ClassifyLines(lines),
	}
	if r.Class == models.SizeError {
		r.Excess = lines - ErrorThreshold
		r.Suggestions = Suggest(p, data)
		g.Logger.Warn("sizecheck: file over budget",
			slog.String("path", p),
			slog.Int("lines", lines),
			slog.Int("excess", r.Excess))
	}
	return r
}

// alertSummary is the shape of the aggregated alert artifact.
type alertSummary struct {
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
	OK          int       `json:"ok"`
	Warn        int       `json:"warn"`
	Error       int       `json:"error"`
	WarnFiles   []string  `json:"warn_files,omitempty"`
	ErrorFiles  []string  `json:"error_files,omitempty"`
}

// WriteArtifacts writes the full per-file report and the aggregated alert
// summary into the reports directory.
func (g *Governor) WriteArtifacts(reportsDir string, reports []models.SizeReport, now time.Time) error {
	full, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("sizecheck: marshal report: %w", err)
	}
	if err := g.Store.Write(path.Join(reportsDir, ReportFile), append(full, '\n')); err != nil {
		return err
	}

	sum := alertSummary{GeneratedAt: now, Total: len(reports)}
	for _, r := range reports {
		switch r.Class {
		case models.SizeOK:
			sum.OK++
		case models.SizeWarn:
			sum.Warn++
			sum.WarnFiles = append(sum.WarnFiles, r.Path)
		case models.SizeError:
			sum.Error++
			sum.ErrorFiles = append(sum.ErrorFiles, r.Path)
		}
	}
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("sizecheck: marshal alerts: %w", err)
	}
	return g.Store.Write(path.Join(reportsDir, AlertsFile), append(data, '\n'))
}

// HasError reports whether any file is classified at error, which drives the
// orchestrator's non-zero exit.
func HasError(reports []models.SizeReport) bool {
	for _, r := range reports {
		if r.Class == models.SizeError {
			return true
		}
	}
	return false
}
