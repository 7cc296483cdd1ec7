package report

import (
	"encoding/json"
	"log/slog"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/locallmhub/sitekit/internal"
	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/storage"
)

func testAggregator(t *testing.T) *Aggregator {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return &Aggregator{
		Store:  fs,
		Config: internal.NewDefaultConfig(),
		Logger: slog.New(slog.DiscardHandler),
	}
}

func findings(pass, warn, fail int) []models.Finding {
	var out []models.Finding
	for i := 0; i < pass; i++ {
		out = append(out, models.Finding{Rule: "title-present", Severity: models.SeverityPass, Subject: "/a.html"})
	}
	for i := 0; i < warn; i++ {
		out = append(out, models.Finding{Rule: "title-length", Severity: models.SeverityWarn, Subject: "/a.html"})
	}
	for i := 0; i < fail; i++ {
		out = append(out, models.Finding{Rule: "viewport", Severity: models.SeverityFail, Subject: "/a.html", Message: "missing viewport"})
	}
	return out
}

func TestBuild_CountsAndGrade(t *testing.T) {
	a := testAggregator(t)
	r := a.Build("/site", findings(9, 0, 1), nil, nil, time.Now())
	if r.PassCount != 9 || r.WarnCount != 0 || r.FailCount != 1 {
		t.Errorf("counts = %d/%d/%d", r.PassCount, r.WarnCount, r.FailCount)
	}
	if r.Score != 0.9 || r.Grade != "A" {
		t.Errorf("score=%v grade=%s", r.Score, r.Grade)
	}
}

func TestBuild_EmptyFindingsPerfectScore(t *testing.T) {
	a := testAggregator(t)
	r := a.Build("/site", nil, nil, nil, time.Now())
	if r.Score != 1.0 || r.Grade != "A" {
		t.Errorf("score=%v grade=%s", r.Score, r.Grade)
	}
}

// More failures can never raise the score.
func TestBuild_ScoreMonotonicity(t *testing.T) {
	a := testAggregator(t)
	prev := 2.0
	for fail := 0; fail <= 10; fail++ {
		r := a.Build("/site", findings(10-fail, 0, fail), nil, nil, time.Now())
		if r.Score > prev {
			t.Fatalf("score rose from %v to %v at fail=%d", prev, r.Score, fail)
		}
		prev = r.Score
	}
}

func TestGradeBoundaries(t *testing.T) {
	cases := map[float64]string{
		1.00: "A", 0.90: "A", 0.89: "B", 0.80: "B",
		0.79: "C", 0.70: "C", 0.69: "D", 0.60: "D", 0.59: "F", 0.0: "F",
	}
	for score, want := range cases {
		if got := models.GradeFor(score); got != want {
			t.Errorf("GradeFor(%v) = %s, want %s", score, got, want)
		}
	}
}

func TestWrite_Artifacts(t *testing.T) {
	a := testAggregator(t)
	sizes := []models.SizeReport{{Path: "/big.js", Lines: 612, Class: models.SizeError, Excess: 112,
		Suggestions: []models.SplitSuggestion{{Line: 260, Anchor: "class", Description: "class boundary"}}}}
	changes := []models.ChangeRecord{{Target: "/index.html", Region: "daily-banner", Action: "inserted"}}
	r := a.Build("/site", findings(3, 1, 1), sizes, changes, time.Date(2025, 8, 25, 6, 0, 0, 0, time.UTC))
	if err := a.Write(r); err != nil {
		t.Fatalf("Write: %v", err)
	}

	dir := a.Config.Reports.Dir
	data, err := a.Store.Read(path.Join(dir, ValidationReportFile))
	if err != nil {
		t.Fatalf("validation report missing: %v", err)
	}
	var v struct {
		Findings  []models.Finding `json:"findings"`
		FailCount int              `json:"fail_count"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("validation report not JSON: %v", err)
	}
	if len(v.Findings) != 5 || v.FailCount != 1 {
		t.Errorf("findings=%d fail=%d", len(v.Findings), v.FailCount)
	}

	data, err = a.Store.Read(path.Join(dir, FullReportJSONFile))
	if err != nil {
		t.Fatalf("full report missing: %v", err)
	}
	var full models.RunReport
	if err := json.Unmarshal(data, &full); err != nil {
		t.Fatalf("full report not JSON: %v", err)
	}
	if len(full.SizeReports) != 1 || len(full.Changes) != 1 {
		t.Errorf("full report = %+v", full)
	}

	html, err := a.Store.Read(path.Join(dir, FullReportHTMLFile))
	if err != nil {
		t.Fatalf("html report missing: %v", err)
	}
	for _, want := range []string{"<!DOCTYPE html>", "daily-banner", "/big.js", "missing viewport"} {
		if !strings.Contains(string(html), want) {
			t.Errorf("html report missing %q", want)
		}
	}
}

func TestSummary(t *testing.T) {
	a := testAggregator(t)
	r := a.Build("/site", findings(4, 0, 1),
		[]models.SizeReport{{Path: "/big.js", Lines: 612, Class: models.SizeError}}, nil, time.Now())
	s := Summary(r)
	if !strings.Contains(s, "grade B") {
		t.Errorf("summary = %q", s)
	}
	if !strings.Contains(s, "FAIL viewport /a.html: missing viewport") {
		t.Errorf("summary must list failures, got %q", s)
	}
	if !strings.Contains(s, "1 over budget") {
		t.Errorf("summary = %q", s)
	}
}
