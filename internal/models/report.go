package models

import "time"

// Severity grades a validation finding.
type Severity string

const (
	SeverityPass Severity = "pass"
	SeverityWarn Severity = "warn"
	SeverityFail Severity = "fail"
)

// Finding is the result of evaluating one rule against one subject.
type Finding struct {
	Rule     string         `json:"rule"`
	Severity Severity       `json:"severity"`
	Subject  string         `json:"subject"`
	Message  string         `json:"message"`
	Detail   map[string]any `json:"detail,omitempty"`
}

// SizeClass classifies a source file against the line budget.
type SizeClass string

const (
	SizeOK    SizeClass = "ok"
	SizeWarn  SizeClass = "warn"
	SizeError SizeClass = "error"
)

// SplitSuggestion names a candidate split point in an oversized file.
type SplitSuggestion struct {
	Line        int    `json:"line"`
	Anchor      string `json:"anchor"`
	Description string `json:"description"`
}

// SizeReport is the Size Governor's verdict on one source file.
type SizeReport struct {
	Path        string            `json:"path"`
	Lines       int               `json:"lines"`
	Class       SizeClass         `json:"class"`
	Excess      int               `json:"excess,omitempty"` // lines over the error threshold
	Suggestions []SplitSuggestion `json:"suggestions,omitempty"`
}

// ChangeRecord documents one region rewrite applied by the Freshness Updater.
type ChangeRecord struct {
	Target string `json:"target"` // file path, leading-slash form
	Region string `json:"region"` // e.g. "daily-banner", "jsonld-date-modified"
	Action string `json:"action"` // "inserted" or "replaced"
	Detail string `json:"detail,omitempty"`
}

// RunReport aggregates everything a single pipeline run produced.
type RunReport struct {
	GeneratedAt time.Time      `json:"generated_at"`
	SiteRoot    string         `json:"site_root"`
	Findings    []Finding      `json:"findings"`
	SizeReports []SizeReport   `json:"size_reports,omitempty"`
	Changes     []ChangeRecord `json:"changes,omitempty"`
	PassCount   int            `json:"pass_count"`
	WarnCount   int            `json:"warn_count"`
	FailCount   int            `json:"fail_count"`
	Score       float64        `json:"score"`
	Grade       string         `json:"grade"`
}

// Tally recomputes the severity counts, score, and grade from Findings.
func (r *RunReport) Tally() {
	r.PassCount, r.WarnCount, r.FailCount = 0, 0, 0
	for _, f := range r.Findings {
		switch f.Severity {
		case SeverityPass:
			r.PassCount++
		case SeverityWarn:
			r.WarnCount++
		case SeverityFail:
			r.FailCount++
		}
	}
	total := len(r.Findings)
	if total == 0 {
		r.Score = 1.0
	} else {
		r.Score = float64(r.PassCount) / float64(total)
	}
	r.Grade = GradeFor(r.Score)
}

// GradeFor maps a pass ratio to a letter grade.
func GradeFor(score float64) string {
	switch {
	case score >= 0.90:
		return "A"
	case score >= 0.80:
		return "B"
	case score >= 0.70:
		return "C"
	case score >= 0.60:
		return "D"
	default:
		return "F"
	}
}
