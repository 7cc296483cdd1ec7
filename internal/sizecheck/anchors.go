package sizecheck

import (
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/locallmhub/sitekit/internal/models"
)

// anchor is a syntactic boundary found by surface pattern matching.
type anchor struct {
	line int // 1-based
	tag  string
	desc string
}

type anchorPattern struct {
	re   *regexp.Regexp
	tag  string
	desc string
}

// Patterns are matched per line, first hit wins. They are deliberately
// surface-level; no file kind is fully parsed here.
var (
	scriptPatterns = []anchorPattern{
		{regexp.MustCompile(`^\s*class\s+[A-Za-z_$]`), "class boundary", "class declaration"},
		{regexp.MustCompile(`^\s*export\s`), "export boundary", "export statement"},
		{regexp.MustCompile(`^\s*(async\s+)?function\s+[A-Za-z_$]`), "function boundary", "function declaration"},
		{regexp.MustCompile(`^\s*//\s*([=-]{3,}|[Ss]ection\b)`), "section comment", "section comment"},
	}
	stylePatterns = []anchorPattern{
		{regexp.MustCompile(`^\s*@media\b`), "media-query boundary", "media query"},
		{regexp.MustCompile(`^\s*/\*\s*([=-]{3,}|[A-Za-z].*[Cc]omponent)`), "component-comment boundary", "component comment"},
	}
	markupPatterns = []anchorPattern{
		{regexp.MustCompile(`(?i)^\s*<section\b`), "section element", "section element"},
		{regexp.MustCompile(`(?i)^\s*<script\b`), "script element", "script element"},
		{regexp.MustCompile(`(?i)^\s*<style\b`), "style element", "style element"},
	}
)

func patternsFor(p string) []anchorPattern {
	switch strings.ToLower(path.Ext(p)) {
	case ".js":
		return scriptPatterns
	case ".css":
		return stylePatterns
	case ".html", ".htm":
		return markupPatterns
	default:
		return nil
	}
}

func findAnchors(p string, data []byte) []anchor {
	patterns := patternsFor(p)
	if patterns == nil {
		return nil
	}
	var out []anchor
	for i, line := range strings.Split(string(data), "\n") {
		for _, pat := range patterns {
			if pat.re.MatchString(line) {
				out = append(out, anchor{line: i + 1, tag: pat.tag, desc: pat.desc})
				break
			}
		}
	}
	return out
}

// Suggest produces advisory split points for a file over the error
// threshold. The target split count is ceil(lines/ErrorThreshold); one
// suggestion is produced per internal boundary, anchored to the nearest
// syntactic anchor within ±20% of the evenly spaced target line. When no
// anchor is near enough the bare target line is suggested.
func Suggest(p string, data []byte) []models.SplitSuggestion {
	lines := CountLines(data)
	parts := int(math.Ceil(float64(lines) / float64(ErrorThreshold)))
	if parts < 2 {
		return nil
	}
	anchors := findAnchors(p, data)
	tolerance := lines / 5

	var out []models.SplitSuggestion
	for k := 1; k < parts; k++ {
		target := k * lines / parts
		best, bestDist := anchor{}, tolerance+1
		for _, a := range anchors {
			d := a.line - target
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				best, bestDist = a, d
			}
		}
		if bestDist <= tolerance {
			out = append(out, models.SplitSuggestion{
				Line:        best.line,
				Anchor:      best.tag,
				Description: "split before the " + best.desc + " at line " + strconv.Itoa(best.line),
			})
		} else {
			out = append(out, models.SplitSuggestion{
				Line:        target,
				Anchor:      "even-split",
				Description: "no nearby anchor; split at line " + strconv.Itoa(target),
			})
		}
	}
	return out
}
