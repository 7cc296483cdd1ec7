package sizecheck

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/storage"
)

// scriptOf builds a script file of n lines with class declarations at the
// given 1-based lines.
func scriptOf(n int, classLines ...int) []byte {
	classes := make(map[int]bool, len(classLines))
	for _, l := range classLines {
		classes[l] = true
	}
	lines := make([]string, n)
	for i := range lines {
		if classes[i+1] {
			lines[i] = fmt.Sprintf("class Widget%d {", i+1)
		} else {
			lines[i] = fmt.Sprintf("  count += %d;", i)
		}
	}
	return []byte(strings.Join(lines, "\n"))
}

func testGovernor(t *testing.T) *Governor {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir(), "node_modules")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return &Governor{Store: fs, Logger: slog.New(slog.DiscardHandler)}
}

func TestCountLines(t *testing.T) {
	if got := CountLines([]byte("a\nb\nc")); got != 3 {
		t.Errorf("CountLines = %d, want 3", got)
	}
	if got := CountLines([]byte("one line, trailing newline\n")); got != 2 {
		t.Errorf("CountLines = %d, want 2", got)
	}
	if got := CountLines([]byte("")); got != 1 {
		t.Errorf("CountLines(empty) = %d, want 1", got)
	}
}

func TestClassifyLines_Thresholds(t *testing.T) {
	cases := map[int]models.SizeClass{
		1:   models.SizeOK,
		400: models.SizeOK,
		401: models.SizeWarn,
		500: models.SizeWarn,
		501: models.SizeError,
	}
	for lines, want := range cases {
		if got := ClassifyLines(lines); got != want {
			t.Errorf("ClassifyLines(%d) = %s, want %s", lines, got, want)
		}
	}
}

func TestSuggest_OversizedScript(t *testing.T) {
	// 612 lines with class boundaries at 40, 260, 480: one suggestion,
	// anchored at line 260 (nearest the even split at 306).
	data := scriptOf(612, 40, 260, 480)
	if got := CountLines(data); got != 612 {
		t.Fatalf("fixture lines = %d", got)
	}
	sugs := Suggest("js/app.js", data)
	if len(sugs) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(sugs))
	}
	if sugs[0].Line != 260 || sugs[0].Anchor != "class boundary" {
		t.Errorf("suggestion = %+v", sugs[0])
	}
}

func TestSuggest_CountAndSpacingProperty(t *testing.T) {
	for _, n := range []int{501, 750, 1000, 1499, 2200} {
		data := scriptOf(n, 100, 200, 300, 400, 500, 700, 900, 1100, 1500, 1900)
		sugs := Suggest("js/big.js", data)
		parts := int(math.Ceil(float64(n) / float64(ErrorThreshold)))
		if len(sugs) != parts-1 {
			t.Fatalf("n=%d: suggestions = %d, want %d", n, len(sugs), parts-1)
		}
		for k, s := range sugs {
			target := (k + 1) * n / parts
			if d := s.Line - target; d > n/5 || d < -n/5 {
				t.Errorf("n=%d: suggestion %d at line %d, target %d beyond 20%%", n, k, s.Line, target)
			}
		}
	}
}

func TestSuggest_AnchorKindsPerFileType(t *testing.T) {
	css := strings.Repeat(".a { color: red; }\n", 300) +
		"@media (max-width: 600px) {\n" +
		strings.Repeat(".b { color: blue; }\n", 300)
	sugs := Suggest("css/styles.css", []byte(css))
	if len(sugs) != 1 || sugs[0].Anchor != "media-query boundary" {
		t.Errorf("css suggestions = %+v", sugs)
	}

	html := strings.Repeat("<p>x</p>\n", 300) +
		"<section class=\"features\">\n" +
		strings.Repeat("<p>y</p>\n", 300)
	sugs = Suggest("index.html", []byte(html))
	if len(sugs) != 1 || sugs[0].Anchor != "section element" {
		t.Errorf("html suggestions = %+v", sugs)
	}
}

func TestRun_SkipsMinifiedAndWritesArtifacts(t *testing.T) {
	g := testGovernor(t)
	_ = g.Store.Write("js/app.js", scriptOf(612, 40, 260, 480))
	_ = g.Store.Write("js/vendor.min.js", scriptOf(5000))
	_ = g.Store.Write("index.html", []byte("<html></html>"))

	reports, err := g.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2 (minified excluded)", len(reports))
	}
	if !HasError(reports) {
		t.Error("expected an error classification")
	}

	if err := g.WriteArtifacts("build-reports", reports, time.Now()); err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}
	if _, err := g.Store.Read("build-reports/" + ReportFile); err != nil {
		t.Errorf("missing report artifact: %v", err)
	}
	alerts, err := g.Store.Read("build-reports/" + AlertsFile)
	if err != nil {
		t.Fatalf("missing alerts artifact: %v", err)
	}
	if !strings.Contains(string(alerts), `"error": 1`) {
		t.Errorf("alerts = %s", alerts)
	}
}

func TestSplit_BackupAndParts(t *testing.T) {
	g := testGovernor(t)
	original := scriptOf(612, 40, 260, 480)
	_ = g.Store.Write("js/app.js", original)

	res, err := Split(g.Store, "js/app.js", time.Date(2025, 8, 25, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if res.Backup != "js/app.js.bak-20250825-093000" {
		t.Errorf("backup = %s", res.Backup)
	}
	backup, err := g.Store.Read(res.Backup)
	if err != nil || string(backup) != string(original) {
		t.Error("backup does not preserve the original")
	}
	if len(res.Parts) != 2 {
		t.Fatalf("parts = %v", res.Parts)
	}
	var joined string
	for _, p := range res.Parts {
		data, err := g.Store.Read(p)
		if err != nil {
			t.Fatalf("read part %s: %v", p, err)
		}
		joined += string(data)
	}
	if joined != string(original) {
		t.Error("parts do not concatenate back to the original")
	}
}

func TestSplit_RefusesWithinBudget(t *testing.T) {
	g := testGovernor(t)
	_ = g.Store.Write("js/small.js", scriptOf(120))
	if _, err := Split(g.Store, "js/small.js", time.Now()); err == nil {
		t.Error("expected refusal for in-budget file")
	}
}
