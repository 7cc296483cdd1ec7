package inventory

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seedSite(t *testing.T) storage.Provider {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir(), "node_modules", "build-reports")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	pages := map[string]string{
		"index.html": "<html><head></head></html>",
		"documents/guide.html": `<html><head><script type="application/ld+json">
{"@type":"Article","datePublished":"2025-01-10","dateModified":"2025-05-02"}
</script></head></html>`,
		"comparisons/a-vs-b.html": "<html></html>",
		"about.html":              "<html></html>",
		"assets/partial.html":     "<html></html>",
	}
	for p, c := range pages {
		if err := fs.Write(p, []byte(c)); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
	return fs
}

func TestBuild_Totality(t *testing.T) {
	inv, err := Build(seedSite(t), discardLogger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// assets/ excluded; the other four pages discovered, sorted by path.
	want := []string{"/about.html", "/comparisons/a-vs-b.html", "/documents/guide.html", "/index.html"}
	if len(inv.Pages) != len(want) {
		t.Fatalf("pages = %d, want %d", len(inv.Pages), len(want))
	}
	for i, p := range inv.Pages {
		if p.Path != want[i] {
			t.Errorf("page[%d] = %s, want %s", i, p.Path, want[i])
		}
	}
}

func TestBuild_DeclaredDatesWin(t *testing.T) {
	inv, err := Build(seedSite(t), discardLogger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	doc := inv.ByPath("/documents/guide.html")
	if doc == nil {
		t.Fatal("guide page missing")
	}
	if doc.DateModified != "2025-05-02" {
		t.Errorf("DateModified = %q, want 2025-05-02", doc.DateModified)
	}
	if doc.DatePublished != "2025-01-10" {
		t.Errorf("DatePublished = %q", doc.DatePublished)
	}
}

func TestBuild_SingleHomepage(t *testing.T) {
	inv, err := Build(seedSite(t), discardLogger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	hp := inv.Homepage()
	if hp == nil || hp.Path != "/index.html" {
		t.Fatalf("homepage = %+v", hp)
	}
	count := 0
	for _, p := range inv.Pages {
		if p.Kind == models.KindHomepage {
			count++
		}
	}
	if count != 1 {
		t.Errorf("homepage count = %d", count)
	}
}

func TestClassify_PrefixRules(t *testing.T) {
	cases := map[string]models.PageKind{
		"/":                        models.KindHomepage,
		"/index.html":              models.KindHomepage,
		"/documents/x.html":        models.KindDocument,
		"/comparisons/a.html":      models.KindComparison,
		"/about.html":              models.KindOther,
		"/tools/index.html":        models.KindOther,
		"/documentsarchive.html":   models.KindOther,
	}
	for path, want := range cases {
		if got := Classify(path); got != want {
			t.Errorf("Classify(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestClassify_RandomPathsMatchPrefix(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dirs := []string{"", "documents/", "comparisons/", "tools/", "blog/2025/"}
	for i := 0; i < 200; i++ {
		dir := dirs[rng.Intn(len(dirs))]
		path := fmt.Sprintf("/%spage-%d.html", dir, rng.Intn(1000))
		got := Classify(path)
		switch {
		case strings.HasPrefix(path, "/documents/"):
			if got != models.KindDocument {
				t.Fatalf("Classify(%q) = %s", path, got)
			}
		case strings.HasPrefix(path, "/comparisons/"):
			if got != models.KindComparison {
				t.Fatalf("Classify(%q) = %s", path, got)
			}
		default:
			if got != models.KindOther {
				t.Fatalf("Classify(%q) = %s", path, got)
			}
		}
	}
}
