package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/locallmhub/sitekit/internal"
	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/storage"
)

const testPage = `<!DOCTYPE html>
<html lang="en"><head>
<meta charset="utf-8">
<title>Local model runtimes explained for newcomers</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="description" content="A practical walkthrough of the runtimes that execute language models on local hardware, with guidance on choosing between them.">
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"WebPage","name":"Runtimes","description":"Runtime guide","url":"https://www.locallmhub.com/"}
</script>
</head><body>
<h1>Runtimes</h1>
</body></html>`

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write("index.html", []byte(testPage)); err != nil {
		t.Fatal(err)
	}
	srv := New(store, internal.NewDefaultConfig(), slog.New(slog.DiscardHandler))
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct call-tool test helper, so we invoke the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_pages":
		result, err = srv.listPages(ctx, req)
	case "validate_page":
		result, err = srv.validatePage(ctx, req)
	case "site_health":
		result, err = srv.siteHealth(ctx, req)
	case "generate_sitemaps":
		result, err = srv.generateSitemaps(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListPages(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("documents/guide.html", []byte(testPage))

	r := callTool(t, srv, "list_pages", map[string]interface{}{})
	var pages []models.Page
	if err := json.Unmarshal([]byte(resultText(r)), &pages); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages", len(pages))
	}

	r = callTool(t, srv, "list_pages", map[string]interface{}{"kind": "document"})
	if err := json.Unmarshal([]byte(resultText(r)), &pages); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if len(pages) != 1 || pages[0].Path != "/documents/guide.html" {
		t.Errorf("pages = %+v", pages)
	}
}

func TestValidatePage(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "validate_page", map[string]interface{}{"path": "/index.html"})
	var findings []models.Finding
	if err := json.Unmarshal([]byte(resultText(r)), &findings); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if len(findings) == 0 {
		t.Fatal("no findings returned")
	}
	for _, f := range findings {
		if f.Rule == "title-present" && f.Severity != models.SeverityPass {
			t.Errorf("title-present = %s", f.Severity)
		}
	}
}

func TestValidatePageMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "validate_page", map[string]interface{}{"path": "/nope.html"})
	if !r.IsError {
		t.Error("expected error for missing page")
	}
}

func TestSiteHealth(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "site_health", map[string]interface{}{})
	var report models.RunReport
	if err := json.Unmarshal([]byte(resultText(r)), &report); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if report.Grade == "" || len(report.Findings) == 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestGenerateSitemaps(t *testing.T) {
	srv, store := testServer(t)
	r := callTool(t, srv, "generate_sitemaps", map[string]interface{}{})
	if !strings.Contains(resultText(r), "generated robots.txt") {
		t.Errorf("result = %q", resultText(r))
	}
	if _, err := store.Read("robots.txt"); err != nil {
		t.Errorf("robots.txt missing: %v", err)
	}
	if _, err := store.Read("sitemap.xml"); err != nil {
		t.Errorf("sitemap.xml missing: %v", err)
	}
}
