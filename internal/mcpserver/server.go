// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the site maintenance tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/locallmhub/sitekit/internal"
	"github.com/locallmhub/sitekit/internal/discovery"
	"github.com/locallmhub/sitekit/internal/inventory"
	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/sizecheck"
	"github.com/locallmhub/sitekit/internal/storage"
	"github.com/locallmhub/sitekit/internal/validator"
)

// Server wraps the MCP server with the site maintenance tools.
type Server struct {
	mcp    *server.MCPServer
	store  storage.Provider
	cfg    *internal.Config
	logger *slog.Logger
}

// New creates a new MCP server with all tools registered.
func New(store storage.Provider, cfg *internal.Config, logger *slog.Logger) *Server {
	s := &Server{store: store, cfg: cfg, logger: logger}

	s.mcp = server.NewMCPServer(
		"sitekit",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List every page in the site with its classified kind and declared dates."),
		mcp.WithString("kind", mcp.Description("Optional kind filter: homepage, document, comparison, other")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("validate_page",
		mcp.WithDescription("Run the SEO and structure rule set against one page and return the findings."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Site-relative page path (e.g. /documents/setup.html)")),
	), s.validatePage)

	s.mcp.AddTool(mcp.NewTool("site_health",
		mcp.WithDescription("Validate every page and check source file sizes, returning the graded summary."),
	), s.siteHealth)

	s.mcp.AddTool(mcp.NewTool("generate_sitemaps",
		mcp.WithDescription("Regenerate robots.txt and all sitemap files from the current page inventory."),
	), s.generateSitemaps)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inv, err := inventory.Build(s.store, s.logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pages := inv.Pages
	if kind, kindErr := req.RequireString("kind"); kindErr == nil && kind != "" {
		pages = inv.OfKind(models.PageKind(kind))
	}

	out, _ := json.MarshalIndent(pages, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) validatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	inv, err := inventory.Build(s.store, s.logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if inv.ByPath(path) == nil {
		return mcp.NewToolResultError(fmt.Sprintf("page not found: %s", path)), nil
	}

	suite := &validator.Suite{Store: s.store, Logger: s.logger}
	findings, err := suite.Run(inv, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(findings, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) siteHealth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inv, err := inventory.Build(s.store, s.logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	suite := &validator.Suite{Store: s.store, Logger: s.logger}
	findings, err := suite.Run(inv, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gov := &sizecheck.Governor{Store: s.store, Logger: s.logger}
	sizes, err := gov.Run()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r := &models.RunReport{
		GeneratedAt: time.Now(),
		SiteRoot:    s.store.Root(),
		Findings:    findings,
		SizeReports: sizes,
	}
	r.Tally()

	out, _ := json.MarshalIndent(r, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) generateSitemaps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inv, err := inventory.Build(s.store, s.logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gen := &discovery.Generator{Store: s.store, Config: s.cfg, Logger: s.logger, Today: time.Now()}
	warnings, err := gen.Generate(inv)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg := fmt.Sprintf("generated robots.txt and 4 sitemaps for %d pages", len(inv.Pages))
	if len(warnings) > 0 {
		out, _ := json.MarshalIndent(warnings, "", "  ")
		msg += "\nwarnings:\n" + string(out)
	}
	return mcp.NewToolResultText(msg), nil
}
