// Package pipeline orchestrates the maintenance stages over one site tree.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/locallmhub/sitekit/internal"
	"github.com/locallmhub/sitekit/internal/apperr"
	"github.com/locallmhub/sitekit/internal/checksum"
	"github.com/locallmhub/sitekit/internal/discovery"
	"github.com/locallmhub/sitekit/internal/freshness"
	"github.com/locallmhub/sitekit/internal/history"
	"github.com/locallmhub/sitekit/internal/inventory"
	"github.com/locallmhub/sitekit/internal/mcpserver"
	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/report"
	"github.com/locallmhub/sitekit/internal/sizecheck"
	"github.com/locallmhub/sitekit/internal/storage"
	"github.com/locallmhub/sitekit/internal/validator"
	"github.com/locallmhub/sitekit/internal/watcher"
	pkgconfig "github.com/locallmhub/sitekit/pkg/config"
)

// Pipeline wires the maintenance stages to one site root.
type Pipeline struct {
	Config *internal.Config
	Store  storage.Provider
	Logger *slog.Logger
	Now    func() time.Time
}

// New loads the site configuration and opens the site tree. A missing,
// unreadable, or malformed config file falls back to the documented defaults
// with a warning; a maintenance run never aborts over configuration.
func New(siteRoot, configPath string) (*Pipeline, error) {
	cfg := internal.NewDefaultConfig()
	if configPath == "" {
		configPath = path.Join(siteRoot, internal.ConfigFileName)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

	if err := pkgconfig.Load(configPath, cfg); err != nil {
		if errors.Is(err, pkgconfig.ErrNotExist) {
			logger.Warn("pipeline: no config file, using defaults", slog.String("path", configPath))
		} else {
			logger.Warn("pipeline: config unusable, using defaults",
				slog.String("path", configPath),
				slog.String("error", err.Error()))
			// A partial unmarshal may have mutated cfg before failing.
			cfg = internal.NewDefaultConfig()
		}
	}

	// Rebuild the logger in case the config changed the level.
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

	store, err := storage.NewFS(siteRoot,
		cfg.Reports.Dir, cfg.Reports.AnalyticsDir, "node_modules")
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	return &Pipeline{
		Config: cfg,
		Store:  store,
		Logger: logger,
		Now:    time.Now,
	}, nil
}

// Check runs the size governor, writes its artifacts, and fails the run when
// any file exceeds the error threshold.
func (p *Pipeline) Check(ctx context.Context, paths ...string) ([]models.SizeReport, error) {
	gov := &sizecheck.Governor{Store: p.Store, Logger: p.Logger}
	reports, err := gov.Run(paths...)
	if err != nil {
		return nil, err
	}
	if err := gov.WriteArtifacts(p.Config.Reports.Dir, reports, p.Now()); err != nil {
		return reports, err
	}
	if sizecheck.HasError(reports) {
		return reports, apperr.ErrSizeBudget
	}
	return reports, nil
}

// Validate runs the rule suite over the inventory, or over one page when only
// is non-empty. The page argument is normalized to leading-slash form. A
// fail-severity finding fails the run.
func (p *Pipeline) Validate(ctx context.Context, only string) ([]models.Finding, error) {
	if only != "" && !strings.HasPrefix(only, "/") {
		only = "/" + only
	}
	inv, err := inventory.Build(p.Store, p.Logger)
	if err != nil {
		return nil, err
	}
	suite := &validator.Suite{Store: p.Store, Logger: p.Logger}
	findings, err := suite.Run(inv, only)
	if err != nil {
		return nil, err
	}
	if validator.HasFail(findings) {
		return findings, apperr.ErrValidationFailed
	}
	return findings, nil
}

// Sitemaps regenerates robots.txt and the sitemap set from the current
// inventory. Validation warnings on individual entries do not fail the run.
func (p *Pipeline) Sitemaps(ctx context.Context) ([]models.Finding, error) {
	inv, err := inventory.Build(p.Store, p.Logger)
	if err != nil {
		return nil, err
	}
	gen := &discovery.Generator{Store: p.Store, Config: p.Config, Logger: p.Logger, Today: p.Now()}
	findings, err := gen.Generate(inv)
	if err != nil {
		return findings, err
	}
	if data, readErr := p.Store.Read(discovery.SitemapFile); readErr == nil {
		p.Logger.Info("pipeline: sitemaps written",
			slog.Int("urls", discovery.SitemapURLCount(data)),
			slog.Int("pages", len(inv.Pages)))
	}
	return findings, nil
}

// Freshness applies the daily content refresh, then regenerates the discovery
// artifacts so sitemap lastmod values reflect the rewritten pages.
func (p *Pipeline) Freshness(ctx context.Context) ([]models.ChangeRecord, error) {
	inv, err := inventory.Build(p.Store, p.Logger)
	if err != nil {
		return nil, err
	}
	up := &freshness.Updater{Store: p.Store, Config: p.Config, Logger: p.Logger, Today: p.Now()}
	changes, err := up.Run(ctx, inv)
	if err != nil {
		return changes, err
	}

	inv, err = inventory.Build(p.Store, p.Logger)
	if err != nil {
		return changes, err
	}
	gen := &discovery.Generator{Store: p.Store, Config: p.Config, Logger: p.Logger, Today: p.Now()}
	if _, err := gen.Generate(inv); err != nil {
		return changes, err
	}
	return changes, nil
}

// Build runs the full pipeline: size budgets, discovery artifacts, the rule
// suite, the aggregated report, and the history record. All stages run even
// when an earlier one finds problems; the combined verdict decides the error.
func (p *Pipeline) Build(ctx context.Context) (*models.RunReport, error) {
	sizes, sizeErr := p.Check(ctx)
	if sizeErr != nil && !errors.Is(sizeErr, apperr.ErrSizeBudget) {
		return nil, sizeErr
	}

	sitemapFindings, err := p.Sitemaps(ctx)
	if err != nil {
		return nil, err
	}

	findings, valErr := p.Validate(ctx, "")
	if valErr != nil && !errors.Is(valErr, apperr.ErrValidationFailed) {
		return nil, valErr
	}
	findings = append(findings, sitemapFindings...)

	agg := &report.Aggregator{Store: p.Store, Config: p.Config, Logger: p.Logger}
	r := agg.Build(p.Store.Root(), findings, sizes, nil, p.Now())
	if err := agg.Write(r); err != nil {
		return r, err
	}
	p.recordHistory(r)

	switch {
	case errors.Is(sizeErr, apperr.ErrSizeBudget):
		return r, sizeErr
	case errors.Is(valErr, apperr.ErrValidationFailed):
		return r, valErr
	}
	return r, nil
}

// recordHistory appends the run to the history database. History is best
// effort; a failure is logged and never fails the build.
func (p *Pipeline) recordHistory(r *models.RunReport) {
	dsn := p.Config.Reports.HistoryDB
	if dsn == "" {
		return
	}
	db, err := history.Open(path.Join(p.Store.Root(), dsn))
	if err != nil {
		p.Logger.Warn("pipeline: history unavailable", slog.String("error", err.Error()))
		return
	}
	defer db.Close()

	var pages []history.PageRow
	if metas, listErr := p.Store.List("", ".html"); listErr == nil {
		for _, m := range metas {
			pages = append(pages, history.PageRow{Path: "/" + m.Path, Checksum: m.Checksum})
		}
	}

	run, findings := history.FromReport(r)
	if _, err := db.RecordRun(run, findings, pages); err != nil {
		p.Logger.Warn("pipeline: history record failed", slog.String("error", err.Error()))
	}
}

// Split backs up and mechanically splits one over-budget file.
func (p *Pipeline) Split(ctx context.Context, relPath string) (*sizecheck.SplitResult, error) {
	return sizecheck.Split(p.Store, relPath, p.Now())
}

// History prints the recent run trend.
func (p *Pipeline) History(ctx context.Context, limit int) (string, error) {
	db, err := history.Open(path.Join(p.Store.Root(), p.Config.Reports.HistoryDB))
	if err != nil {
		return "", err
	}
	defer db.Close()

	runs, err := db.RecentRuns(limit)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "no recorded runs\n", nil
	}
	return history.Trend(runs), nil
}

// Watch re-checks sources as they change: an initial full pass, then size and
// validation checks on each batch of changed files. Events whose content
// checksum matches the last seen state (editor touch, atomic-rename double
// fire) are suppressed.
func (p *Pipeline) Watch(ctx context.Context) error {
	seen := make(map[string]string)
	var mu sync.Mutex

	w := &watcher.Watcher{
		Root:    p.Store.Root(),
		Exclude: []string{p.Config.Reports.Dir, p.Config.Reports.AnalyticsDir, "node_modules"},
		Logger:  p.Logger,
		OnChange: func(paths []string) {
			changed := paths[:0]
			mu.Lock()
			for _, rel := range paths {
				data, err := p.Store.Read(rel)
				if err != nil {
					delete(seen, rel)
					changed = append(changed, rel)
					continue
				}
				sum := checksum.Sum(data)
				if seen[rel] == sum {
					continue
				}
				seen[rel] = sum
				changed = append(changed, rel)
			}
			mu.Unlock()
			if len(changed) > 0 {
				p.recheck(ctx, changed)
			}
		},
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.recheck(ctx, nil)
		return nil
	})
	g.Go(func() error {
		return w.Run(ctx)
	})
	return g.Wait()
}

// recheck runs the size governor on the changed paths and the rule suite over
// the whole inventory, logging the outcome instead of failing.
func (p *Pipeline) recheck(ctx context.Context, paths []string) {
	live := paths[:0]
	for _, rel := range paths {
		if _, err := p.Store.Stat(rel); err == nil {
			live = append(live, rel)
		}
	}

	gov := &sizecheck.Governor{Store: p.Store, Logger: p.Logger}
	reports, err := gov.Run(live...)
	if err != nil {
		p.Logger.Error("watch: size check failed", slog.String("error", err.Error()))
		return
	}
	for _, r := range reports {
		if r.Class != models.SizeOK {
			p.Logger.Warn("watch: file over threshold",
				slog.String("path", r.Path),
				slog.String("class", string(r.Class)),
				slog.Int("lines", r.Lines))
		}
	}

	findings, err := p.Validate(ctx, "")
	if err != nil && !errors.Is(err, apperr.ErrValidationFailed) {
		p.Logger.Error("watch: validation failed", slog.String("error", err.Error()))
		return
	}
	fails := 0
	for _, f := range findings {
		if f.Severity == models.SeverityFail {
			fails++
			p.Logger.Warn("watch: rule failed",
				slog.String("rule", f.Rule),
				slog.String("subject", f.Subject),
				slog.String("message", f.Message))
		}
	}
	p.Logger.Info("watch: pass complete",
		slog.Int("changed", len(paths)),
		slog.Int("findings", len(findings)),
		slog.Int("fails", fails))
}

// ServeMCP runs the MCP stdio server over the site tree.
func (p *Pipeline) ServeMCP(ctx context.Context) error {
	srv := mcpserver.New(p.Store, p.Config, p.Logger)
	p.Logger.Info("mcp: serving on stdio")
	return srv.ServeStdio()
}
