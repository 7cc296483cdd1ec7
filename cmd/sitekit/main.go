package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/locallmhub/sitekit/internal/apperr"
	"github.com/locallmhub/sitekit/internal/pipeline"
	"github.com/locallmhub/sitekit/internal/report"
)

func newPipeline(cmd *cli.Command) (*pipeline.Pipeline, error) {
	return pipeline.New(cmd.String("site"), cmd.String("config"))
}

func runBuild(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	r, err := p.Build(ctx)
	if r != nil {
		fmt.Print(report.Summary(r))
	}
	return err
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	reports, err := p.Check(ctx, cmd.Args().Slice()...)
	for _, r := range reports {
		fmt.Printf("%-6s %5d  %s\n", r.Class, r.Lines, r.Path)
		for _, s := range r.Suggestions {
			fmt.Printf("           split at line %d (%s)\n", s.Line, s.Description)
		}
	}
	return err
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	findings, err := p.Validate(ctx, cmd.Args().First())
	for _, f := range findings {
		fmt.Printf("%-4s %-28s %-30s %s\n", f.Severity, f.Rule, f.Subject, f.Message)
	}
	return err
}

func runSitemaps(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	warnings, err := p.Sitemaps(ctx)
	for _, f := range warnings {
		fmt.Printf("warn %s %s: %s\n", f.Rule, f.Subject, f.Message)
	}
	return err
}

func runFreshness(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	changes, err := p.Freshness(ctx)
	for _, c := range changes {
		fmt.Printf("%s %s %s\n", c.Action, c.Region, c.Target)
	}
	return err
}

func runSplit(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	target := cmd.Args().First()
	if target == "" {
		return errors.New("split: a file path is required")
	}
	res, err := p.Split(ctx, target)
	if err != nil {
		return err
	}
	fmt.Printf("backup: %s\n", res.Backup)
	for _, part := range res.Parts {
		fmt.Printf("part:   %s\n", part)
	}
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return p.Watch(ctx)
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	out, err := p.History(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	return p.ServeMCP(ctx)
}

func main() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "site",
			Aliases: []string{"s"},
			Usage:   "Site root directory",
			Value:   ".",
			Sources: cli.EnvVars("SITE_ROOT"),
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "<site>/site-config.yaml",
			Sources:     cli.EnvVars("SITE_CONFIG_FILE"),
		},
	}

	cmd := &cli.Command{
		Name:  "sitekit",
		Usage: "Static site maintenance: size budgets, SEO validation, discovery artifacts, and daily freshness",
		Flags: flags,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Run the full pipeline and write the aggregated report",
				Action: runBuild,
			},
			{
				Name:      "check",
				Usage:     "Check source file sizes against the line budgets",
				ArgsUsage: "[paths...]",
				Action:    runCheck,
			},
			{
				Name:      "validate",
				Usage:     "Run the SEO and structure rule suite",
				ArgsUsage: "[page path]",
				Action:    runValidate,
			},
			{
				Name:   "sitemaps",
				Usage:  "Regenerate robots.txt and the sitemap set",
				Action: runSitemaps,
			},
			{
				Name:   "freshness",
				Usage:  "Apply the daily content refresh",
				Action: runFreshness,
			},
			{
				Name:      "split",
				Usage:     "Back up and split an over-budget file on its suggested anchors",
				ArgsUsage: "<path>",
				Action:    runSplit,
			},
			{
				Name:   "watch",
				Usage:  "Re-check sources as they change on disk",
				Action: runWatch,
			},
			{
				Name:   "history",
				Usage:  "Show the recorded run trend",
				Action: runHistory,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of runs to show",
						Value: 20,
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the site maintenance tools over MCP stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, apperr.ErrSizeBudget) && !errors.Is(err, apperr.ErrValidationFailed) {
			slog.Error("application error", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}
