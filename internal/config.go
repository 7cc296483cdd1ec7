// Package internal provides the pipeline configuration and shared defaults.
package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/locallmhub/sitekit/internal/models"
)

// ConfigFileName is the fixed configuration file name in the site root.
const ConfigFileName = "site-config.yaml"

// BaseURLEnvVar overrides the configured base URL when set.
const BaseURLEnvVar = "SITE_BASE_URL"

// Config represents the pipeline configuration.
type Config struct {
	App     ApplicationConfig      `yaml:"app"`
	Site    SiteConfig             `yaml:"site"`
	Crawl   CrawlConfig            `yaml:"crawl"`
	Kinds   map[string]KindDefault `yaml:"kinds"`
	Reports ReportsConfig          `yaml:"reports"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	for kind, kd := range c.Kinds {
		if err := kd.Validate(); err != nil {
			return fmt.Errorf("kinds.%s: %w", kind, err)
		}
	}
	return c.Reports.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// SiteConfig identifies the site the pipeline maintains.
type SiteConfig struct {
	BaseURL string `yaml:"base_url"`
	Name    string `yaml:"name"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Name, validation.Required),
	)
}

// ResolvedBaseURL returns the base URL with the environment override applied
// and any trailing slash removed.
func (c *SiteConfig) ResolvedBaseURL() string {
	base := c.BaseURL
	if env := os.Getenv(BaseURLEnvVar); env != "" {
		base = env
	}
	return strings.TrimRight(base, "/")
}

// CrawlConfig holds crawler-facing directives for the robots file.
type CrawlConfig struct {
	Delay    int      `yaml:"delay"`
	Agents   []string `yaml:"agents"`
	Disallow []string `yaml:"disallow"`
	Allow    []string `yaml:"allow"`
}

// Validate validates the crawl configuration.
func (c *CrawlConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Delay, validation.Min(0), validation.Max(60)),
		validation.Field(&c.Agents, validation.Required),
	)
}

// KindDefault carries the sitemap defaults for one page kind.
type KindDefault struct {
	Priority   float64 `yaml:"priority"`
	ChangeFreq string  `yaml:"changefreq"`
}

// Validate validates one kind default entry.
func (k KindDefault) Validate() error {
	freqs := make([]any, len(models.ChangeFreqs))
	for i, f := range models.ChangeFreqs {
		freqs[i] = f
	}
	return validation.ValidateStruct(&k,
		validation.Field(&k.Priority, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&k.ChangeFreq, validation.Required, validation.In(freqs...)),
	)
}

// ReportsConfig holds output locations relative to the site root.
type ReportsConfig struct {
	Dir           string `yaml:"dir"`
	AnalyticsDir  string `yaml:"analytics_dir"`
	ChangelogPath string `yaml:"changelog_path"`
	HistoryDB     string `yaml:"history_db"`
}

// Validate validates the reports configuration.
func (c *ReportsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.AnalyticsDir, validation.Required),
		validation.Field(&c.ChangelogPath, validation.Required),
	)
}

// KindDefaultFor returns the sitemap defaults for a page kind, falling back to
// the built-in table when the config does not override the kind.
func (c *Config) KindDefaultFor(kind models.PageKind) KindDefault {
	if kd, ok := c.Kinds[string(kind)]; ok {
		return kd
	}
	return builtinKindDefaults[kind]
}

var builtinKindDefaults = map[models.PageKind]KindDefault{
	models.KindHomepage:   {Priority: 1.0, ChangeFreq: "weekly"},
	models.KindComparison: {Priority: 0.9, ChangeFreq: "monthly"},
	models.KindDocument:   {Priority: 0.8, ChangeFreq: "monthly"},
	models.KindOther:      {Priority: 0.7, ChangeFreq: "monthly"},
}

// NewDefaultConfig returns a new Config with the documented default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Site: SiteConfig{
			BaseURL: "https://www.locallmhub.com",
			Name:    "Local LLM Hub",
		},
		Crawl: CrawlConfig{
			Delay: 1,
			Agents: []string{
				"Googlebot",
				"Bingbot",
				"DuckDuckBot",
				"GPTBot",
				"ClaudeBot",
				"PerplexityBot",
				"CCBot",
			},
			Disallow: []string{"/admin/", "/private/", "/.git/", "/node_modules/"},
			Allow:    []string{"/assets/", "/css/", "/js/"},
		},
		Kinds: map[string]KindDefault{},
		Reports: ReportsConfig{
			Dir:           "build-reports",
			AnalyticsDir:  "analytics-reports",
			ChangelogPath: "changelog/DAILY_UPDATES.md",
			HistoryDB:     "build-reports/history.db",
		},
	}
}
