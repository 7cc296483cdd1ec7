package internal

import (
	"testing"

	"github.com/locallmhub/sitekit/internal/models"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestSiteConfigValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Site.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty base_url should be rejected")
	}
}

func TestCrawlConfigValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Crawl.Delay = 120
	if err := cfg.Validate(); err == nil {
		t.Error("delay over 60 should be rejected")
	}

	cfg = NewDefaultConfig()
	cfg.Crawl.Agents = nil
	if err := cfg.Validate(); err == nil {
		t.Error("empty agents should be rejected")
	}
}

func TestKindDefaultValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Kinds = map[string]KindDefault{
		"document": {Priority: 1.5, ChangeFreq: "monthly"},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("priority over 1.0 should be rejected")
	}

	cfg.Kinds = map[string]KindDefault{
		"document": {Priority: 0.5, ChangeFreq: "fortnightly"},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown changefreq should be rejected")
	}
}

func TestResolvedBaseURL(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Site.BaseURL = "https://example.org/"
	if got := cfg.Site.ResolvedBaseURL(); got != "https://example.org" {
		t.Errorf("ResolvedBaseURL = %q", got)
	}

	t.Setenv(BaseURLEnvVar, "https://override.example/")
	if got := cfg.Site.ResolvedBaseURL(); got != "https://override.example" {
		t.Errorf("env override = %q", got)
	}
}

func TestKindDefaultFor(t *testing.T) {
	cfg := NewDefaultConfig()
	if kd := cfg.KindDefaultFor(models.KindHomepage); kd.Priority != 1.0 || kd.ChangeFreq != "weekly" {
		t.Errorf("homepage default = %+v", kd)
	}
	if kd := cfg.KindDefaultFor(models.KindOther); kd.Priority != 0.7 {
		t.Errorf("other default = %+v", kd)
	}

	cfg.Kinds = map[string]KindDefault{
		"document": {Priority: 0.95, ChangeFreq: "daily"},
	}
	if kd := cfg.KindDefaultFor(models.KindDocument); kd.Priority != 0.95 || kd.ChangeFreq != "daily" {
		t.Errorf("override = %+v", kd)
	}
}
