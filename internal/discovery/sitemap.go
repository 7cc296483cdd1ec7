// Package discovery generates the machine-readable discovery artifacts:
// the robots directive file, the sitemap family, and the sitemap index.
package discovery

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/locallmhub/sitekit/internal"
	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/storage"
)

// Artifact file names, fixed relative to the site root.
const (
	RobotsFile             = "robots.txt"
	SitemapFile            = "sitemap.xml"
	SitemapIndexFile       = "sitemap-index.xml"
	SitemapDocumentsFile   = "sitemap-documents.xml"
	SitemapComparisonsFile = "sitemap-comparisons.xml"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Generator produces the discovery artifacts for one inventory snapshot.
// Today supplies the default last-modified stamp so output is reproducible.
type Generator struct {
	Store  storage.Provider
	Config *internal.Config
	Logger *slog.Logger
	Today  time.Time
}

// Entries derives one sitemap entry per page. The homepage maps to the bare
// base URL; every other page keeps its path. Pages without a declared
// modification date default to Today.
func (g *Generator) Entries(inv *models.Inventory) []models.SitemapEntry {
	base := g.Config.Site.ResolvedBaseURL()
	today := g.Today.Format("2006-01-02")

	out := make([]models.SitemapEntry, 0, len(inv.Pages))
	for _, p := range inv.Pages {
		kd := g.Config.KindDefaultFor(p.Kind)
		urlPath := p.Path
		if p.Kind == models.KindHomepage {
			urlPath = "/"
		}
		lastmod := p.DateModified
		if lastmod == "" {
			lastmod = today
		}
		out = append(out, models.SitemapEntry{
			Loc:        base + urlPath,
			LastMod:    lastmod,
			ChangeFreq: kd.ChangeFreq,
			Priority:   kd.Priority,
		})
	}
	return out
}

// validateEntry checks one entry against the sitemap grammar before emission.
// Violations become warn findings; the entry is still emitted unchanged so
// the problem stays visible downstream.
func (g *Generator) validateEntry(pagePath string, e models.SitemapEntry) []models.Finding {
	freqs := make([]any, len(models.ChangeFreqs))
	for i, f := range models.ChangeFreqs {
		freqs[i] = f
	}
	err := validation.Errors{
		"path": validation.Validate(pagePath,
			validation.Required, validation.Match(regexp.MustCompile(`^/`))),
		"lastmod": validation.Validate(e.LastMod,
			validation.Required, validation.Match(dateRe)),
		"changefreq": validation.Validate(e.ChangeFreq,
			validation.Required, validation.In(freqs...)),
		"priority": validation.Validate(e.Priority,
			validation.Min(0.0), validation.Max(1.0)),
	}.Filter()
	if err == nil {
		return nil
	}
	return []models.Finding{{
		Rule:     "sitemap-entry",
		Severity: models.SeverityWarn,
		Subject:  pagePath,
		Message:  fmt.Sprintf("sitemap entry violates the schema: %v", err),
	}}
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlSitemapRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type xmlSitemapIndex struct {
	XMLName  xml.Name        `xml:"sitemapindex"`
	Xmlns    string          `xml:"xmlns,attr"`
	Sitemaps []xmlSitemapRef `xml:"sitemap"`
}

// MarshalSitemap serializes entries to sitemap XML with the standard
// namespace, children in loc/lastmod/changefreq/priority order, and priority
// to one decimal place.
func MarshalSitemap(entries []models.SitemapEntry) ([]byte, error) {
	set := xmlURLSet{Xmlns: sitemapNS}
	for _, e := range entries {
		set.URLs = append(set.URLs, xmlURL{
			Loc:        e.Loc,
			LastMod:    e.LastMod,
			ChangeFreq: e.ChangeFreq,
			Priority:   fmt.Sprintf("%.1f", e.Priority),
		})
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("discovery: marshal sitemap: %w", err)
	}
	return append([]byte(xmlHeader), append(body, '\n')...), nil
}

func (g *Generator) marshalIndex() ([]byte, error) {
	base := g.Config.Site.ResolvedBaseURL()
	today := g.Today.Format("2006-01-02")
	idx := xmlSitemapIndex{Xmlns: sitemapNS}
	for _, name := range []string{SitemapFile, SitemapDocumentsFile, SitemapComparisonsFile} {
		idx.Sitemaps = append(idx.Sitemaps, xmlSitemapRef{
			Loc:     base + "/" + name,
			LastMod: today,
		})
	}
	body, err := xml.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("discovery: marshal sitemap index: %w", err)
	}
	return append([]byte(xmlHeader), append(body, '\n')...), nil
}

// Generate writes all five discovery artifacts into the site root and
// returns the pre-emission findings. A write failure on one artifact does
// not stop the others; all write errors are joined into the returned error.
func (g *Generator) Generate(inv *models.Inventory) ([]models.Finding, error) {
	entries := g.Entries(inv)

	var findings []models.Finding
	for i, e := range entries {
		findings = append(findings, g.validateEntry(inv.Pages[i].Path, e)...)
	}

	perKind := func(kind models.PageKind) []models.SitemapEntry {
		var out []models.SitemapEntry
		for i, p := range inv.Pages {
			if p.Kind == kind {
				out = append(out, entries[i])
			}
		}
		return out
	}

	var errs []error
	write := func(name string, data []byte, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		if werr := g.Store.Write(name, data); werr != nil {
			g.Logger.Error("discovery: write failed",
				slog.String("artifact", name),
				slog.String("error", werr.Error()))
			errs = append(errs, werr)
			return
		}
		g.Logger.Debug("discovery: wrote artifact", slog.String("artifact", name))
	}

	data, err := MarshalSitemap(entries)
	write(SitemapFile, data, err)

	data, err = MarshalSitemap(perKind(models.KindDocument))
	write(SitemapDocumentsFile, data, err)

	data, err = MarshalSitemap(perKind(models.KindComparison))
	write(SitemapComparisonsFile, data, err)

	data, err = g.marshalIndex()
	write(SitemapIndexFile, data, err)

	write(RobotsFile, g.RenderRobots(), nil)

	if len(errs) > 0 {
		return findings, fmt.Errorf("discovery: %w", errors.Join(errs...))
	}
	return findings, nil
}

// SitemapURLCount reports how many <url> elements a serialized sitemap holds.
// Used by callers that log artifact summaries.
func SitemapURLCount(data []byte) int {
	return strings.Count(string(data), "<url>")
}
