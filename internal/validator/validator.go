// Package validator runs the fixed rule set over each page of the inventory.
//
// Rules never mutate pages. Structural rules read a lenient HTML tree built
// with goquery; surface rules use anchored regular expressions on the raw
// bytes. Every rule yields exactly one finding per subject.
package validator

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/storage"
)

// Suite evaluates the rule set against an inventory.
type Suite struct {
	Store  storage.Provider
	Logger *slog.Logger
}

// pageContext carries everything a rule may inspect for one page.
type pageContext struct {
	page  models.Page
	data  []byte
	doc   *goquery.Document
	inv   *models.Inventory
	store storage.Provider
}

type ruleFunc func(*pageContext) models.Finding

// rules in fixed evaluation order.
var rules = []ruleFunc{
	titlePresent,
	titleLength,
	metaDescriptionPresent,
	metaDescriptionLength,
	viewportPresent,
	canonicalPresent,
	singleH1,
	headingHierarchy,
	structuredDataPresent,
	structuredDataWellFormed,
	structuredDataRequiredFields,
	imageAltText,
	openGraphCore,
	internalLinkIntegrity,
	strayMarkup,
	fileSizePage,
	cssSize,
	jsSize,
}

// Run evaluates every rule against every page. When only is non-empty just
// the page at that leading-slash path is checked. Pages that cannot be read
// are skipped with a warning; a page that cannot be tree-parsed still gets
// its surface rules (goquery is lenient enough that this does not happen on
// real-world HTML).
func (s *Suite) Run(inv *models.Inventory, only string) ([]models.Finding, error) {
	var findings []models.Finding
	for _, page := range inv.Pages {
		if only != "" && page.Path != only {
			continue
		}
		data, err := s.Store.Read(strings.TrimPrefix(page.Path, "/"))
		if err != nil {
			s.Logger.Warn("validator: read failed, skipping page",
				slog.String("path", page.Path),
				slog.String("error", err.Error()))
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("validator: parse %s: %w", page.Path, err)
		}
		ctx := &pageContext{page: page, data: data, doc: doc, inv: inv, store: s.Store}
		for _, rule := range rules {
			findings = append(findings, rule(ctx))
		}
	}
	return findings, nil
}

// HasFail reports whether any finding failed, which drives the
// orchestrator's non-zero exit.
func HasFail(findings []models.Finding) bool {
	for _, f := range findings {
		if f.Severity == models.SeverityFail {
			return true
		}
	}
	return false
}

func pass(rule, subject, msg string) models.Finding {
	return models.Finding{Rule: rule, Severity: models.SeverityPass, Subject: subject, Message: msg}
}

func warn(rule, subject, msg string) models.Finding {
	return models.Finding{Rule: rule, Severity: models.SeverityWarn, Subject: subject, Message: msg}
}

func fail(rule, subject, msg string) models.Finding {
	return models.Finding{Rule: rule, Severity: models.SeverityFail, Subject: subject, Message: msg}
}

// metaContent returns the content of the first meta element whose name
// matches (case-insensitively, either quote style already normalized by the
// parser).
func (ctx *pageContext) metaContent(name string) (string, bool) {
	var content string
	found := false
	ctx.doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if n, ok := sel.Attr("name"); ok && strings.EqualFold(n, name) {
			content, _ = sel.Attr("content")
			found = true
			return false
		}
		return true
	})
	return strings.TrimSpace(content), found
}
