// Package freshness performs the scheduled daily refresh: structured-data
// modification dates, the homepage banner, per-document insight notes, the
// robots header stamp, and the service-worker cache tag.
//
// Every rewrite is anchored by sentinel comments or exact-pattern
// replacement, so applying the updater twice on the same day converges to
// the same bytes.
package freshness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/locallmhub/sitekit/internal"
	"github.com/locallmhub/sitekit/internal/discovery"
	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/parser"
	"github.com/locallmhub/sitekit/internal/storage"
)

// Sentinel comment pairs. These exact strings carry the updater's state
// between runs and between implementations; do not change them.
const (
	BannerStart  = "<!-- sitekit:daily-banner:start -->"
	BannerEnd    = "<!-- sitekit:daily-banner:end -->"
	InsightStart = "<!-- sitekit:insight:start -->"
	InsightEnd   = "<!-- sitekit:insight:end -->"
)

// ServiceWorkerFile is the script carrying the asset-cache version tag.
const ServiceWorkerFile = "sw.js"

var (
	bannerRe       = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(BannerStart) + `.*?` + regexp.QuoteMeta(BannerEnd))
	insightRe      = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(InsightStart) + `.*?` + regexp.QuoteMeta(InsightEnd))
	heroOpenRe     = regexp.MustCompile(`(?i)<section[^>]*\bclass=["'][^"']*\bhero\b[^"']*["'][^>]*>`)
	sectionOpenRe  = regexp.MustCompile(`(?i)<section\b`)
	sectionCloseRe = regexp.MustCompile(`(?i)</section\s*>`)
	bodyOpenRe     = regexp.MustCompile(`(?i)<body[^>]*>`)
	h2CloseRe      = regexp.MustCompile(`(?i)</h2\s*>`)

	dateModifiedRe  = regexp.MustCompile(`("dateModified"\s*:\s*")[^"]*(")`)
	datePublishedRe = regexp.MustCompile(`("datePublished"\s*:\s*"[^"]*")`)
	typeMemberRe    = regexp.MustCompile(`"@type"\s*:\s*"[^"]*"`)
	articleTypeRe   = regexp.MustCompile(`"@type"\s*:\s*"Article"`)
	lastReviewedRe  = regexp.MustCompile(`"lastReviewed"`)

	cacheVersionRe = regexp.MustCompile(`(CACHE_VERSION\s*=\s*['"])[^'"]*(['"])`)

	dailyUpdateLineRe = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(discovery.DailyUpdatePrefix) + `.*$`)
	crawlDelayLineRe  = regexp.MustCompile(`(?m)^Crawl-delay:`)
)

// Updater applies the daily refresh for one calendar date.
type Updater struct {
	Store  storage.Provider
	Config *internal.Config
	Logger *slog.Logger
	Today  time.Time
}

// Run rewrites every region, records applied changes, and writes the
// changelog section and daily summary. The summary is written even when some
// regions fail; per-region errors are joined into the returned error.
// Cancellation is honored between pages.
func (u *Updater) Run(ctx context.Context, inv *models.Inventory) ([]models.ChangeRecord, error) {
	var changes []models.ChangeRecord
	var errs []error

	record := func(c *models.ChangeRecord, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		if c != nil {
			changes = append(changes, *c)
		}
	}

	for _, page := range inv.Pages {
		if err := ctx.Err(); err != nil {
			return changes, err
		}
		cs, err := u.updateStructuredDates(page)
		record(cs, err)

		switch page.Kind {
		case models.KindHomepage:
			c, err := u.updateBanner(page)
			record(c, err)
		case models.KindDocument:
			c, err := u.updateInsight(page)
			record(c, err)
		}
	}

	c, err := u.updateRobotsHeader()
	record(c, err)

	c, err = u.updateCacheVersion()
	record(c, err)

	if err := u.writeChangelog(inv); err != nil {
		errs = append(errs, err)
	}
	if err := u.writeSummary(inv); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return changes, fmt.Errorf("freshness: %w", errors.Join(errs...))
	}
	return changes, nil
}

func (u *Updater) date() string { return u.Today.Format("2006-01-02") }

// writeIfChanged writes only when the content actually differs, returning a
// change record when it did.
func (u *Updater) writeIfChanged(rel, region, action string, before, after []byte) (*models.ChangeRecord, error) {
	if string(before) == string(after) {
		return nil, nil
	}
	if err := u.Store.Write(rel, after); err != nil {
		return nil, err
	}
	u.Logger.Debug("freshness: rewrote region",
		slog.String("path", rel),
		slog.String("region", region),
		slog.String("action", action))
	return &models.ChangeRecord{Target: "/" + rel, Region: region, Action: action}, nil
}

// updateStructuredDates sets dateModified to today in every JSON-LD block
// and inserts lastReviewed next to it for Articles that lack one. Blocks are
// edited back to front so earlier offsets stay valid.
func (u *Updater) updateStructuredDates(page models.Page) (*models.ChangeRecord, error) {
	rel := strings.TrimPrefix(page.Path, "/")
	data, err := u.Store.Read(rel)
	if err != nil {
		u.Logger.Warn("freshness: read failed, skipping page",
			slog.String("path", rel), slog.String("error", err.Error()))
		return nil, nil
	}

	blocks := parser.Blocks(data)
	content := string(data)
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		payload := b.Payload

		switch {
		case dateModifiedRe.MatchString(payload):
			payload = dateModifiedRe.ReplaceAllString(payload, `${1}`+u.date()+`${2}`)
		case datePublishedRe.MatchString(payload):
			payload = datePublishedRe.ReplaceAllString(payload, `${1}, "dateModified": "`+u.date()+`"`)
		default:
			// No date members at all: anchor on the top-level @type so every
			// block still carries a modification date. Only the first match
			// is used; nested objects keep their own @type untouched.
			if loc := typeMemberRe.FindStringIndex(payload); loc != nil {
				payload = payload[:loc[1]] + `, "dateModified": "` + u.date() + `"` + payload[loc[1]:]
			}
		}

		if articleTypeRe.MatchString(payload) && !lastReviewedRe.MatchString(payload) {
			payload = dateModifiedRe.ReplaceAllString(payload,
				`${1}`+u.date()+`${2}`+`, "lastReviewed": "`+u.date()+`"`)
		}

		content = content[:b.Start] + payload + content[b.End:]
	}

	return u.writeIfChanged(rel, "structured-dates", "replaced", data, []byte(content))
}

// updateBanner inserts or replaces the homepage daily banner. Insertion goes
// immediately after the hero section; a page without a hero gets the banner
// right after the body opens.
func (u *Updater) updateBanner(page models.Page) (*models.ChangeRecord, error) {
	rel := strings.TrimPrefix(page.Path, "/")
	data, err := u.Store.Read(rel)
	if err != nil {
		return nil, err
	}

	block := BannerStart + "\n" +
		`<div class="daily-banner"><p>` + BannerFor(u.Today) + `</p></div>` + "\n" +
		BannerEnd
	content := string(data)

	if bannerRe.MatchString(content) {
		next := bannerRe.ReplaceAllLiteralString(content, block)
		return u.writeIfChanged(rel, "daily-banner", "replaced", data, []byte(next))
	}

	at := -1
	if open := heroOpenRe.FindStringIndex(content); open != nil {
		at = sectionCloseEnd(content, open[1])
	}
	if at < 0 {
		if body := bodyOpenRe.FindStringIndex(content); body != nil {
			at = body[1]
		}
	}
	if at < 0 {
		u.Logger.Warn("freshness: no banner anchor on homepage", slog.String("path", rel))
		return nil, nil
	}
	next := content[:at] + "\n" + block + content[at:]
	return u.writeIfChanged(rel, "daily-banner", "inserted", data, []byte(next))
}

// sectionCloseEnd returns the index just past the close tag matching the
// section whose open tag ends at from, honoring nested sections. Returns -1
// when the section never closes.
func sectionCloseEnd(content string, from int) int {
	depth := 1
	pos := from
	for depth > 0 {
		open := sectionOpenRe.FindStringIndex(content[pos:])
		close := sectionCloseRe.FindStringIndex(content[pos:])
		if close == nil {
			return -1
		}
		if open != nil && open[0] < close[0] {
			depth++
			pos += open[1]
			continue
		}
		depth--
		pos += close[1]
	}
	return pos
}

// updateInsight inserts or replaces the insight note after the first h2 of a
// document page. Pages without an h2 are left alone.
func (u *Updater) updateInsight(page models.Page) (*models.ChangeRecord, error) {
	rel := strings.TrimPrefix(page.Path, "/")
	data, err := u.Store.Read(rel)
	if err != nil {
		return nil, err
	}

	block := InsightStart + "\n" +
		`<aside class="insight-note"><p>` + InsightFor(u.Today) + `</p></aside>` + "\n" +
		InsightEnd
	content := string(data)

	if insightRe.MatchString(content) {
		next := insightRe.ReplaceAllLiteralString(content, block)
		return u.writeIfChanged(rel, "insight-note", "replaced", data, []byte(next))
	}

	h2 := h2CloseRe.FindStringIndex(content)
	if h2 == nil {
		return nil, nil
	}
	next := content[:h2[1]] + "\n" + block + content[h2[1]:]
	return u.writeIfChanged(rel, "insight-note", "inserted", data, []byte(next))
}

// updateRobotsHeader replaces the daily-update line in place, or inserts it
// before the crawl-delay line when a hand-edited robots file lacks it.
func (u *Updater) updateRobotsHeader() (*models.ChangeRecord, error) {
	data, err := u.Store.Read(discovery.RobotsFile)
	if err != nil {
		u.Logger.Warn("freshness: robots file missing, skipping header stamp")
		return nil, nil
	}
	line := discovery.DailyUpdatePrefix + " " + u.date()
	content := string(data)

	if dailyUpdateLineRe.MatchString(content) {
		next := dailyUpdateLineRe.ReplaceAllLiteralString(content, line)
		return u.writeIfChanged(discovery.RobotsFile, "robots-header", "replaced", data, []byte(next))
	}
	if delay := crawlDelayLineRe.FindStringIndex(content); delay != nil {
		next := content[:delay[0]] + line + "\n" + content[delay[0]:]
		return u.writeIfChanged(discovery.RobotsFile, "robots-header", "inserted", data, []byte(next))
	}
	next := content + line + "\n"
	return u.writeIfChanged(discovery.RobotsFile, "robots-header", "inserted", data, []byte(next))
}

// updateCacheVersion replaces the service-worker cache token with a
// date-derived version string.
func (u *Updater) updateCacheVersion() (*models.ChangeRecord, error) {
	data, err := u.Store.Read(ServiceWorkerFile)
	if err != nil {
		return nil, nil // site has no service worker
	}
	version := "site-v" + u.Today.Format("20060102")
	next := cacheVersionRe.ReplaceAllString(string(data), `${1}`+version+`${2}`)
	return u.writeIfChanged(ServiceWorkerFile, "cache-version", "replaced", data, []byte(next))
}
