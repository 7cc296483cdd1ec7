package freshness

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/locallmhub/sitekit/internal/discovery"
	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/parser"
)

const changelogHeader = "# Daily Updates\n"

// regionState is the post-run state of every rewritable region. It is
// derived from the site tree, not from the applied-change list, so a same-day
// re-run reproduces identical changelog and summary bytes.
type regionState struct {
	Date            string   `json:"date"`
	BannerTarget    string   `json:"banner_target,omitempty"`
	InsightPages    []string `json:"insight_pages,omitempty"`
	StructuredPages []string `json:"structured_pages,omitempty"`
	RobotsStamped   bool     `json:"robots_stamped"`
	CacheStamped    bool     `json:"cache_stamped"`
}

func (u *Updater) collectState(inv *models.Inventory) regionState {
	st := regionState{Date: u.date()}

	for _, page := range inv.Pages {
		rel := strings.TrimPrefix(page.Path, "/")
		data, err := u.Store.Read(rel)
		if err != nil {
			continue
		}
		if len(parser.Blocks(data)) > 0 {
			st.StructuredPages = append(st.StructuredPages, page.Path)
		}
		switch page.Kind {
		case models.KindHomepage:
			if bannerRe.Match(data) {
				st.BannerTarget = page.Path
			}
		case models.KindDocument:
			if insightRe.Match(data) {
				st.InsightPages = append(st.InsightPages, page.Path)
			}
		}
	}

	if data, err := u.Store.Read(discovery.RobotsFile); err == nil {
		st.RobotsStamped = dailyUpdateLineRe.Match(data)
	}
	if data, err := u.Store.Read(ServiceWorkerFile); err == nil {
		st.CacheStamped = cacheVersionRe.Match(data)
	}
	return st
}

func (st regionState) section() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", st.Date)
	if st.BannerTarget != "" {
		fmt.Fprintf(&b, "- daily-banner: %s\n", st.BannerTarget)
	}
	for _, p := range st.InsightPages {
		fmt.Fprintf(&b, "- insight-note: %s\n", p)
	}
	if len(st.StructuredPages) > 0 {
		fmt.Fprintf(&b, "- structured-dates: %d pages\n", len(st.StructuredPages))
	}
	if st.RobotsStamped {
		fmt.Fprintf(&b, "- robots-header: /%s\n", discovery.RobotsFile)
	}
	if st.CacheStamped {
		fmt.Fprintf(&b, "- cache-version: /%s\n", ServiceWorkerFile)
	}
	return b.String()
}

// writeChangelog upserts today's section in the changelog file: an existing
// section for the date is rewritten, otherwise the new section goes on top,
// directly under the header.
func (u *Updater) writeChangelog(inv *models.Inventory) error {
	st := u.collectState(inv)
	section := st.section()
	rel := u.Config.Reports.ChangelogPath

	existing, err := u.Store.Read(rel)
	if err != nil {
		content := changelogHeader + "\n" + section
		return u.Store.Write(rel, []byte(content))
	}

	content := string(existing)
	marker := "## " + st.Date + "\n"
	if i := strings.Index(content, marker); i >= 0 {
		end := len(content)
		if j := strings.Index(content[i+len(marker):], "\n## "); j >= 0 {
			end = i + len(marker) + j + 1
		}
		content = content[:i] + section + content[end:]
	} else if i := strings.Index(content, "\n## "); i >= 0 {
		content = content[:i+1] + section + "\n" + content[i+1:]
	} else {
		content = strings.TrimRight(content, "\n") + "\n\n" + section
	}
	return u.Store.Write(rel, []byte(content))
}

// writeSummary writes the dated daily summary and the latest-summary alias
// into the analytics directory. The summary is derived from region state so
// it is stable across same-day re-runs.
func (u *Updater) writeSummary(inv *models.Inventory) error {
	st := u.collectState(inv)
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("freshness: marshal summary: %w", err)
	}
	data = append(data, '\n')

	dir := u.Config.Reports.AnalyticsDir
	dated := path.Join(dir, "daily-summary-"+st.Date+".json")
	if err := u.Store.Write(dated, data); err != nil {
		return err
	}
	return u.Store.Write(path.Join(dir, "latest-daily-summary.json"), data)
}
