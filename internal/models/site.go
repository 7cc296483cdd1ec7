// Package models defines the domain types for the maintenance pipeline.
package models

import "time"

// PageKind classifies an HTML page by its path.
type PageKind string

const (
	KindHomepage   PageKind = "homepage"
	KindDocument   PageKind = "document"
	KindComparison PageKind = "comparison"
	KindOther      PageKind = "other"
)

// Page represents a single HTML file under the site root.
type Page struct {
	Path          string    `json:"path"` // leading-slash form, e.g. /documents/guide.html
	Kind          PageKind  `json:"kind"`
	LastModified  time.Time `json:"last_modified"`
	DatePublished string    `json:"date_published,omitempty"` // declared in JSON-LD, YYYY-MM-DD
	DateModified  string    `json:"date_modified,omitempty"`  // declared in JSON-LD, wins over mtime
}

// Inventory is the complete set of pages discovered in one run,
// sorted by path so re-runs produce byte-identical artifacts.
type Inventory struct {
	Pages []Page `json:"pages"`
}

// Homepage returns the homepage page, or nil when the site has none.
func (inv *Inventory) Homepage() *Page {
	for i := range inv.Pages {
		if inv.Pages[i].Kind == KindHomepage {
			return &inv.Pages[i]
		}
	}
	return nil
}

// OfKind returns all pages of the given kind, in inventory order.
func (inv *Inventory) OfKind(kind PageKind) []Page {
	var out []Page
	for _, p := range inv.Pages {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// ByPath returns the page at the given leading-slash path, or nil.
func (inv *Inventory) ByPath(path string) *Page {
	for i := range inv.Pages {
		if inv.Pages[i].Path == path {
			return &inv.Pages[i]
		}
	}
	return nil
}

// SitemapEntry is the serializable form of one page in a sitemap.
type SitemapEntry struct {
	Loc        string  `json:"loc"`
	LastMod    string  `json:"lastmod"` // YYYY-MM-DD
	ChangeFreq string  `json:"changefreq"`
	Priority   float64 `json:"priority"`
}

// ChangeFreqs enumerates the sitemap-standard change-frequency tags.
var ChangeFreqs = []string{"always", "hourly", "daily", "weekly", "monthly", "yearly", "never"}
