package validator

import (
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/locallmhub/sitekit/internal/models"
)

// isExternal reports whether an href leaves the site (scheme, protocol-
// relative, or non-navigational).
func isExternal(href string) bool {
	lower := strings.ToLower(href)
	return strings.Contains(href, "://") ||
		strings.HasPrefix(href, "//") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "javascript:")
}

// resolveRef maps an internal href to a path relative to the site root,
// dropping any query and fragment. An empty result means the href points at
// the current page.
func (ctx *pageContext) resolveRef(href string) string {
	p := href
	if i := strings.IndexAny(p, "#?"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "/") {
		return strings.TrimPrefix(path.Clean(p), "/")
	}
	pageDir := path.Dir(strings.TrimPrefix(ctx.page.Path, "/"))
	return path.Clean(path.Join(pageDir, p))
}

// targetExists checks that a root-relative path names an existing file, or a
// directory carrying an index page.
func (ctx *pageContext) targetExists(rel string) bool {
	if rel == "" || rel == "." {
		rel = "index.html"
	}
	info, err := ctx.store.Stat(rel)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	_, err = ctx.store.Stat(path.Join(rel, "index.html"))
	return err == nil
}

func internalLinkIntegrity(ctx *pageContext) models.Finding {
	const rule = "internal-link-integrity"
	var broken []string

	ctx.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || isExternal(href) {
			return
		}
		if strings.HasPrefix(href, "#") {
			if !ctx.anchorExists(href[1:]) {
				broken = append(broken, href)
			}
			return
		}
		if rel := ctx.resolveRef(href); rel != "" && !ctx.targetExists(rel) {
			broken = append(broken, href)
		}
	})

	if len(broken) > 0 {
		return fail(rule, ctx.page.Path,
			fmt.Sprintf("%d broken internal links: %s", len(broken), strings.Join(broken, ", ")))
	}
	return pass(rule, ctx.page.Path, "all internal links resolve")
}

// anchorExists reports whether any element in the page carries the id.
func (ctx *pageContext) anchorExists(id string) bool {
	found := false
	ctx.doc.Find("[id]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if v, _ := sel.Attr("id"); v == id {
			found = true
			return false
		}
		return true
	})
	return found
}

func imageAltText(ctx *pageContext) models.Finding {
	const rule = "image-alt-text"
	missing := 0
	ctx.doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		alt, ok := sel.Attr("alt")
		if !ok || strings.TrimSpace(alt) == "" {
			missing++
		}
	})
	if missing > 0 {
		return fail(rule, ctx.page.Path, fmt.Sprintf("%d images without alt text", missing))
	}
	return pass(rule, ctx.page.Path, "every image declares alt text")
}
