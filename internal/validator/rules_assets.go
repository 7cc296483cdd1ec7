package validator

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/locallmhub/sitekit/internal/models"
)

// Page-weight heuristics, in bytes.
const (
	maxPageBytes = 100 * 1024
	maxCSSBytes  = 50 * 1024
	maxJSBytes   = 100 * 1024
)

func fileSizePage(ctx *pageContext) models.Finding {
	const rule = "file-size-page"
	if len(ctx.data) >= maxPageBytes {
		return warn(rule, ctx.page.Path,
			fmt.Sprintf("page source is %d KiB, want under 100 KiB", len(ctx.data)/1024))
	}
	return pass(rule, ctx.page.Path, "page source is under 100 KiB")
}

// oversizedRefs sizes every locally referenced asset matched by selector/attr
// and returns those at or over limit. Missing files are the link-integrity
// rule's concern and are skipped here.
func (ctx *pageContext) oversizedRefs(selector, attr string, limit int64) []string {
	var over []string
	ctx.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		ref, _ := sel.Attr(attr)
		ref = strings.TrimSpace(ref)
		if ref == "" || isExternal(ref) {
			return
		}
		rel := ctx.resolveRef(ref)
		if rel == "" {
			return
		}
		info, err := ctx.store.Stat(rel)
		if err != nil || info.IsDir() {
			return
		}
		if info.Size() >= limit {
			over = append(over, fmt.Sprintf("%s (%d KiB)", ref, info.Size()/1024))
		}
	})
	return over
}

func cssSize(ctx *pageContext) models.Finding {
	const rule = "css-size"
	over := ctx.oversizedRefs(`link[rel="stylesheet"]`, "href", maxCSSBytes)
	if len(over) > 0 {
		return warn(rule, ctx.page.Path, "stylesheets over 50 KiB: "+strings.Join(over, ", "))
	}
	return pass(rule, ctx.page.Path, "all referenced stylesheets are under 50 KiB")
}

func jsSize(ctx *pageContext) models.Finding {
	const rule = "js-size"
	over := ctx.oversizedRefs("script[src]", "src", maxJSBytes)
	if len(over) > 0 {
		return warn(rule, ctx.page.Path, "scripts over 100 KiB: "+strings.Join(over, ", "))
	}
	return pass(rule, ctx.page.Path, "all referenced scripts are under 100 KiB")
}
