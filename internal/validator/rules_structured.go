package validator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/parser"
)

// jsonldObjects decodes every JSON-LD block into its objects. Blocks that do
// not parse are reported in malformed instead.
func jsonldObjects(data []byte) (objs []map[string]any, malformed []string) {
	for i, b := range parser.Blocks(data) {
		trimmed := strings.TrimSpace(b.Payload)
		var any1 any
		if err := json.Unmarshal([]byte(trimmed), &any1); err != nil {
			malformed = append(malformed, fmt.Sprintf("block %d: %v", i+1, err))
			continue
		}
		switch v := any1.(type) {
		case map[string]any:
			objs = append(objs, v)
		case []any:
			for _, item := range v {
				if obj, ok := item.(map[string]any); ok {
					objs = append(objs, obj)
				}
			}
		default:
			malformed = append(malformed, fmt.Sprintf("block %d: not an object or array", i+1))
		}
	}
	return objs, malformed
}

func structuredDataPresent(ctx *pageContext) models.Finding {
	const rule = "structured-data-present"
	if len(parser.Blocks(ctx.data)) == 0 {
		return fail(rule, ctx.page.Path, "no JSON-LD script block")
	}
	return pass(rule, ctx.page.Path, "JSON-LD present")
}

func structuredDataWellFormed(ctx *pageContext) models.Finding {
	const rule = "structured-data-well-formed"
	if len(parser.Blocks(ctx.data)) == 0 {
		return fail(rule, ctx.page.Path, "no JSON-LD block to parse")
	}
	objs, malformed := jsonldObjects(ctx.data)
	if len(malformed) > 0 {
		return fail(rule, ctx.page.Path, "JSON-LD does not parse: "+malformed[0])
	}
	for _, obj := range objs {
		if _, ok := obj["@context"]; !ok {
			return fail(rule, ctx.page.Path, "JSON-LD record lacks a context property")
		}
		if _, ok := obj["@type"]; !ok {
			return fail(rule, ctx.page.Path, "JSON-LD record lacks a type property")
		}
	}
	return pass(rule, ctx.page.Path, "all JSON-LD blocks parse with context and type")
}

// Field-completeness tables. Missing required fields fail; missing
// recommended fields warn.
var requiredFields = map[string][]string{
	"WebPage":        {"name", "description", "url"},
	"Article":        {"headline", "author", "datePublished"},
	"Organization":   {"name", "url"},
	"WebSite":        {"name", "url"},
	"BreadcrumbList": {"itemListElement"},
}

var recommendedFields = map[string][]string{
	"WebPage":      {"datePublished"},
	"Article":      {"dateModified", "image"},
	"Organization": {"logo"},
	"WebSite":      {"description"},
}

func structuredDataRequiredFields(ctx *pageContext) models.Finding {
	const rule = "structured-data-required-fields"
	objs, _ := jsonldObjects(ctx.data)

	var missingRequired, missingRecommended []string
	for _, obj := range objs {
		typ, _ := obj["@type"].(string)
		for _, f := range requiredFields[typ] {
			if _, ok := obj[f]; !ok {
				missingRequired = append(missingRequired, typ+"."+f)
			}
		}
		for _, f := range recommendedFields[typ] {
			if _, ok := obj[f]; !ok {
				missingRecommended = append(missingRecommended, typ+"."+f)
			}
		}
		if typ == "BreadcrumbList" {
			missingRequired = append(missingRequired, breadcrumbItemGaps(obj)...)
		}
	}

	switch {
	case len(missingRequired) > 0:
		return fail(rule, ctx.page.Path, "missing required fields: "+strings.Join(missingRequired, ", "))
	case len(missingRecommended) > 0:
		return warn(rule, ctx.page.Path, "missing recommended fields: "+strings.Join(missingRecommended, ", "))
	}
	return pass(rule, ctx.page.Path, "all typed records carry their required fields")
}

// breadcrumbItemGaps checks each itemListElement entry for position, name,
// and item.
func breadcrumbItemGaps(obj map[string]any) []string {
	items, ok := obj["itemListElement"].([]any)
	if !ok {
		return nil // absence already reported via the required table
	}
	var gaps []string
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			gaps = append(gaps, fmt.Sprintf("BreadcrumbList.itemListElement[%d]", i))
			continue
		}
		for _, f := range []string{"position", "name", "item"} {
			if _, ok := item[f]; !ok {
				gaps = append(gaps, fmt.Sprintf("BreadcrumbList.itemListElement[%d].%s", i, f))
			}
		}
	}
	return gaps
}

// strayMarkup flags leftover artifacts of partial edits: escaped tag
// fragments in text and the same script source included twice.
var escapedTagRe = regexp.MustCompile(`(?i)(ipt&gt;|&lt;/?script)`)

func strayMarkup(ctx *pageContext) models.Finding {
	const rule = "stray-markup"
	if m := escapedTagRe.Find(ctx.data); m != nil {
		return warn(rule, ctx.page.Path, fmt.Sprintf("escaped tag fragment %q in page text", m))
	}
	seen := map[string]bool{}
	dup := ""
	ctx.doc.Find("script[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		if seen[src] {
			dup = src
			return false
		}
		seen[src] = true
		return true
	})
	if dup != "" {
		return warn(rule, ctx.page.Path, fmt.Sprintf("script %q included more than once", dup))
	}
	return pass(rule, ctx.page.Path, "no stray markup artifacts")
}
