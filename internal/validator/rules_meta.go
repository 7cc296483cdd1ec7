package validator

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/locallmhub/sitekit/internal/models"
)

func pageTitle(ctx *pageContext) (string, int) {
	titles := ctx.doc.Find("head title")
	return strings.TrimSpace(titles.First().Text()), titles.Length()
}

func titlePresent(ctx *pageContext) models.Finding {
	const rule = "title-present"
	title, count := pageTitle(ctx)
	switch {
	case count == 0:
		return fail(rule, ctx.page.Path, "page has no title element")
	case count > 1:
		return fail(rule, ctx.page.Path, "page has "+strconv.Itoa(count)+" title elements, want exactly one")
	case title == "":
		return fail(rule, ctx.page.Path, "title element is empty")
	}
	return pass(rule, ctx.page.Path, "exactly one non-empty title")
}

func titleLength(ctx *pageContext) models.Finding {
	const rule = "title-length"
	title, _ := pageTitle(ctx)
	n := utf8.RuneCountInString(title)
	if n < 30 || n > 60 {
		return warn(rule, ctx.page.Path, fmt.Sprintf("title is %d characters, want 30-60", n))
	}
	return pass(rule, ctx.page.Path, fmt.Sprintf("title length %d is within 30-60", n))
}

func metaDescriptionPresent(ctx *pageContext) models.Finding {
	const rule = "meta-description-present"
	desc, ok := ctx.metaContent("description")
	if !ok || desc == "" {
		return fail(rule, ctx.page.Path, "no meta description with non-empty content")
	}
	return pass(rule, ctx.page.Path, "meta description present")
}

func metaDescriptionLength(ctx *pageContext) models.Finding {
	const rule = "meta-description-length"
	desc, _ := ctx.metaContent("description")
	n := utf8.RuneCountInString(desc)
	if n < 120 || n > 160 {
		return warn(rule, ctx.page.Path, fmt.Sprintf("description is %d characters, want 120-160", n))
	}
	return pass(rule, ctx.page.Path, fmt.Sprintf("description length %d is within 120-160", n))
}

func viewportPresent(ctx *pageContext) models.Finding {
	const rule = "viewport-present"
	if _, ok := ctx.metaContent("viewport"); !ok {
		return fail(rule, ctx.page.Path, "no viewport meta element")
	}
	return pass(rule, ctx.page.Path, "viewport meta present")
}

func canonicalPresent(ctx *pageContext) models.Finding {
	const rule = "canonical-present"
	found := false
	ctx.doc.Find("head link").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if rel, ok := sel.Attr("rel"); ok && strings.EqualFold(rel, "canonical") {
			found = true
			return false
		}
		return true
	})
	if !found {
		return warn(rule, ctx.page.Path, "no canonical link element")
	}
	return pass(rule, ctx.page.Path, "canonical link present")
}

func singleH1(ctx *pageContext) models.Finding {
	const rule = "single-h1"
	count := ctx.doc.Find("h1").Length()
	switch {
	case count == 0:
		return fail(rule, ctx.page.Path, "page has no top-level heading")
	case count > 1:
		return warn(rule, ctx.page.Path, "page has "+strconv.Itoa(count)+" top-level headings")
	}
	return pass(rule, ctx.page.Path, "exactly one top-level heading")
}

func headingHierarchy(ctx *pageContext) models.Finding {
	const rule = "heading-hierarchy"
	prev := 0
	skip := ""
	ctx.doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		level := int(sel.Nodes[0].Data[1] - '0')
		if prev != 0 && level > prev+1 {
			skip = fmt.Sprintf("heading skips from h%d to h%d", prev, level)
			return false
		}
		prev = level
		return true
	})
	if skip != "" {
		return fail(rule, ctx.page.Path, skip)
	}
	return pass(rule, ctx.page.Path, "headings never skip a level going down")
}

func openGraphCore(ctx *pageContext) models.Finding {
	const rule = "open-graph-core"
	core := map[string]bool{"og:title": false, "og:description": false, "og:type": false, "og:url": false}
	ctx.doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		prop, _ := sel.Attr("property")
		prop = strings.ToLower(prop)
		if _, ok := core[prop]; ok {
			if c, _ := sel.Attr("content"); strings.TrimSpace(c) != "" {
				core[prop] = true
			}
		}
	})
	have := 0
	for _, ok := range core {
		if ok {
			have++
		}
	}
	if have < 3 {
		return warn(rule, ctx.page.Path, fmt.Sprintf("only %d of 4 core Open Graph properties declared", have))
	}
	return pass(rule, ctx.page.Path, fmt.Sprintf("%d of 4 core Open Graph properties declared", have))
}
