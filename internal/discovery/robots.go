package discovery

import (
	"fmt"
	"strings"
)

// DailyUpdatePrefix anchors the freshness rewrite of the robots header.
// The Freshness Updater replaces the line carrying this prefix in place.
const DailyUpdatePrefix = "# daily-update:"

// GeneratorIdentity is the machine-readable header naming the generator.
const GeneratorIdentity = "# robots.txt - generated by sitekit"

// RenderRobots produces the robots directive file. The layout is fixed:
// header comments, one allow group per configured agent in configured order,
// the wildcard group with the disallow then allow lists, the crawl delay,
// and one Sitemap line per generated sitemap.
func (g *Generator) RenderRobots() []byte {
	base := g.Config.Site.ResolvedBaseURL()
	var b strings.Builder

	b.WriteString(GeneratorIdentity + "\n")
	fmt.Fprintf(&b, "%s %s\n\n", DailyUpdatePrefix, g.Today.Format("2006-01-02"))

	for _, agent := range g.Config.Crawl.Agents {
		fmt.Fprintf(&b, "User-agent: %s\nAllow: /\n\n", agent)
	}

	b.WriteString("User-agent: *\n")
	for _, p := range g.Config.Crawl.Disallow {
		fmt.Fprintf(&b, "Disallow: %s\n", p)
	}
	for _, p := range g.Config.Crawl.Allow {
		fmt.Fprintf(&b, "Allow: %s\n", p)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Crawl-delay: %d\n\n", g.Config.Crawl.Delay)

	for _, name := range []string{SitemapFile, SitemapIndexFile, SitemapDocumentsFile, SitemapComparisonsFile} {
		fmt.Fprintf(&b, "Sitemap: %s/%s\n", base, name)
	}

	return []byte(b.String())
}
