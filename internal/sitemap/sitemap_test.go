package sitemap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/launchwire/launchwire/internal/cms"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func testGenerator() Generator {
	return Generator{
		SiteBase: "https://launchwire.example",
		Clock:    fixedClock{now: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)},
	}
}

func TestEntriesIncludeStaticAndSlugRoutes(t *testing.T) {
	t.Parallel()

	updated := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	content := Content{
		Stories:    []cms.Story{{Slug: "acme-raises", UpdatedAt: updated}},
		Startups:   []cms.Startup{{Slug: "acme"}},
		Cities:     []cms.City{{Slug: "berlin"}},
		Categories: []cms.Category{{Slug: "fintech"}},
		Pages:      []cms.Page{{Slug: "about"}},
	}

	entries := testGenerator().Entries(content)
	require.Len(t, entries, len(StaticRoutes)+5)

	locs := make(map[string]Entry, len(entries))
	for _, e := range entries {
		locs[e.Loc] = e
	}
	require.Contains(t, locs, "https://launchwire.example/")
	require.Contains(t, locs, "https://launchwire.example/stories/acme-raises")
	require.Contains(t, locs, "https://launchwire.example/startups/acme")
	require.Contains(t, locs, "https://launchwire.example/cities/berlin")
	require.Contains(t, locs, "https://launchwire.example/categories/fintech")
	require.Contains(t, locs, "https://launchwire.example/pages/about")

	// updated_at wins when present, clock-now fills the gap otherwise.
	require.Equal(t, updated, locs["https://launchwire.example/stories/acme-raises"].LastMod)
	require.Equal(t, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		locs["https://launchwire.example/startups/acme"].LastMod)
}

func TestXMLOutput(t *testing.T) {
	t.Parallel()

	g := testGenerator()
	body, err := g.XML(g.Entries(Content{Stories: []cms.Story{{Slug: "a"}}}))
	require.NoError(t, err)
	require.Contains(t, string(body), `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	require.Contains(t, string(body), "<loc>https://launchwire.example/stories/a</loc>")
	require.Contains(t, string(body), "<lastmod>2026-08-28</lastmod>")
}

func TestRobotsDefaultAndOverride(t *testing.T) {
	t.Parallel()

	g := testGenerator()
	def := g.Robots(nil)
	require.Contains(t, def, "User-agent: *")
	require.Contains(t, def, "Sitemap: https://launchwire.example/sitemap.xml")

	custom := g.Robots(&cms.SEOSettings{RobotsTxt: "User-agent: *\nDisallow: /drafts\n"})
	require.Contains(t, custom, "Disallow: /drafts")

	blank := g.Robots(&cms.SEOSettings{RobotsTxt: "   "})
	require.Contains(t, blank, "Allow: /")
}
