// Package sitemap generates sitemap.xml and robots.txt.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/launchwire/launchwire/internal/clock"
	"github.com/launchwire/launchwire/internal/cms"
)

// StaticRoutes are the fixed pages every sitemap carries.
var StaticRoutes = []string{
	"/",
	"/stories",
	"/startups",
	"/cities",
	"/categories",
	"/submit",
}

// Entry is one sitemap URL.
type Entry struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq string
}

// Content is the slug material the generator consumes.
type Content struct {
	Stories    []cms.Story
	Startups   []cms.Startup
	Cities     []cms.City
	Categories []cms.Category
	Pages      []cms.Page
}

// Generator assembles sitemap entries rooted at the site base URL.
type Generator struct {
	SiteBase string
	Clock    clock.Clock
}

// Entries returns the full entry list: static routes first, then one entry
// per story/startup/category/city/page slug. LastMod defaults to now when
// the entity carries no updated_at.
func (g Generator) Entries(content Content) []Entry {
	now := g.Clock.Now()
	entries := make([]Entry, 0, len(StaticRoutes)+len(content.Stories)+len(content.Startups)+
		len(content.Cities)+len(content.Categories)+len(content.Pages))

	for _, route := range StaticRoutes {
		entries = append(entries, Entry{Loc: g.abs(route), LastMod: now, ChangeFreq: "daily"})
	}
	for _, s := range content.Stories {
		entries = append(entries, g.entry("/stories/"+s.Slug, s.UpdatedAt, now, "weekly"))
	}
	for _, s := range content.Startups {
		entries = append(entries, g.entry("/startups/"+s.Slug, s.UpdatedAt, now, "weekly"))
	}
	for _, c := range content.Categories {
		entries = append(entries, g.entry("/categories/"+c.Slug, c.UpdatedAt, now, "weekly"))
	}
	for _, c := range content.Cities {
		entries = append(entries, g.entry("/cities/"+c.Slug, c.UpdatedAt, now, "weekly"))
	}
	for _, p := range content.Pages {
		entries = append(entries, g.entry("/pages/"+p.Slug, p.UpdatedAt, now, "monthly"))
	}
	return entries
}

func (g Generator) entry(path string, updated, now time.Time, freq string) Entry {
	lastMod := updated
	if lastMod.IsZero() {
		lastMod = now
	}
	return Entry{Loc: g.abs(path), LastMod: lastMod, ChangeFreq: freq}
}

func (g Generator) abs(path string) string {
	return strings.TrimRight(g.SiteBase, "/") + path
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// XML renders the entries as a sitemap document.
func (g Generator) XML(entries []Entry) ([]byte, error) {
	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]xmlURL, len(entries)),
	}
	for i, e := range entries {
		set.URLs[i] = xmlURL{
			Loc:        e.Loc,
			LastMod:    e.LastMod.UTC().Format("2006-01-02"),
			ChangeFreq: e.ChangeFreq,
		}
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Robots returns the robots.txt body. A CMS-supplied override wins; the
// default allows everything and points at the sitemap.
func (g Generator) Robots(settings *cms.SEOSettings) string {
	if settings != nil && strings.TrimSpace(settings.RobotsTxt) != "" {
		return settings.RobotsTxt
	}
	return fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s\n", g.abs("/sitemap.xml"))
}
