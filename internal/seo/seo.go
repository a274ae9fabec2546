// Package seo computes page metadata and structured data.
//
// CMS editors can override every field (meta_title, meta_description,
// canonical_override, noindex, og_image); overrides always win over
// computed defaults. Image URLs are forced absolute because Open Graph and
// Twitter card consumers reject relative paths.
package seo

import (
	"encoding/json"
	"strings"

	"github.com/launchwire/launchwire/internal/assets"
	"github.com/launchwire/launchwire/internal/cms"
)

// Meta is everything the layout head needs for one page.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Noindex     bool
	OGImage     string
	OGType      string
	JSONLD      string
}

// Builder computes Meta values from site configuration and CMS defaults.
type Builder struct {
	SiteName           string
	SiteBase           string
	TitleSuffix        string
	DefaultDescription string
	DefaultOGImage     string
	Images             assets.Resolver
}

// ApplyDefaults folds sitewide CMS SEO settings into the builder. A nil
// settings object leaves the configured defaults in place.
func (b Builder) ApplyDefaults(s *cms.SEOSettings) Builder {
	if s == nil {
		return b
	}
	if s.TitleSuffix != "" {
		b.TitleSuffix = s.TitleSuffix
	}
	if s.DefaultDescription != "" {
		b.DefaultDescription = s.DefaultDescription
	}
	if s.DefaultOGImage != "" {
		b.DefaultOGImage = s.DefaultOGImage
	}
	return b
}

// ForPath builds metadata for a generic page.
func (b Builder) ForPath(title, description, path string) Meta {
	return b.build(cms.SEOFields{}, title, description, path, "", "website")
}

// ForHome builds homepage metadata including WebSite structured data.
func (b Builder) ForHome() Meta {
	m := b.build(cms.SEOFields{}, b.SiteName, b.DefaultDescription, "/", "", "website")
	m.Title = b.SiteName
	m.JSONLD = marshalJSONLD(map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     b.SiteName,
		"url":      b.SiteBase,
	})
	return m
}

// ForStory builds story detail metadata with NewsArticle structured data.
func (b Builder) ForStory(story cms.Story) Meta {
	m := b.build(story.SEOFields, story.Title, story.Excerpt, "/stories/"+story.Slug, story.Image, "article")
	article := map[string]any{
		"@context": "https://schema.org",
		"@type":    "NewsArticle",
		"headline": story.Title,
		"url":      m.Canonical,
	}
	if !story.PublishedAt.IsZero() {
		article["datePublished"] = story.PublishedAt
	}
	if story.Author != "" {
		article["author"] = map[string]any{"@type": "Person", "name": story.Author}
	}
	if m.OGImage != "" {
		article["image"] = []string{m.OGImage}
	}
	m.JSONLD = marshalJSONLD(article)
	return m
}

// ForStartup builds startup detail metadata with Organization data.
func (b Builder) ForStartup(startup cms.Startup) Meta {
	desc := startup.Tagline
	if desc == "" {
		desc = startup.Description
	}
	m := b.build(startup.SEOFields, startup.Name, desc, "/startups/"+startup.Slug, startup.Logo, "website")
	org := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     startup.Name,
		"url":      m.Canonical,
	}
	if startup.Website != "" {
		org["sameAs"] = []string{startup.Website}
	}
	if m.OGImage != "" {
		org["logo"] = m.OGImage
	}
	m.JSONLD = marshalJSONLD(org)
	return m
}

// ForCity builds city detail metadata.
func (b Builder) ForCity(city cms.City) Meta {
	return b.build(city.SEOFields, city.Name, city.Description, "/cities/"+city.Slug, city.Image, "website")
}

// ForCategory builds category detail metadata.
func (b Builder) ForCategory(category cms.Category) Meta {
	return b.build(category.SEOFields, category.Name, category.Description, "/categories/"+category.Slug, category.Image, "website")
}

// ForPage builds metadata for an admin-authored CMS page.
func (b Builder) ForPage(page cms.Page) Meta {
	return b.build(page.SEOFields, page.Title, "", "/pages/"+page.Slug, "", "website")
}

func (b Builder) build(overrides cms.SEOFields, title, description, path, image, ogType string) Meta {
	m := Meta{OGType: ogType}

	m.Title = overrides.MetaTitle
	if m.Title == "" {
		m.Title = title
	}
	if m.Title == "" {
		m.Title = b.SiteName
	}
	if b.TitleSuffix != "" && m.Title != b.SiteName && !strings.HasSuffix(m.Title, b.TitleSuffix) {
		m.Title += b.TitleSuffix
	}

	m.Description = overrides.MetaDescription
	if m.Description == "" {
		m.Description = description
	}
	if m.Description == "" {
		m.Description = b.DefaultDescription
	}

	m.Canonical = overrides.CanonicalOverride
	if m.Canonical == "" {
		m.Canonical = b.absoluteURL(path)
	}

	m.Noindex = overrides.Noindex

	src := overrides.OGImage
	if src == "" {
		src = image
	}
	if src == "" {
		src = b.DefaultOGImage
	}
	if src != "" {
		m.OGImage = assets.Absolute(b.SiteBase, b.Images.SafeImageSrc(src, ""))
	}
	return m
}

func (b Builder) absoluteURL(path string) string {
	base := strings.TrimRight(b.SiteBase, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func marshalJSONLD(payload map[string]any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}
