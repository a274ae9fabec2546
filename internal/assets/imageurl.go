// Package assets resolves heterogeneous CMS image paths into usable URLs.
package assets

import (
	"net/url"
	"strings"
)

// DefaultPlaceholder is served when no usable image source exists.
const DefaultPlaceholder = "/placeholder.svg"

// Resolver normalizes image sources against the backend origin. It sits in
// the hot render path of every card, so every method is total: bad input
// degrades to the fallback, never to an error.
type Resolver struct {
	// BackendOrigin is prefixed onto plain relative paths, e.g.
	// "http://localhost:8000".
	BackendOrigin string
	// DevOrigin is a local development origin whose absolute URLs are
	// rewritten to relative paths so the dev proxy can serve them.
	DevOrigin string
}

// SafeImageSrc returns a URL the rendering layer can consume. fallback may
// be empty, in which case DefaultPlaceholder is used.
func (r Resolver) SafeImageSrc(value, fallback string) string {
	if fallback == "" {
		fallback = DefaultPlaceholder
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}

	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		if r.DevOrigin != "" && strings.HasPrefix(value, r.DevOrigin) {
			path := strings.TrimPrefix(value, r.DevOrigin)
			if path == "" {
				return fallback
			}
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			return path
		}
		return value
	}
	if strings.HasPrefix(value, "//") || strings.HasPrefix(value, "data:") {
		return value
	}

	if strings.HasPrefix(value, "media/") || strings.HasPrefix(value, "/media/") {
		return "/" + strings.TrimLeft(value, "/")
	}

	origin := strings.TrimRight(r.BackendOrigin, "/")
	if origin == "" {
		return "/" + strings.TrimLeft(value, "/")
	}
	return origin + "/" + strings.TrimLeft(value, "/")
}

// Absolute forces a resolved source to an absolute URL rooted at siteBase,
// for Open Graph and Twitter cards which reject relative paths.
func Absolute(siteBase, src string) string {
	if src == "" {
		return ""
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "data:") {
		return src
	}
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	base, err := url.Parse(siteBase)
	if err != nil || base.Host == "" {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}
