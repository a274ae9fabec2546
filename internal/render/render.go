// Package render executes the site's HTML templates.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/launchwire/launchwire/internal/assets"
	"github.com/launchwire/launchwire/internal/cms"
	"github.com/launchwire/launchwire/internal/sections"
	"github.com/launchwire/launchwire/internal/seo"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Page is the data handed to every page template. Fields irrelevant to a
// given template stay zero.
type Page struct {
	Meta     seo.Meta
	SiteName string
	Nav      []cms.NavigationItem
	Layout   *cms.LayoutSettings
	Theme    *cms.Theme
	HasError bool

	Blocks []sections.Block

	Story          *cms.Story
	Startup        *cms.Startup
	City           *cms.City
	Category       *cms.Category
	CMSPage        *cms.Page
	Stories        []cms.Story
	Startups       []cms.Startup
	Cities         []cms.City
	Categories     []cms.Category
	RelatedItems   []cms.Startup
	RelatedStories []cms.Story
	Stats          *cms.PlatformStats
	Query          string

	Form FormState
}

// FormState carries inline validation feedback for form pages.
type FormState struct {
	Error   string
	Success string
	Values  map[string]string
}

// Renderer holds the parsed template set.
type Renderer struct {
	tmpl   *template.Template
	logger *zap.Logger
}

// New parses the embedded templates with the site funcmap.
func New(images assets.Resolver, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcs := template.FuncMap{
		"imgsrc": func(value, fallback string) string {
			return images.SafeImageSrc(value, fallback)
		},
		"reltime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return humanize.Time(t)
		},
		"rawhtml": func(s string) template.HTML {
			// CMS content is authored by trusted admins; it arrives as HTML.
			return template.HTML(s) //nolint:gosec
		},
		"jsonld": func(s string) template.HTML {
			if s == "" {
				return ""
			}
			return template.HTML(`<script type="application/ld+json">` + s + `</script>`) //nolint:gosec
		},
		"styleattr": func(s sections.Style) template.CSS {
			var css string
			if s.BackgroundColor != "" {
				css += "background-color:" + s.BackgroundColor + ";"
			}
			if s.TextColor != "" {
				css += "color:" + s.TextColor + ";"
			}
			if s.Padding != "" {
				css += "padding:" + s.Padding + "px;"
			}
			return template.CSS(css) //nolint:gosec
		},
	}
	tmpl, err := template.New("site").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, logger: logger}, nil
}

// Render executes the named page template.
func (r *Renderer) Render(w io.Writer, name string, data Page) error {
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
