// Package cms defines the canonical content model for the site.
//
// Everything here is a read-mostly projection of CMS-owned entities. The
// upstream API is loosely typed (booleans arrive as strings, relations
// arrive as names or objects), so all coercion happens in this package at
// the ingestion boundary. Downstream code works against one concrete shape.
package cms

import (
	"encoding/json"
	"fmt"
	"time"
)

// Relation is a reference to a category or city. The API sends either a
// bare string name or an embedded object; both fold into this shape.
type Relation struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// UnmarshalJSON accepts a string, an object, or null.
func (r *Relation) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Relation{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("relation string: %w", err)
		}
		*r = Relation{Name: name, Slug: Slugify(name)}
		return nil
	}
	var obj struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("relation object: %w", err)
	}
	if obj.Slug == "" {
		obj.Slug = Slugify(obj.Name)
	}
	*r = Relation{Name: obj.Name, Slug: obj.Slug}
	return nil
}

// IsZero reports whether the relation is empty.
func (r Relation) IsZero() bool {
	return r.Name == "" && r.Slug == ""
}

// SEOFields holds per-entity SEO overrides supplied by CMS editors.
type SEOFields struct {
	MetaTitle         string `json:"meta_title"`
	MetaDescription   string `json:"meta_description"`
	CanonicalOverride string `json:"canonical_override"`
	Noindex           bool   `json:"noindex"`
	OGImage           string `json:"og_image"`
}

// Story is a published news story.
type Story struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content"`
	Image       string    `json:"image"`
	Author      string    `json:"author"`
	Category    Relation  `json:"category"`
	City        Relation  `json:"city"`
	Featured    Flag      `json:"is_featured"`
	Trending    Flag      `json:"is_trending"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	SEOFields
}

// Startup is a directory entry for a company.
type Startup struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Tagline     string    `json:"tagline"`
	Description string    `json:"description"`
	Logo        string    `json:"logo"`
	Website     string    `json:"website"`
	Category    Relation  `json:"category"`
	City        Relation  `json:"city"`
	Featured    Flag      `json:"is_featured"`
	FoundedYear int       `json:"founded_year"`
	UpdatedAt   time.Time `json:"updated_at"`
	SEOFields
}

// City is a startup hub.
type City struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Country      string    `json:"country"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	StartupCount int       `json:"startup_count"`
	Rising       Flag      `json:"is_rising"`
	UpdatedAt    time.Time `json:"updated_at"`
	SEOFields
}

// Category groups stories and startups by topic.
type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	UpdatedAt   time.Time `json:"updated_at"`
	SEOFields
}

// Page is an admin-authored CMS page rendered through the section pipeline.
type Page struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Key       string    `json:"key"`
	UpdatedAt time.Time `json:"updated_at"`
	SEOFields
}

// NavigationItem is one entry in a hierarchical navigation menu.
type NavigationItem struct {
	ID       int              `json:"id"`
	Label    string           `json:"label"`
	URL      string           `json:"url"`
	Order    int              `json:"order"`
	Active   Flag             `json:"is_active"`
	Children []NavigationItem `json:"children"`
}

// SEOSettings are sitewide SEO defaults maintained in the CMS.
type SEOSettings struct {
	DefaultTitle       string `json:"default_title"`
	TitleSuffix        string `json:"title_suffix"`
	DefaultDescription string `json:"default_description"`
	DefaultOGImage     string `json:"default_og_image"`
	RobotsTxt          string `json:"robots_txt"`
}

// LayoutSettings control sitewide chrome (header/footer copy and links).
type LayoutSettings struct {
	HeaderTagline  string `json:"header_tagline"`
	FooterText     string `json:"footer_text"`
	TwitterURL     string `json:"twitter_url"`
	LinkedInURL    string `json:"linkedin_url"`
	ContactEmail   string `json:"contact_email"`
	NewsletterBlub string `json:"newsletter_blurb"`
}

// PlatformStats are aggregate counts shown on listing pages. A nil
// *PlatformStats means the stats endpoint has not answered; templates must
// render an explicit unloaded state rather than a placeholder number.
type PlatformStats struct {
	Stories  int `json:"stories"`
	Startups int `json:"startups"`
	Cities   int `json:"cities"`
	Readers  int `json:"readers"`
}

// Theme carries admin-configured color tokens.
type Theme struct {
	PrimaryColor    string `json:"primary_color"`
	SecondaryColor  string `json:"secondary_color"`
	BackgroundColor string `json:"background_color"`
}

// Paginated is the envelope returned by list endpoints.
type Paginated[T any] struct {
	Count      int    `json:"count"`
	TotalPages int    `json:"total_pages"`
	Next       string `json:"next"`
	Previous   string `json:"previous"`
	Results    []T    `json:"results"`
}

// SubscribeRequest is the newsletter subscription payload.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// Submission is a user-submitted startup awaiting review.
type Submission struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
	Category    string `json:"category"`
	City        string `json:"city"`
	Email       string `json:"email"`
}

// Validate checks the fields a submission must carry.
func (s Submission) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Website == "" {
		return fmt.Errorf("website is required")
	}
	if s.Email == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}

// Flag is a bool that tolerates the upstream's three truthy encodings:
// bool true, number 1, and the string "true" (case-insensitive).
// Anything else coerces to false.
type Flag bool

// UnmarshalJSON implements the tolerant decoding.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flag: %w", err)
	}
	*f = Flag(coerceTruthy(raw))
	return nil
}

// Bool returns the flag as a plain bool.
func (f Flag) Bool() bool {
	return bool(f)
}

func coerceTruthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val == 1
	case json.Number:
		return val.String() == "1"
	case string:
		return equalsFoldTrue(val)
	default:
		return false
	}
}

func equalsFoldTrue(s string) bool {
	if len(s) != 4 {
		return false
	}
	lower := [4]byte{'t', 'r', 'u', 'e'}
	for i := 0; i < 4; i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != lower[i] {
			return false
		}
	}
	return true
}

// Slugify lowercases a name and replaces spaces with hyphens. It is the
// best available identity when the API sends a bare relation name.
func Slugify(name string) string {
	out := make([]byte, 0, len(name))
	lastHyphen := true
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
			lastHyphen = false
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			out = append(out, c)
			lastHyphen = false
		default:
			if !lastHyphen {
				out = append(out, '-')
				lastHyphen = true
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	return string(out)
}
