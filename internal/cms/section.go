package cms

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Kind identifies a section layout. Unrecognized values map to KindUnknown
// and keep their raw tag so the generic renderer can still show content.
type Kind string

// Known section kinds.
const (
	KindHero             Kind = "hero"
	KindBanner           Kind = "banner"
	KindText             Kind = "text"
	KindImage            Kind = "image"
	KindVideo            Kind = "video"
	KindLatestStories    Kind = "latest_stories"
	KindTrendingStories  Kind = "trending_stories"
	KindFeaturedStories  Kind = "featured_stories"
	KindCategoryGrid     Kind = "category_grid"
	KindCityGrid         Kind = "city_grid"
	KindRisingHubs       Kind = "rising_hubs"
	KindFeaturedStartups Kind = "featured_startups"
	KindStartupCards     Kind = "startup_cards"
	KindNewsletter       Kind = "newsletter"
	KindCTA              Kind = "cta"
	KindCustomContent    Kind = "custom_content"
	KindMissionVision    Kind = "mission_vision"
	KindStatsBar         Kind = "stats_bar"
	KindTeamGrid         Kind = "team_grid"
	KindValuesGrid       Kind = "values_grid"
	KindPolicySection    Kind = "policy_section"
	KindFAQ              Kind = "faq"
	KindCallout          Kind = "callout"
	KindRelatedCards     Kind = "related_cards"
	KindImageGallery     Kind = "image_gallery"
	KindTableOfContents  Kind = "table_of_contents"
	KindUnknown          Kind = "unknown"
)

var knownKinds = map[Kind]struct{}{
	KindHero: {}, KindBanner: {}, KindText: {}, KindImage: {}, KindVideo: {},
	KindLatestStories: {}, KindTrendingStories: {}, KindFeaturedStories: {},
	KindCategoryGrid: {}, KindCityGrid: {}, KindRisingHubs: {},
	KindFeaturedStartups: {}, KindStartupCards: {}, KindNewsletter: {},
	KindCTA: {}, KindCustomContent: {}, KindMissionVision: {},
	KindStatsBar: {}, KindTeamGrid: {}, KindValuesGrid: {},
	KindPolicySection: {}, KindFAQ: {}, KindCallout: {},
	KindRelatedCards: {}, KindImageGallery: {}, KindTableOfContents: {},
}

// ParseKind maps a raw section_type tag to a Kind.
func ParseKind(raw string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownKinds[k]; ok {
		return k
	}
	return KindUnknown
}

// Section is one admin-configured content block on a page.
type Section struct {
	ID          int
	Kind        Kind
	RawType     string
	Title       string
	Subtitle    string
	Content     string
	Description string
	LinkText    string
	LinkURL     string
	Order       int
	Active      bool
	Settings    Settings
}

// UnmarshalJSON decodes and coerces the upstream section shape in one
// place, so the rest of the pipeline never touches loose types.
func (s *Section) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          any             `json:"id"`
		SectionType string          `json:"section_type"`
		Title       string          `json:"title"`
		Subtitle    string          `json:"subtitle"`
		Content     string          `json:"content"`
		Description string          `json:"description"`
		LinkText    string          `json:"link_text"`
		LinkURL     string          `json:"link_url"`
		Order       any             `json:"order"`
		IsActive    any             `json:"is_active"`
		Settings    json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("section: %w", err)
	}
	settings := Settings{}
	if len(raw.Settings) > 0 && string(raw.Settings) != "null" {
		// Malformed settings degrade to empty rather than failing the
		// whole list; a broken section must not take out its siblings.
		_ = json.Unmarshal(raw.Settings, &settings.values)
	}
	*s = Section{
		ID:          cast.ToInt(raw.ID),
		Kind:        ParseKind(raw.SectionType),
		RawType:     raw.SectionType,
		Title:       raw.Title,
		Subtitle:    raw.Subtitle,
		Content:     raw.Content,
		Description: raw.Description,
		LinkText:    raw.LinkText,
		LinkURL:     raw.LinkURL,
		Order:       cast.ToInt(raw.Order),
		Active:      coerceTruthy(raw.IsActive),
		Settings:    settings,
	}
	return nil
}

// Settings is the free-form map attached to a section. Accessors coerce
// values on read so callers never see raw any-typed data.
type Settings struct {
	values map[string]any
}

// NewSettings builds Settings from a plain map, for tests and builders.
func NewSettings(values map[string]any) Settings {
	return Settings{values: values}
}

// String returns the named value as a string, or "" when absent.
func (s Settings) String(key string) string {
	if s.values == nil {
		return ""
	}
	return cast.ToString(s.values[key])
}

// Int returns the named value as an int, or 0 when absent.
func (s Settings) Int(key string) int {
	if s.values == nil {
		return 0
	}
	return cast.ToInt(s.values[key])
}

// Bool returns the named value under the tolerant truthy rules.
func (s Settings) Bool(key string) bool {
	if s.values == nil {
		return false
	}
	return coerceTruthy(s.values[key])
}

// Color returns the named value normalized as a CSS color.
func (s Settings) Color(key string) string {
	return NormalizeColor(s.String(key))
}

// Items returns the named value decoded as a list of cards. Entries that
// are not objects are dropped.
func (s Settings) Items(key string) []Card {
	if s.values == nil {
		return nil
	}
	raw, ok := s.values[key].([]any)
	if !ok {
		return nil
	}
	items := make([]Card, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, cardFromMap(m))
	}
	return items
}

// IsZero reports whether no settings were supplied.
func (s Settings) IsZero() bool {
	return len(s.values) == 0
}

// Card is one curated item inside a section's settings: a team member, an
// FAQ entry, a stat, a gallery image. Fields not applicable to a given
// section kind stay empty.
type Card struct {
	Title       string
	Subtitle    string
	Description string
	ImageURL    string
	LinkURL     string
	LinkText    string
	Icon        string
	Question    string
	Answer      string
	Label       string
	Value       string
}

func cardFromMap(m map[string]any) Card {
	return Card{
		Title:       firstString(m, "title", "name", "heading"),
		Subtitle:    firstString(m, "subtitle", "role"),
		Description: firstString(m, "description", "text", "body"),
		ImageURL:    firstString(m, "imageUrl", "image_url", "image", "src"),
		LinkURL:     firstString(m, "linkUrl", "link_url", "url", "href"),
		LinkText:    firstString(m, "linkText", "link_text"),
		Icon:        firstString(m, "icon"),
		Question:    firstString(m, "question"),
		Answer:      firstString(m, "answer"),
		Label:       firstString(m, "label"),
		Value:       firstString(m, "value", "count"),
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s := cast.ToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// NormalizeColor prefixes a missing '#' on bare hex values. Named tokens
// and empty strings pass through untouched.
func NormalizeColor(c string) string {
	c = strings.TrimSpace(c)
	if c == "" || strings.HasPrefix(c, "#") {
		return c
	}
	if isHex(c) && (len(c) == 3 || len(c) == 6 || len(c) == 8) {
		return "#" + c
	}
	return c
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return len(s) > 0
}
