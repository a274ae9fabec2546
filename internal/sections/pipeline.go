// Package sections turns admin-configured CMS sections into render-ready
// blocks.
//
// The pipeline is a pure dispatch over section kind, executed once per
// active, order-sorted section. Every block resolves its content through
// the same three-level fallback: curated settings items, then the page's
// fallback collections, then a hardcoded placeholder. Curated content
// always wins when present. A malformed section never aborts its siblings;
// it renders generically or not at all.
package sections

import (
	"sort"

	"go.uber.org/zap"

	"github.com/launchwire/launchwire/internal/assets"
	"github.com/launchwire/launchwire/internal/cms"
)

// Data carries the page-level fallback collections handed to the pipeline.
type Data struct {
	Stories    []cms.Story
	Trending   []cms.Story
	Startups   []cms.Startup
	Cities     []cms.City
	Categories []cms.Category
	Stats      *cms.PlatformStats
}

// Style is the normalized presentation settings for a block.
type Style struct {
	BackgroundColor string
	TextColor       string
	Padding         string
}

// Block is one render-ready page region. Template names the layout
// partial; the collection fields are populated per kind.
type Block struct {
	Kind        cms.Kind
	Template    string
	Title       string
	Subtitle    string
	Content     string
	Description string
	LinkText    string
	LinkURL     string
	ImageURL    string
	VideoURL    string
	Style       Style
	Cards       []cms.Card
	Stories     []cms.Story
	Startups    []cms.Startup
	Cities      []cms.City
	Categories  []cms.Category
	Stats       *cms.PlatformStats
}

// Pipeline prepares blocks for rendering.
type Pipeline struct {
	Images assets.Resolver
	Logger *zap.Logger
}

// New builds a Pipeline.
func New(images assets.Resolver, logger *zap.Logger) Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Pipeline{Images: images, Logger: logger}
}

// Prepare filters, orders, and dispatches sections into blocks. Inactive
// sections and empty unknown sections are dropped silently.
func (p Pipeline) Prepare(sections []cms.Section, fallback Data) []Block {
	active := make([]cms.Section, 0, len(sections))
	for _, s := range sections {
		if s.Active {
			active = append(active, s)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Order < active[j].Order
	})

	blocks := make([]Block, 0, len(active))
	for _, s := range active {
		block, ok := p.build(s, fallback)
		if !ok {
			p.Logger.Debug("section produced no block",
				zap.String("section_type", s.RawType),
				zap.Int("id", s.ID),
			)
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func (p Pipeline) build(s cms.Section, fallback Data) (Block, bool) {
	b := Block{
		Kind:        s.Kind,
		Template:    "section_" + string(s.Kind),
		Title:       s.Title,
		Subtitle:    s.Subtitle,
		Content:     s.Content,
		Description: s.Description,
		LinkText:    s.LinkText,
		LinkURL:     s.LinkURL,
		Style: Style{
			BackgroundColor: s.Settings.Color("background_color"),
			TextColor:       s.Settings.Color("text_color"),
			Padding:         s.Settings.String("padding"),
		},
	}

	switch s.Kind {
	case cms.KindHero:
		p.buildHero(&b, s)
	case cms.KindBanner, cms.KindCTA, cms.KindCallout:
		p.buildBanner(&b, s)
	case cms.KindText, cms.KindCustomContent, cms.KindPolicySection:
		if b.Content == "" {
			b.Content = b.Description
		}
	case cms.KindImage:
		b.ImageURL = p.image(s, "")
		if b.ImageURL == "" {
			return Block{}, false
		}
	case cms.KindVideo:
		b.VideoURL = firstNonEmpty(
			s.Settings.String("videoUrl"),
			s.Settings.String("video_url"),
			s.Settings.String("embed_url"),
			s.LinkURL,
		)
		if b.VideoURL == "" {
			return Block{}, false
		}
	case cms.KindLatestStories:
		p.buildStoryList(&b, s, fallback.Stories, "Latest stories")
	case cms.KindTrendingStories:
		trending := fallback.Trending
		if len(trending) == 0 {
			trending = filterStories(fallback.Stories, func(st cms.Story) bool { return st.Trending.Bool() })
		}
		p.buildStoryList(&b, s, trending, "Trending now")
	case cms.KindFeaturedStories:
		featured := filterStories(fallback.Stories, func(st cms.Story) bool { return st.Featured.Bool() })
		if len(featured) == 0 {
			featured = fallback.Stories
		}
		p.buildStoryList(&b, s, featured, "Featured stories")
	case cms.KindCategoryGrid:
		if curated := s.Settings.Items("items"); len(curated) > 0 {
			b.Cards = p.resolveCards(curated)
		} else {
			b.Categories = limitSlice(fallback.Categories, s.Settings.Int("count"), 8)
		}
		b.Title = firstNonEmpty(b.Title, "Browse by category")
	case cms.KindCityGrid:
		if curated := s.Settings.Items("items"); len(curated) > 0 {
			b.Cards = p.resolveCards(curated)
		} else {
			b.Cities = limitSlice(fallback.Cities, s.Settings.Int("count"), 8)
		}
		b.Title = firstNonEmpty(b.Title, "Startup cities")
	case cms.KindRisingHubs:
		if curated := s.Settings.Items("items"); len(curated) > 0 {
			b.Cards = p.resolveCards(curated)
		} else {
			rising := filterCities(fallback.Cities, func(c cms.City) bool { return c.Rising.Bool() })
			if len(rising) == 0 {
				rising = fallback.Cities
			}
			b.Cities = limitSlice(rising, s.Settings.Int("count"), 6)
		}
		b.Title = firstNonEmpty(b.Title, "Rising hubs")
	case cms.KindFeaturedStartups:
		if curated := s.Settings.Items("items"); len(curated) > 0 {
			b.Cards = p.resolveCards(curated)
		} else {
			featured := filterStartups(fallback.Startups, func(st cms.Startup) bool { return st.Featured.Bool() })
			if len(featured) == 0 {
				featured = fallback.Startups
			}
			b.Startups = limitSlice(featured, s.Settings.Int("count"), 6)
		}
		b.Title = firstNonEmpty(b.Title, "Featured startups")
	case cms.KindStartupCards:
		if curated := s.Settings.Items("items"); len(curated) > 0 {
			b.Cards = p.resolveCards(curated)
		} else {
			b.Startups = limitSlice(fallback.Startups, s.Settings.Int("count"), 12)
		}
	case cms.KindNewsletter:
		b.Title = firstNonEmpty(b.Title, "Stay in the loop")
		b.Description = firstNonEmpty(b.Description, b.Content,
			"Get the week's startup stories in your inbox. No spam, unsubscribe anytime.")
	case cms.KindMissionVision:
		if curated := s.Settings.Items("items"); len(curated) > 0 {
			b.Cards = p.resolveCards(curated)
		} else {
			b.Cards = defaultMissionVision()
		}
	case cms.KindStatsBar:
		if curated := s.Settings.Items("items"); len(curated) > 0 {
			b.Cards = curated
		} else {
			b.Stats = fallback.Stats
		}
	case cms.KindTeamGrid, cms.KindValuesGrid, cms.KindFAQ,
		cms.KindRelatedCards, cms.KindImageGallery, cms.KindTableOfContents:
		b.Cards = p.resolveCards(s.Settings.Items("items"))
		if len(b.Cards) == 0 && b.Title == "" && b.Content == "" {
			return Block{}, false
		}
	case cms.KindUnknown:
		return p.buildGeneric(b, s)
	}
	return b, true
}

func (p Pipeline) buildHero(b *Block, s cms.Section) {
	b.Title = firstNonEmpty(b.Title, "Where startups make the news")
	b.Subtitle = firstNonEmpty(b.Subtitle,
		"Funding rounds, launches, and the people building what's next.")
	b.LinkText = firstNonEmpty(b.LinkText, s.Settings.String("button_text"), "Explore stories")
	b.LinkURL = firstNonEmpty(b.LinkURL, s.Settings.String("button_url"), "/stories")
	b.ImageURL = p.image(s, "")
}

func (p Pipeline) buildBanner(b *Block, s cms.Section) {
	if b.Content == "" {
		b.Content = b.Description
	}
	b.LinkText = firstNonEmpty(b.LinkText, s.Settings.String("button_text"))
	b.LinkURL = firstNonEmpty(b.LinkURL, s.Settings.String("button_url"))
	b.ImageURL = p.image(s, "")
}

// buildStoryList applies the curated-first rule shared by every story
// section: settings items always beat the fallback collection.
func (p Pipeline) buildStoryList(b *Block, s cms.Section, stories []cms.Story, defaultTitle string) {
	b.Title = firstNonEmpty(b.Title, defaultTitle)
	if curated := s.Settings.Items("items"); len(curated) > 0 {
		b.Cards = p.resolveCards(curated)
		return
	}
	b.Stories = limitSlice(stories, s.Settings.Int("count"), 6)
}

// buildGeneric renders an unrecognized section if it carries anything
// showable. Draft sections with no content produce no output at all.
func (p Pipeline) buildGeneric(b Block, s cms.Section) (Block, bool) {
	b.Template = "section_generic"
	b.ImageURL = p.image(s, "")
	if b.Title == "" && b.Subtitle == "" && b.Content == "" && b.Description == "" && b.ImageURL == "" {
		return Block{}, false
	}
	return b, true
}

// image pulls the section image from the common settings keys.
func (p Pipeline) image(s cms.Section, fallback string) string {
	src := firstNonEmpty(
		s.Settings.String("imageUrl"),
		s.Settings.String("image_url"),
		s.Settings.String("image"),
		s.Settings.String("background_image"),
	)
	if src == "" {
		return fallback
	}
	return p.Images.SafeImageSrc(src, fallback)
}

// resolveCards normalizes curated card image URLs.
func (p Pipeline) resolveCards(cards []cms.Card) []cms.Card {
	for i := range cards {
		if cards[i].ImageURL != "" {
			cards[i].ImageURL = p.Images.SafeImageSrc(cards[i].ImageURL, "")
		}
	}
	return cards
}

func defaultMissionVision() []cms.Card {
	return []cms.Card{
		{
			Title:       "Our mission",
			Description: "Shine a light on the founders and cities building the next generation of companies.",
		},
		{
			Title:       "Our vision",
			Description: "A startup ecosystem where great ideas get found no matter where they start.",
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func limitSlice[T any](items []T, n, def int) []T {
	if n <= 0 {
		n = def
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

func filterStories(items []cms.Story, keep func(cms.Story) bool) []cms.Story {
	out := make([]cms.Story, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func filterStartups(items []cms.Startup, keep func(cms.Startup) bool) []cms.Startup {
	out := make([]cms.Startup, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func filterCities(items []cms.City, keep func(cms.City) bool) []cms.City {
	out := make([]cms.City, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
