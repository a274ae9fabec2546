package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/launchwire/launchwire/internal/cms"
	"github.com/launchwire/launchwire/internal/related"
	"github.com/launchwire/launchwire/internal/sections"
	"github.com/launchwire/launchwire/internal/sitemap"
)

// handleHome renders the homepage through the section pipeline. Every
// fetch degrades independently: a failed collection shows the error banner
// and an emptier page, never a 500.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ch := s.loadChrome(ctx)

	var (
		pageSections []cms.Section
		fb           sections.Data
	)
	errs := make([]error, 6)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { pageSections, errs[0] = s.cms.SectionsByPage(gctx, "home"); return nil })
	g.Go(func() error { fb.Stories, errs[1] = s.cms.Stories(gctx); return nil })
	g.Go(func() error { fb.Startups, errs[2] = s.cms.Startups(gctx); return nil })
	g.Go(func() error { fb.Cities, errs[3] = s.cms.Cities(gctx); return nil })
	g.Go(func() error { fb.Categories, errs[4] = s.cms.Categories(gctx); return nil })
	g.Go(func() error { fb.Stats, errs[5] = s.cms.PlatformStats(gctx); return nil })
	_ = g.Wait()

	degraded := s.logFetchErrors("home", errs)

	blocks := s.pipeline.Prepare(pageSections, fb)
	if len(blocks) == 0 {
		// No sections configured (or the fetch failed): fall back to the
		// default homepage layout so the site never renders blank.
		blocks = s.pipeline.Prepare(defaultHomeSections(), fb)
	}

	data := ch.page(ch.SEO.ForHome(), s.cfg.Site.Name)
	data.Blocks = blocks
	data.Stats = fb.Stats
	data.HasError = degraded
	s.renderPage(w, "home", "home", http.StatusOK, data)
}

// defaultHomeSections is the layout used when the CMS defines none.
func defaultHomeSections() []cms.Section {
	return []cms.Section{
		{Kind: cms.KindHero, RawType: "hero", Order: 1, Active: true},
		{Kind: cms.KindLatestStories, RawType: "latest_stories", Order: 2, Active: true},
		{Kind: cms.KindFeaturedStartups, RawType: "featured_startups", Order: 3, Active: true},
		{Kind: cms.KindCityGrid, RawType: "city_grid", Order: 4, Active: true},
		{Kind: cms.KindNewsletter, RawType: "newsletter", Order: 5, Active: true},
	}
}

func (s *Server) handleStories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ch := s.loadChrome(ctx)

	stories, err := s.cms.Stories(ctx)
	if err != nil {
		s.logger.Warn("stories fetch failed", zap.Error(err))
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	stories = filterStoryList(stories, query,
		r.URL.Query().Get("category"), r.URL.Query().Get("city"))

	data := ch.page(ch.SEO.ForPath("Stories", "", "/stories"), s.cfg.Site.Name)
	data.Stories = stories
	data.Query = query
	data.HasError = err != nil
	s.renderPage(w, "stories", "stories_list", http.StatusOK, data)
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	story, err := s.cms.StoryBySlug(ctx, slug)
	if err != nil {
		s.logger.Error("story fetch failed", zap.String("slug", slug), zap.Error(err))
	}
	if story == nil {
		s.renderNotFound(w, r, "story")
		return
	}

	ch := s.loadChrome(ctx)
	all, err := s.cms.Stories(ctx)
	if err != nil {
		s.logger.Warn("related stories fetch failed", zap.Error(err))
	}

	data := ch.page(ch.SEO.ForStory(*story), s.cfg.Site.Name)
	data.Story = story
	data.RelatedStories = related.Stories(slug, story.Category, story.City, all)
	s.renderPage(w, "story", "story_detail", http.StatusOK, data)
}

func (s *Server) handleStartups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ch := s.loadChrome(ctx)

	var (
		startups []cms.Startup
		stats    *cms.PlatformStats
	)
	errs := make([]error, 2)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { startups, errs[0] = s.cms.Startups(gctx); return nil })
	g.Go(func() error { stats, errs[1] = s.cms.PlatformStats(gctx); return nil })
	_ = g.Wait()
	degraded := errs[0] != nil
	s.logFetchErrors("startups", errs)

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	startups = filterStartupList(startups, query,
		r.URL.Query().Get("category"), r.URL.Query().Get("city"))

	data := ch.page(ch.SEO.ForPath("Startups", "", "/startups"), s.cfg.Site.Name)
	data.Startups = startups
	data.Stats = stats
	data.Query = query
	data.HasError = degraded
	s.renderPage(w, "startups", "startups_list", http.StatusOK, data)
}

func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	startup, err := s.cms.StartupBySlug(ctx, slug)
	if err != nil {
		s.logger.Error("startup fetch failed", zap.String("slug", slug), zap.Error(err))
	}
	if startup == nil {
		s.renderNotFound(w, r, "startup")
		return
	}

	ch := s.loadChrome(ctx)

	var (
		all     []cms.Startup
		stories []cms.Story
	)
	errs := make([]error, 2)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { all, errs[0] = s.cms.Startups(gctx); return nil })
	g.Go(func() error { stories, errs[1] = s.cms.Stories(gctx); return nil })
	_ = g.Wait()
	s.logFetchErrors("startup", errs)

	data := ch.page(ch.SEO.ForStartup(*startup), s.cfg.Site.Name)
	data.Startup = startup
	data.RelatedItems = related.Startups(*startup, all)
	data.RelatedStories = related.Stories("", startup.Category, startup.City, stories)
	s.renderPage(w, "startup", "startup_detail", http.StatusOK, data)
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ch := s.loadChrome(ctx)

	cities, err := s.cms.Cities(ctx)
	if err != nil {
		s.logger.Warn("cities fetch failed", zap.Error(err))
	}

	data := ch.page(ch.SEO.ForPath("Cities", "", "/cities"), s.cfg.Site.Name)
	data.Cities = cities
	data.HasError = err != nil
	s.renderPage(w, "cities", "cities_list", http.StatusOK, data)
}

func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	city, err := s.cms.CityBySlug(ctx, slug)
	if err != nil {
		s.logger.Error("city fetch failed", zap.String("slug", slug), zap.Error(err))
	}
	if city == nil {
		s.renderNotFound(w, r, "city")
		return
	}

	ch := s.loadChrome(ctx)

	var (
		stories  []cms.Story
		startups []cms.Startup
	)
	errs := make([]error, 2)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { stories, errs[0] = s.cms.Stories(gctx); return nil })
	g.Go(func() error { startups, errs[1] = s.cms.Startups(gctx); return nil })
	_ = g.Wait()
	s.logFetchErrors("city", errs)

	data := ch.page(ch.SEO.ForCity(*city), s.cfg.Site.Name)
	data.City = city
	data.Stories = storiesInCity(stories, city.Slug)
	data.Startups = startupsInCity(startups, city.Slug)
	s.renderPage(w, "city", "city_detail", http.StatusOK, data)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ch := s.loadChrome(ctx)

	categories, err := s.cms.Categories(ctx)
	if err != nil {
		s.logger.Warn("categories fetch failed", zap.Error(err))
	}

	data := ch.page(ch.SEO.ForPath("Categories", "", "/categories"), s.cfg.Site.Name)
	data.Categories = categories
	data.HasError = err != nil
	s.renderPage(w, "categories", "categories_list", http.StatusOK, data)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	category, err := s.cms.CategoryBySlug(ctx, slug)
	if err != nil {
		s.logger.Error("category fetch failed", zap.String("slug", slug), zap.Error(err))
	}
	if category == nil {
		s.renderNotFound(w, r, "category")
		return
	}

	ch := s.loadChrome(ctx)

	var (
		stories  []cms.Story
		startups []cms.Startup
	)
	errs := make([]error, 2)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { stories, errs[0] = s.cms.Stories(gctx); return nil })
	g.Go(func() error { startups, errs[1] = s.cms.Startups(gctx); return nil })
	_ = g.Wait()
	s.logFetchErrors("category", errs)

	data := ch.page(ch.SEO.ForCategory(*category), s.cfg.Site.Name)
	data.Category = category
	data.Stories = storiesInCategory(stories, category.Slug)
	data.Startups = startupsInCategory(startups, category.Slug)
	s.renderPage(w, "category", "category_detail", http.StatusOK, data)
}

// handlePage renders an admin-authored CMS page through the section
// pipeline, keyed by the page's key when set, otherwise its slug.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	page, err := s.cms.PageBySlug(ctx, slug)
	if err != nil {
		s.logger.Error("page fetch failed", zap.String("slug", slug), zap.Error(err))
	}
	if page == nil {
		s.renderNotFound(w, r, "page")
		return
	}

	key := page.Key
	if key == "" {
		key = page.Slug
	}

	ch := s.loadChrome(ctx)

	var (
		pageSections []cms.Section
		fb           sections.Data
	)
	errs := make([]error, 6)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { pageSections, errs[0] = s.cms.SectionsByPage(gctx, key); return nil })
	g.Go(func() error { fb.Stories, errs[1] = s.cms.Stories(gctx); return nil })
	g.Go(func() error { fb.Startups, errs[2] = s.cms.Startups(gctx); return nil })
	g.Go(func() error { fb.Cities, errs[3] = s.cms.Cities(gctx); return nil })
	g.Go(func() error { fb.Categories, errs[4] = s.cms.Categories(gctx); return nil })
	g.Go(func() error { fb.Stats, errs[5] = s.cms.PlatformStats(gctx); return nil })
	_ = g.Wait()
	degraded := s.logFetchErrors("page", errs)

	data := ch.page(ch.SEO.ForPage(*page), s.cfg.Site.Name)
	data.CMSPage = page
	data.Blocks = s.pipeline.Prepare(pageSections, fb)
	data.HasError = degraded
	s.renderPage(w, "page", "cms_page", http.StatusOK, data)
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var content sitemap.Content
	errs := make([]error, 5)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { content.Stories, errs[0] = s.cms.Stories(gctx); return nil })
	g.Go(func() error { content.Startups, errs[1] = s.cms.Startups(gctx); return nil })
	g.Go(func() error { content.Cities, errs[2] = s.cms.Cities(gctx); return nil })
	g.Go(func() error { content.Categories, errs[3] = s.cms.Categories(gctx); return nil })
	g.Go(func() error { content.Pages, errs[4] = s.cms.Pages(gctx); return nil })
	_ = g.Wait()
	s.logFetchErrors("sitemap", errs)

	body, err := s.sitemap.XML(s.sitemap.Entries(content))
	if err != nil {
		s.logger.Error("sitemap generation failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("sitemap write failed", zap.Error(err))
	}
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	settings, err := s.cms.SEOSettings(r.Context())
	if err != nil {
		s.logger.Warn("seo settings fetch failed", zap.Error(err))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(s.sitemap.Robots(settings))); err != nil {
		s.logger.Debug("robots write failed", zap.Error(err))
	}
}

// logFetchErrors logs each failed fetch and reports whether any failed.
func (s *Server) logFetchErrors(route string, errs []error) bool {
	degraded := false
	for _, err := range errs {
		if err != nil {
			degraded = true
			s.logger.Warn("content fetch failed", zap.String("route", route), zap.Error(err))
		}
	}
	return degraded
}

func filterStoryList(stories []cms.Story, query, category, city string) []cms.Story {
	out := make([]cms.Story, 0, len(stories))
	for _, st := range stories {
		if query != "" && !containsFold(st.Title, query) && !containsFold(st.Excerpt, query) {
			continue
		}
		if category != "" && st.Category.Slug != category {
			continue
		}
		if city != "" && st.City.Slug != city {
			continue
		}
		out = append(out, st)
	}
	return out
}

func filterStartupList(startups []cms.Startup, query, category, city string) []cms.Startup {
	out := make([]cms.Startup, 0, len(startups))
	for _, st := range startups {
		if query != "" && !containsFold(st.Name, query) && !containsFold(st.Tagline, query) {
			continue
		}
		if category != "" && st.Category.Slug != category {
			continue
		}
		if city != "" && st.City.Slug != city {
			continue
		}
		out = append(out, st)
	}
	return out
}

func storiesInCity(stories []cms.Story, slug string) []cms.Story {
	return filterStoryList(stories, "", "", slug)
}

func storiesInCategory(stories []cms.Story, slug string) []cms.Story {
	return filterStoryList(stories, "", slug, "")
}

func startupsInCity(startups []cms.Startup, slug string) []cms.Startup {
	return filterStartupList(startups, "", "", slug)
}

func startupsInCategory(startups []cms.Startup, slug string) []cms.Startup {
	return filterStartupList(startups, "", slug, "")
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
