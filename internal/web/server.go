// Package web hosts the public HTTP server: the rendered site routes,
// sitemap/robots endpoints, operational probes, and the passthrough proxy
// for backend-owned paths (/admin, /api, /static, /media).
package web

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/launchwire/launchwire/internal/cms"
	"github.com/launchwire/launchwire/internal/cms/client"
	"github.com/launchwire/launchwire/internal/config"
	"github.com/launchwire/launchwire/internal/metrics"
	"github.com/launchwire/launchwire/internal/render"
	"github.com/launchwire/launchwire/internal/sections"
	"github.com/launchwire/launchwire/internal/seo"
	"github.com/launchwire/launchwire/internal/sitemap"
)

// Server wires routes, middleware, and the render pipeline.
type Server struct {
	router   chi.Router
	cms      *client.Client
	pipeline sections.Pipeline
	renderer *render.Renderer
	seo      seo.Builder
	sitemap  sitemap.Generator
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs the site server with middleware and routes.
func NewServer(
	cmsClient *client.Client,
	pipeline sections.Pipeline,
	renderer *render.Renderer,
	seoBuilder seo.Builder,
	gen sitemap.Generator,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cms:      cmsClient,
		pipeline: pipeline,
		renderer: renderer,
		seo:      seoBuilder,
		sitemap:  gen,
		cfg:      cfg,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/", s.handleHome)
	r.Get("/stories", s.handleStories)
	r.Get("/startups", s.handleStartups)
	r.Get("/cities", s.handleCities)
	r.Get("/categories", s.handleCategories)
	r.Get("/submit", s.handleSubmitForm)
	r.Post("/submit", s.handleSubmitPost)
	r.Post("/newsletter/subscribe", s.handleSubscribe)
	r.Post("/newsletter/unsubscribe", s.handleUnsubscribe)

	r.Group(func(r chi.Router) {
		r.Use(s.redirectMiddleware)
		r.Get("/stories/{slug}", s.handleStory)
		r.Get("/startups/{slug}", s.handleStartup)
		r.Get("/cities/{slug}", s.handleCity)
		r.Get("/categories/{slug}", s.handleCategory)
		r.Get("/pages/{slug}", s.handlePage)
	})

	r.Get("/sitemap.xml", s.handleSitemap)
	r.Get("/robots.txt", s.handleRobots)

	s.mountBackendProxy(r)

	r.NotFound(s.handleUnknownPath)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The site degrades per page when the CMS is down; readiness only
	// asserts the process can serve requests.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// chrome is the sitewide state every page render needs: navigation,
// layout settings, theme, and the SEO builder with CMS defaults folded in.
type chrome struct {
	Nav    []cms.NavigationItem
	Layout *cms.LayoutSettings
	Theme  *cms.Theme
	SEO    seo.Builder
}

// loadChrome fetches the sitewide state concurrently. Every fetch is
// best-effort: a missing menu or theme never blocks a page.
func (s *Server) loadChrome(ctx context.Context) chrome {
	ch := chrome{SEO: s.seo}
	var settings *cms.SEOSettings

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		nav, err := s.cms.Navigation(gctx, "header")
		if err != nil {
			s.logger.Warn("navigation fetch failed", zap.Error(err))
			return nil
		}
		ch.Nav = nav
		return nil
	})
	g.Go(func() error {
		layout, err := s.cms.LayoutSettings(gctx)
		if err != nil {
			s.logger.Warn("layout settings fetch failed", zap.Error(err))
			return nil
		}
		ch.Layout = layout
		return nil
	})
	g.Go(func() error {
		theme, err := s.cms.Theme(gctx)
		if err != nil {
			s.logger.Warn("theme fetch failed", zap.Error(err))
			return nil
		}
		ch.Theme = theme
		return nil
	})
	g.Go(func() error {
		seoSettings, err := s.cms.SEOSettings(gctx)
		if err != nil {
			s.logger.Warn("seo settings fetch failed", zap.Error(err))
			return nil
		}
		settings = seoSettings
		return nil
	})
	_ = g.Wait()

	ch.SEO = s.seo.ApplyDefaults(settings)
	return ch
}

// page assembles the base render payload for one request.
func (ch chrome) page(meta seo.Meta, siteName string) render.Page {
	return render.Page{
		Meta:     meta,
		SiteName: siteName,
		Nav:      ch.Nav,
		Layout:   ch.Layout,
		Theme:    ch.Theme,
	}
}

// renderPage executes a template into a buffer first so a mid-render
// failure produces a clean 500 instead of a half-written page.
func (s *Server) renderPage(w http.ResponseWriter, route, name string, status int, data render.Page) {
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, name, data); err != nil {
		s.logger.Error("page render failed",
			zap.String("template", name),
			zap.Error(err),
		)
		metrics.ObservePageRender(route, "error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	outcome := "ok"
	switch {
	case status == http.StatusNotFound:
		outcome = "not_found"
	case data.HasError:
		outcome = "degraded"
	}
	metrics.ObservePageRender(route, outcome)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("response write failed", zap.Error(err))
	}
}

// renderNotFound serves the branded 404 page.
func (s *Server) renderNotFound(w http.ResponseWriter, r *http.Request, route string) {
	ch := s.loadChrome(r.Context())
	meta := ch.SEO.ForPath("Page not found", "", r.URL.Path)
	meta.Noindex = true
	s.renderPage(w, route, "not_found", http.StatusNotFound, ch.page(meta, s.cfg.Site.Name))
}

// handleUnknownPath gives unrouted paths one chance at a CMS-configured
// redirect before the 404 page.
func (s *Server) handleUnknownPath(w http.ResponseWriter, r *http.Request) {
	if target := s.cms.ResolveRedirect(r.Context(), r.URL.Path); target != "" {
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}
	s.renderNotFound(w, r, "not_found")
}
