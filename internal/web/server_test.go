package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/launchwire/launchwire/internal/assets"
	"github.com/launchwire/launchwire/internal/clock/system"
	"github.com/launchwire/launchwire/internal/cms/client"
	"github.com/launchwire/launchwire/internal/config"
	"github.com/launchwire/launchwire/internal/render"
	"github.com/launchwire/launchwire/internal/sections"
	"github.com/launchwire/launchwire/internal/seo"
	"github.com/launchwire/launchwire/internal/sitemap"
)

// fakeCMS serves canned JSON per API path. Paths without an entry 404,
// which the client treats as absent content.
func fakeCMS(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		body, ok := responses[key]
		if !ok {
			body, ok = responses[r.URL.Path]
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(body)); err != nil {
			t.Logf("fake cms write: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, backendURL string) *Server {
	t.Helper()

	cfg := config.Config{}
	cfg.Server.Port = 3000
	cfg.Server.RequestTimeout = 10
	cfg.Site.Name = "Launchwire"
	cfg.Site.BaseURL = "https://launchwire.test"
	cfg.CMS.BaseURL = backendURL + "/api"
	cfg.CMS.TimeoutSeconds = 5

	images := assets.Resolver{BackendOrigin: backendURL}
	logger := zap.NewNop()

	cmsClient := client.New(client.Config{
		BaseURL: cfg.CMS.BaseURL,
		Timeout: cfg.UpstreamTimeout(),
		Logger:  logger,
	})
	renderer, err := render.New(images, logger)
	require.NoError(t, err)

	return NewServer(
		cmsClient,
		sections.New(images, logger),
		renderer,
		seo.Builder{
			SiteName: cfg.Site.Name,
			SiteBase: cfg.Site.BaseURL,
			Images:   images,
		},
		sitemap.Generator{SiteBase: cfg.Site.BaseURL, Clock: system.New()},
		cfg,
		logger,
	)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, nil)
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")

	rec = get(t, srv, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHomeRendersConfiguredSections(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/sections/?page=home": `[
			{"id": 1, "section_type": "hero", "title": "Launch day", "is_active": "true", "order": 1},
			{"id": "2", "section_type": "newsletter", "is_active": 0, "order": 2},
			{"id": 3, "section_type": "latest_stories", "is_active": true, "order": 3}
		]`,
		"/api/stories/": `{"results": [
			{"id": 1, "title": "Seed round closed", "slug": "seed-round", "excerpt": "A big one."}
		]}`,
	})
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	// Active hero renders with its configured title; the string "true"
	// counts as active.
	require.Contains(t, body, "Launch day")
	// The inactive newsletter section (is_active: 0) is dropped.
	require.NotContains(t, body, "newsletter-section")
	require.Contains(t, body, "Seed round closed")
}

func TestHomeFallsBackToDefaultLayout(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/sections/?page=home": `[]`,
	})
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	// Default hero copy appears when no sections are configured.
	require.Contains(t, rec.Body.String(), "Where startups make the news")
}

func TestStoryDetail(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/stories/seed-round/": `{
			"id": 1, "title": "Seed round closed", "slug": "seed-round",
			"excerpt": "A big one.", "content": "<p>Full story.</p>",
			"category": "Fintech", "city": {"name": "Austin", "slug": "austin"}
		}`,
		"/api/stories/": `[
			{"id": 1, "title": "Seed round closed", "slug": "seed-round", "category": "Fintech"},
			{"id": 2, "title": "Another fintech win", "slug": "fintech-win", "category": "Fintech"},
			{"id": 3, "title": "Unrelated hardware", "slug": "hardware", "category": "Hardware"}
		]`,
	})
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/stories/seed-round")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	require.Contains(t, body, "Seed round closed")
	require.Contains(t, body, "Full story.")
	// Same-category story shows as related; the unrelated one does not.
	require.Contains(t, body, "Another fintech win")
	require.NotContains(t, body, "Unrelated hardware")
	// NewsArticle structured data is embedded.
	require.Contains(t, body, `"@type":"NewsArticle"`)
}

func TestStoryNotFound(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, nil)
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/stories/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Page not found")
}

func TestRedirectShortCircuitsDetailRoute(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/redirect-resolve/?path=%2Fstories%2Fold-slug": `{"redirect": true, "target": "/stories/new-slug"}`,
	})
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/stories/old-slug")
	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	require.Equal(t, "/stories/new-slug", rec.Header().Get("Location"))
}

func TestUnknownPathChecksRedirectThen404(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/redirect-resolve/?path=%2Fold-about": `{"redirect": true, "target": "/pages/about"}`,
	})
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/old-about")
	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	require.Equal(t, "/pages/about", rec.Header().Get("Location"))

	rec = get(t, srv, "/definitely-missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartupDetailWithRelated(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/startups/acme/": `{
			"id": 1, "name": "Acme", "slug": "acme", "tagline": "Rockets",
			"category": {"name": "Aerospace", "slug": "aerospace"},
			"city": {"name": "Denver", "slug": "denver"}
		}`,
		"/api/startups/": `[
			{"id": 1, "name": "Acme", "slug": "acme", "category": {"name": "Aerospace", "slug": "aerospace"}},
			{"id": 2, "name": "Orbital", "slug": "orbital", "category": {"name": "Aerospace", "slug": "aerospace"}},
			{"id": 3, "name": "Bakery Co", "slug": "bakery", "category": {"name": "Food", "slug": "food"}}
		]`,
	})
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/startups/acme")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	require.Contains(t, body, "Acme")
	require.Contains(t, body, "Orbital")
	require.NotContains(t, body, "Bakery Co")
	require.Contains(t, body, `"@type":"Organization"`)
}

func TestStoriesListDegradesOnUpstreamError(t *testing.T) {
	t.Parallel()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "boom"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(backend.Close)
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/stories")
	require.Equal(t, http.StatusOK, rec.Code)
	// The page renders with the degraded banner instead of failing.
	require.Contains(t, rec.Body.String(), "could not be loaded")
}

func TestStoriesListQueryFilter(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/stories/": `[
			{"id": 1, "title": "Fintech funding", "slug": "fintech-funding"},
			{"id": 2, "title": "Hardware launch", "slug": "hardware-launch"}
		]`,
	})
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/stories?q=fintech")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Fintech funding")
	require.NotContains(t, rec.Body.String(), "Hardware launch")
}

func TestCMSPageRendersSections(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/pages/about/": `{"id": 1, "title": "About us", "slug": "about", "key": "about"}`,
		"/api/sections/?page=about": `[
			{"id": 1, "section_type": "text", "title": "Our story", "content": "<p>We write news.</p>", "is_active": true, "order": 1}
		]`,
	})
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/pages/about")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Our story")
	require.Contains(t, body, "We write news.")
}

func TestSitemapAndRobots(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/stories/": `[{"id": 1, "title": "One", "slug": "one"}]`,
		"/api/seo-settings/": `{"robots_txt": ""}`,
	})
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	body := rec.Body.String()
	require.Contains(t, body, "https://launchwire.test/stories/one")
	require.Contains(t, body, "https://launchwire.test/submit")

	rec = get(t, srv, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Sitemap: https://launchwire.test/sitemap.xml")
}

func TestRobotsUsesCMSOverride(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/seo-settings/": `{"robots_txt": "User-agent: *\nDisallow: /"}`,
	})
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Disallow: /")
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, nil)
	srv := newTestServer(t, backend.URL)

	rec := postForm(t, srv, "/submit", url.Values{
		"name":    {"Acme"},
		"website": {""},
		"email":   {"founder@acme.test"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "website is required")
	// The user's values survive the round trip.
	require.Contains(t, body, "Acme")
	require.Contains(t, body, "founder@acme.test")
}

func TestSubmitForwardsToCMS(t *testing.T) {
	t.Parallel()
	var gotBody string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/submissions/" {
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			w.WriteHeader(http.StatusCreated)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(backend.Close)
	srv := newTestServer(t, backend.URL)

	rec := postForm(t, srv, "/submit", url.Values{
		"name":    {"Acme"},
		"website": {"https://acme.test"},
		"email":   {"founder@acme.test"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "submitted for review")
	require.Contains(t, gotBody, `"name":"Acme"`)
}

func TestNewsletterSubscribeRedirects(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, map[string]string{
		"/api/newsletter/subscribe/": `{"ok": true}`,
	})
	srv := newTestServer(t, backend.URL)

	rec := postForm(t, srv, "/newsletter/subscribe", url.Values{"email": {"reader@example.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/?subscribed=1", rec.Header().Get("Location"))

	rec = postForm(t, srv, "/newsletter/subscribe", url.Values{"email": {"not-an-email"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/?subscribed=0", rec.Header().Get("Location"))
}

func TestBackendProxyForwardsMedia(t *testing.T) {
	t.Parallel()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/media/logo.png" {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(backend.Close)
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/media/logo.png")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "png-bytes", rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()
	backend := fakeCMS(t, nil)
	srv := newTestServer(t, backend.URL)

	rec := get(t, srv, "/healthz")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
