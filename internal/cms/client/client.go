// Package client implements the HTTP client for the upstream CMS API.
//
// The API is the source of truth for every entity the site renders. The
// client normalizes its quirks in one place: list endpoints that return a
// bare array or a paginated envelope, 404s that mean "absent" rather than
// "failed", and error bodies in several shapes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/launchwire/launchwire/internal/cms"
	"github.com/launchwire/launchwire/internal/metrics"
	"github.com/launchwire/launchwire/internal/ratelimit"
)

// errNotFound marks an expected-absence response. It never escapes the
// package; typed getters translate it to a nil result.
var errNotFound = errors.New("not found")

// APIError is a non-2xx upstream response with its parsed message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cms api: %d %s", e.StatusCode, e.Message)
}

// Config controls client behavior.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Revalidate time.Duration
	Limiter    *ratelimit.Limiter
	Logger     *zap.Logger
	Now        func() time.Time
}

// Client issues requests against the CMS API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *revalidateCache
	limiter    *ratelimit.Limiter
	logger     *zap.Logger
}

// New builds a Client.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      newRevalidateCache(cfg.Revalidate, cfg.Now),
		limiter:    cfg.Limiter,
		logger:     logger,
	}
}

// resolveURL joins the base URL and endpoint, rewriting localhost to the
// loopback IP. Server-side DNS resolution of "localhost" can prefer an
// unbound IPv6 address; the backend listens on IPv4.
func (c *Client) resolveURL(endpoint string) string {
	full := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	u, err := url.Parse(full)
	if err != nil {
		return full
	}
	if u.Hostname() == "localhost" {
		port := u.Port()
		if port != "" {
			u.Host = "127.0.0.1:" + port
		} else {
			u.Host = "127.0.0.1"
		}
	}
	return u.String()
}

// getRaw executes a GET through the revalidate cache and returns the body.
func (c *Client) getRaw(ctx context.Context, endpoint string) ([]byte, error) {
	if data, ok := c.cache.Get(endpoint); ok {
		return data, nil
	}
	token := c.cache.Issue(endpoint)

	fullURL := c.resolveURL(endpoint)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, fullURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	metrics.ObserveUpstreamRequest(endpointLabel(endpoint), resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, resp),
		}
	}

	if !c.cache.Store(endpoint, token, body) {
		// A newer fetch already landed; serve its result instead of this
		// stale body.
		if data, ok := c.cache.Get(endpoint); ok {
			return data, nil
		}
	}
	return body, nil
}

// errorMessage pulls a human-readable message out of a JSON error body,
// falling back to "<status> <statusText>".
func errorMessage(body []byte, resp *http.Response) string {
	var parsed struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, m := range []string{parsed.Message, parsed.Detail, parsed.Error} {
			if m != "" {
				return m
			}
		}
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// endpointLabel strips query strings so metrics stay low-cardinality.
func endpointLabel(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	return strings.Trim(endpoint, "/")
}

// fetchOne GETs a detail endpoint, returning nil (no error) on 404.
func fetchOne[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	body, err := c.getRaw(ctx, endpoint)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return &out, nil
}

// fetchList GETs a list endpoint and normalizes the three upstream shapes
// (bare array, paginated envelope, null/404) into a single slice. Null
// elements inside the array are dropped.
func fetchList[T any](ctx context.Context, c *Client, endpoint string) ([]T, error) {
	body, err := c.getRaw(ctx, endpoint)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return normalizeList[T](body, endpoint)
}

func normalizeList[T any](body []byte, endpoint string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	var rawItems []json.RawMessage
	if trimmed[0] == '{' {
		var page struct {
			Results []json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("decode envelope %s: %w", endpoint, err)
		}
		rawItems = page.Results
	} else {
		if err := json.Unmarshal(trimmed, &rawItems); err != nil {
			return nil, fmt.Errorf("decode list %s: %w", endpoint, err)
		}
	}
	out := make([]T, 0, len(rawItems))
	for _, raw := range rawItems {
		if isFalsy(raw) {
			continue
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("decode list item %s: %w", endpoint, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func isFalsy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}

// Stories lists all stories.
func (c *Client) Stories(ctx context.Context) ([]cms.Story, error) {
	return fetchList[cms.Story](ctx, c, "/stories/")
}

// StoryBySlug fetches one story, or nil when absent.
func (c *Client) StoryBySlug(ctx context.Context, slug string) (*cms.Story, error) {
	return fetchOne[cms.Story](ctx, c, "/stories/"+url.PathEscape(slug)+"/")
}

// Startups lists all startups.
func (c *Client) Startups(ctx context.Context) ([]cms.Startup, error) {
	return fetchList[cms.Startup](ctx, c, "/startups/")
}

// StartupBySlug fetches one startup, or nil when absent.
func (c *Client) StartupBySlug(ctx context.Context, slug string) (*cms.Startup, error) {
	return fetchOne[cms.Startup](ctx, c, "/startups/"+url.PathEscape(slug)+"/")
}

// Cities lists all cities.
func (c *Client) Cities(ctx context.Context) ([]cms.City, error) {
	return fetchList[cms.City](ctx, c, "/cities/")
}

// CityBySlug fetches one city, or nil when absent.
func (c *Client) CityBySlug(ctx context.Context, slug string) (*cms.City, error) {
	return fetchOne[cms.City](ctx, c, "/cities/"+url.PathEscape(slug)+"/")
}

// Categories lists all categories.
func (c *Client) Categories(ctx context.Context) ([]cms.Category, error) {
	return fetchList[cms.Category](ctx, c, "/categories/")
}

// CategoryBySlug fetches one category, or nil when absent.
func (c *Client) CategoryBySlug(ctx context.Context, slug string) (*cms.Category, error) {
	return fetchOne[cms.Category](ctx, c, "/categories/"+url.PathEscape(slug)+"/")
}

// Pages lists all CMS pages.
func (c *Client) Pages(ctx context.Context) ([]cms.Page, error) {
	return fetchList[cms.Page](ctx, c, "/pages/")
}

// PageBySlug fetches one CMS page, or nil when absent.
func (c *Client) PageBySlug(ctx context.Context, slug string) (*cms.Page, error) {
	return fetchOne[cms.Page](ctx, c, "/pages/"+url.PathEscape(slug)+"/")
}

// SectionsByPage lists the sections configured for a page key or slug.
func (c *Client) SectionsByPage(ctx context.Context, page string) ([]cms.Section, error) {
	return fetchList[cms.Section](ctx, c, "/sections/?page="+url.QueryEscape(page))
}

// Navigation lists the menu items for a position (header, footer).
func (c *Client) Navigation(ctx context.Context, position string) ([]cms.NavigationItem, error) {
	return fetchList[cms.NavigationItem](ctx, c, "/navigation/?position="+url.QueryEscape(position))
}

// SEOSettings fetches the sitewide SEO defaults, or nil when unset.
func (c *Client) SEOSettings(ctx context.Context) (*cms.SEOSettings, error) {
	return fetchOne[cms.SEOSettings](ctx, c, "/seo-settings/")
}

// LayoutSettings fetches the sitewide chrome settings, or nil when unset.
func (c *Client) LayoutSettings(ctx context.Context) (*cms.LayoutSettings, error) {
	return fetchOne[cms.LayoutSettings](ctx, c, "/layout-settings/")
}

// PlatformStats fetches aggregate counts, or nil when unavailable.
func (c *Client) PlatformStats(ctx context.Context) (*cms.PlatformStats, error) {
	return fetchOne[cms.PlatformStats](ctx, c, "/platform-stats/")
}

// Theme fetches the admin-configured theme, or nil when unset.
func (c *Client) Theme(ctx context.Context) (*cms.Theme, error) {
	return fetchOne[cms.Theme](ctx, c, "/theme/")
}

// ResolveRedirect asks the backend whether path should 301 elsewhere. Any
// failure is treated as "no redirect": this is a best-effort enhancement
// and must never block a page render.
func (c *Client) ResolveRedirect(ctx context.Context, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	body, err := c.getRaw(ctx, "/redirect-resolve/?path="+url.QueryEscape(path))
	if err != nil {
		if !errors.Is(err, errNotFound) {
			c.logger.Debug("redirect resolve failed", zap.String("path", path), zap.Error(err))
		}
		return ""
	}
	var resolved struct {
		Redirect bool   `json:"redirect"`
		Target   string `json:"target"`
	}
	if err := json.Unmarshal(body, &resolved); err != nil {
		return ""
	}
	if resolved.Target == "" || resolved.Target == path {
		return ""
	}
	return resolved.Target
}

// Subscribe registers an email for the newsletter.
func (c *Client) Subscribe(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/newsletter/subscribe/", cms.SubscribeRequest{Email: email})
}

// Unsubscribe removes an email from the newsletter.
func (c *Client) Unsubscribe(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/newsletter/unsubscribe/", cms.SubscribeRequest{Email: email})
}

// SubmitStartup forwards a user-submitted startup to the CMS for review.
func (c *Client) SubmitStartup(ctx context.Context, sub cms.Submission) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	return c.postJSON(ctx, "/submissions/", sub)
}

// postJSON executes a write. Writes bypass the cache and surface upstream
// validation messages to the caller.
func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	fullURL := c.resolveURL(endpoint)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, fullURL); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	metrics.ObserveUpstreamRequest(endpointLabel(endpoint), resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			body = nil
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, resp),
		}
	}
	return nil
}
