package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/launchwire/launchwire/internal/cms"
)

func newTestClient(t *testing.T, handler http.Handler, revalidate time.Duration) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Config{
		BaseURL:    srv.URL,
		Timeout:    2 * time.Second,
		Revalidate: revalidate,
	})
	return c, srv
}

func TestStoryBySlugReturnsNilOn404(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}), 0)

	story, err := c.StoryBySlug(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, story)
}

func TestFetchListNormalizesBareArray(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"slug":"a"},null,{"slug":"b"},false]`))
	}), 0)

	stories, err := c.Stories(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 2)
	require.Equal(t, "a", stories[0].Slug)
	require.Equal(t, "b", stories[1].Slug)
}

func TestFetchListNormalizesPaginatedEnvelope(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"count":2,"next":null,"previous":null,"results":[{"slug":"x"},{"slug":"y"}]}`))
	}), 0)

	startups, err := c.Startups(context.Background())
	require.NoError(t, err)
	require.Len(t, startups, 2)
	require.Equal(t, "y", startups[1].Slug)
}

func TestFetchListReturnsEmptyOn404AndNull(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cities/" {
			_, _ = w.Write([]byte(`null`))
			return
		}
		http.NotFound(w, r)
	}), 0)

	cities, err := c.Cities(context.Background())
	require.NoError(t, err)
	require.Empty(t, cities)

	categories, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Empty(t, categories)
}

func TestAPIErrorParsesMessageBody(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"detail":"backend unavailable"}`))
	}), 0)

	_, err := c.Stories(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, "backend unavailable", apiErr.Message)
}

func TestAPIErrorFallsBackToStatusText(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`not json`))
	}), 0)

	_, err := c.Stories(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "500 Internal Server Error", apiErr.Message)
}

func TestRevalidateWindowServesCachedBody(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"slug":"cached"}]`))
	}), time.Minute)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		stories, err := c.Stories(ctx)
		require.NoError(t, err)
		require.Len(t, stories, 1)
	}
	require.Equal(t, int64(1), hits.Load())
}

func TestResolveRedirectReturnsTarget(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/categories/fintech", r.URL.Query().Get("path"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"redirect": true,
			"target":   "/categories/fintech-startups",
		})
	}), 0)

	target := c.ResolveRedirect(context.Background(), "categories/fintech")
	require.Equal(t, "/categories/fintech-startups", target)
}

func TestResolveRedirectSwallowsFailures(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), 0)

	require.Equal(t, "", c.ResolveRedirect(context.Background(), "/stories/x"))

	down := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond})
	require.Equal(t, "", down.ResolveRedirect(context.Background(), "/stories/x"))
}

func TestSubscribeSurfacesValidationError(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req cms.SubscribeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Email == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"email required"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	}), 0)

	require.NoError(t, c.Subscribe(context.Background(), "reader@example.com"))

	err := c.Subscribe(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "email required", apiErr.Message)
}

func TestSubmitStartupValidatesLocally(t *testing.T) {
	t.Parallel()

	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond})
	err := c.SubmitStartup(context.Background(), cms.Submission{})
	require.Error(t, err)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr), "local validation must not reach the network")
}

func TestResolveURLRewritesLocalhost(t *testing.T) {
	t.Parallel()

	c := New(Config{BaseURL: "http://localhost:8000/api"})
	require.Equal(t, "http://127.0.0.1:8000/api/stories/", c.resolveURL("/stories/"))

	remote := New(Config{BaseURL: "https://cms.launchwire.example/api"})
	require.Equal(t, "https://cms.launchwire.example/api/stories/", remote.resolveURL("stories/"))
}
