package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheMissThenHitThenExpiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	cache := newRevalidateCache(time.Minute, func() time.Time { return now })

	_, ok := cache.Get("/stories/")
	require.False(t, ok)

	token := cache.Issue("/stories/")
	require.True(t, cache.Store("/stories/", token, []byte(`[]`)))

	data, ok := cache.Get("/stories/")
	require.True(t, ok)
	require.Equal(t, []byte(`[]`), data)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("/stories/")
	require.False(t, ok)
}

func TestCacheStaleFetchCannotOverwriteNewer(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	cache := newRevalidateCache(time.Minute, func() time.Time { return now })

	slow := cache.Issue("/stories/")
	fast := cache.Issue("/stories/")

	require.True(t, cache.Store("/stories/", fast, []byte(`["fresh"]`)))
	require.False(t, cache.Store("/stories/", slow, []byte(`["stale"]`)))

	data, ok := cache.Get("/stories/")
	require.True(t, ok)
	require.Equal(t, []byte(`["fresh"]`), data)
}

func TestCacheDisabledWhenTTLZero(t *testing.T) {
	t.Parallel()

	cache := newRevalidateCache(0, nil)
	token := cache.Issue("/stories/")
	require.True(t, cache.Store("/stories/", token, []byte(`[]`)))
	_, ok := cache.Get("/stories/")
	require.False(t, ok)
}
