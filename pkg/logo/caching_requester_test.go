package logo_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/logoapi/pkg/logo"
)

func TestCachingRequester_GET(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	upstream := newFakeRequester()
	threePages(upstream)

	cache := logo.NewMemoryCache(10)
	requester := logo.NewCachingRequester(upstream, cache, time.Minute)

	for range 2 {
		items, err := logo.Paginate[item](ctx, requester, "/items", limit2(), nil).All()
		require.NoError(t, err)
		assert.Len(t, items, 5)
	}

	assert.Equal(t, 3, upstream.requestCount())

	stats := requester.Stats()
	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
	assert.Equal(t, int64(3), stats.Sets)
	assert.InDelta(t, 0.5, stats.GetHitRate(), 0.001)

	require.NoError(t, requester.Invalidate(ctx, "/items", "limit=2"))
	assert.False(t, cache.Has(ctx, logo.CacheKey("/items", "limit=2")))
}

func TestCachingRequester_PassesThroughWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	upstream := newFakeRequester()
	upstream.respond("/items", map[string]string{"CODE": "N"})

	requester := logo.NewCachingRequester(upstream, logo.NewMemoryCache(10), 0)

	for range 2 {
		_, err := requester.Request(ctx, http.MethodPost, "/items", "", map[string]string{"CODE": "N"})
		require.NoError(t, err)
	}

	assert.Equal(t, 2, upstream.requestCount())
	assert.Zero(t, requester.Stats().Hits)
}

func TestCachingRequester_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	upstream := newFakeRequester()

	requester := logo.NewCachingRequester(upstream, nil, time.Minute)

	for range 2 {
		_, err := requester.Request(ctx, http.MethodGet, "/missing", "", nil)
		assert.True(t, logo.IsNotFound(err))
	}

	assert.Equal(t, 2, upstream.requestCount())
	assert.Zero(t, requester.Stats().Sets)
}

func TestCachingRequester_SkipsLargeBodies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	upstream := newFakeRequester()
	upstream.respond("/big", strings.Repeat("x", 2<<20))

	requester := logo.NewCachingRequester(upstream, logo.NewMemoryCache(10), time.Minute)

	_, err := requester.Request(ctx, http.MethodGet, "/big", "", nil)
	require.NoError(t, err)
	assert.Zero(t, requester.Stats().Sets)
}

func TestCachingRequesterFromConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	upstream := newFakeRequester()
	upstream.respond("/items", "ok")
	upstream.respond("/prices", "ok")
	upstream.respond("/big", "too large")

	items := logo.Entity{Name: "items", Path: "/items"}

	requester, err := logo.NewCacheBuilder().
		Memory(10).
		TTL(time.Hour).
		ForEntity(items, time.Millisecond).
		MaxValueSize(4).
		Wrap(ctx, upstream)
	require.NoError(t, err)

	for _, path := range []string{"/items", "/prices", "/big"} {
		_, err = requester.Request(ctx, http.MethodGet, path, "", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(2), requester.Stats().Sets)

	time.Sleep(10 * time.Millisecond)

	for _, path := range []string{"/items", "/prices", "/big"} {
		_, err = requester.Request(ctx, http.MethodGet, path, "", nil)
		require.NoError(t, err)
	}

	stats := requester.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(5), stats.Misses)
	assert.Equal(t, 5, upstream.requestCount())
}

func TestCachingRequester_EntityTTLForLinks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	upstream := newFakeRequester()
	threePages(upstream)

	requester, err := logo.NewCachingRequesterFromConfig(ctx, upstream, &logo.CacheConfig{
		TTL:       time.Hour,
		EntityTTL: map[string]time.Duration{"/items": time.Millisecond},
	})
	require.NoError(t, err)

	_, err = logo.Paginate[item](ctx, requester, "/items", limit2(), nil).All()
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = logo.Paginate[item](ctx, requester, "/items", limit2(), nil).All()
	require.NoError(t, err)

	assert.Zero(t, requester.Stats().Hits)
	assert.Equal(t, 6, upstream.requestCount())
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/items", logo.CacheKey("/items", ""))
	assert.Equal(t, "/items?limit=1", logo.CacheKey("/items", "limit=1"))
}
