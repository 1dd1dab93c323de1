package logo_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/logoapi/pkg/logo"
)

func entry(data string, ttl time.Duration) *logo.CacheEntry {
	return &logo.CacheEntry{Data: []byte(data), ExpiresAt: time.Now().Add(ttl)}
}

func TestMemoryCache_GetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := logo.NewMemoryCache(10)

	_, err := cache.Get(ctx, "missing")
	require.ErrorIs(t, err, logo.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", entry("v", time.Minute)))
	assert.True(t, cache.Has(ctx, "k"))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got.Data))

	require.NoError(t, cache.Set(ctx, "k", entry("v2", time.Minute)))

	got, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got.Data))
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Delete(ctx, "k"))
	assert.False(t, cache.Has(ctx, "k"))
}

func TestMemoryCache_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := logo.NewMemoryCache(10)

	require.NoError(t, cache.Set(ctx, "old", entry("x", -time.Second)))
	require.NoError(t, cache.Set(ctx, "new", entry("y", time.Hour)))
	assert.False(t, cache.Has(ctx, "old"))

	cache.Cleanup()
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Set(ctx, "old", entry("x", -time.Second)))

	_, err := cache.Get(ctx, "old")
	require.ErrorIs(t, err, logo.ErrCacheEntryExpired)
	assert.Equal(t, 1, cache.Len())
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := logo.NewMemoryCache(2)

	require.NoError(t, cache.Set(ctx, "a", entry("1", time.Hour)))
	require.NoError(t, cache.Set(ctx, "b", entry("2", time.Hour)))

	_, err := cache.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "c", entry("3", time.Hour)))

	assert.True(t, cache.Has(ctx, "a"))
	assert.False(t, cache.Has(ctx, "b"))
	assert.True(t, cache.Has(ctx, "c"))

	require.NoError(t, cache.Clear(ctx))
	assert.Zero(t, cache.Len())
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := logo.NewNoOpCache()

	require.NoError(t, cache.Set(ctx, "k", entry("v", time.Minute)))

	_, err := cache.Get(ctx, "k")
	require.ErrorIs(t, err, logo.ErrCacheDisabled)
	assert.False(t, cache.Has(ctx, "k"))
}

type failingCache struct {
	*logo.NoOpCache
}

var errBackendDown = errors.New("backend down")

func (failingCache) Set(context.Context, string, *logo.CacheEntry) error { return errBackendDown }
func (failingCache) Delete(context.Context, string) error                { return errBackendDown }

func TestCacheChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l1 := logo.NewMemoryCache(10)
	l2 := logo.NewMemoryCache(10)
	chain := logo.NewCacheChain(l1, l2)

	require.NoError(t, l2.Set(ctx, "k", entry("v", time.Hour)))
	assert.False(t, l1.Has(ctx, "k"))

	got, err := chain.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got.Data))
	assert.True(t, l1.Has(ctx, "k"))

	_, err = chain.Get(ctx, "other")
	require.ErrorIs(t, err, logo.ErrKeyNotFoundInAnyCache)

	require.NoError(t, chain.Delete(ctx, "k"))
	assert.False(t, chain.Has(ctx, "k"))

	broken := logo.NewCacheChain(l1, failingCache{logo.NewNoOpCache()}, failingCache{logo.NewNoOpCache()})
	err = broken.Set(ctx, "k", entry("v", time.Hour))
	require.ErrorIs(t, err, errBackendDown)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.True(t, l1.Has(ctx, "k"))
}

func TestCacheBuilder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cache, err := logo.NewCacheBuilder().Memory(1).Build(ctx)
	require.NoError(t, err)
	require.IsType(t, &logo.MemoryCache{}, cache)

	memory, _ := cache.(*logo.MemoryCache)
	require.NoError(t, memory.Set(ctx, "a", entry("1", time.Hour)))
	require.NoError(t, memory.Set(ctx, "b", entry("2", time.Hour)))
	assert.Equal(t, 1, memory.Len())

	cache, err = logo.NewCacheBuilder().Disabled().Build(ctx)
	require.NoError(t, err)
	assert.IsType(t, &logo.NoOpCache{}, cache)

	_, err = logo.NewCacheBuilder().Backend(logo.CacheTypeNATS).Build(ctx)
	require.ErrorIs(t, err, logo.ErrNATSConfigRequired)

	_, err = logo.NewCacheBuilder().Backend(logo.CacheTypeRedis).Build(ctx)
	require.ErrorIs(t, err, logo.ErrRedisConfigRequired)

	_, err = logo.NewCacheBuilder().Backend("disk").Build(ctx)
	require.ErrorIs(t, err, logo.ErrUnsupportedCacheType)

	_, err = logo.NewCacheBuilder().Backend("disk").Wrap(ctx, newFakeRequester())
	require.ErrorIs(t, err, logo.ErrUnsupportedCacheType)

	cache, err = logo.NewCache(ctx, nil)
	require.NoError(t, err)
	assert.IsType(t, &logo.MemoryCache{}, cache)

	items := logo.Entity{Name: "items", Path: "/items"}
	config := logo.NewCacheBuilder().TTL(time.Minute).ForEntity(items, time.Hour).MaxValueSize(64).Config()
	assert.Equal(t, logo.CacheTypeMemory, config.Backend)
	assert.Equal(t, time.Minute, config.TTL)
	assert.Equal(t, map[string]time.Duration{"/items": time.Hour}, config.EntityTTL)
	assert.Equal(t, 64, config.MaxValueSize)
}

// backendContract exercises any Cache implementation against a live store.
func backendContract(t *testing.T, cache logo.Cache) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := fmt.Sprintf("/items?filter=CODE eq '%d'", time.Now().UnixNano())

	_, err := cache.Get(ctx, key)
	require.ErrorIs(t, err, logo.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, key, entry(`{"items":[]}`, time.Minute)))
	assert.True(t, cache.Has(ctx, key))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(got.Data))

	require.NoError(t, cache.Delete(ctx, key))
	assert.False(t, cache.Has(ctx, key))

	require.NoError(t, cache.Set(ctx, key, entry("x", time.Minute)))
	require.NoError(t, cache.Clear(ctx))
	assert.False(t, cache.Has(ctx, key))
}

func TestNATSKVCache(t *testing.T) {
	t.Parallel()

	url := os.Getenv("LOGO_TEST_NATS_URL")
	if url == "" {
		t.Skip("LOGO_TEST_NATS_URL not set")
	}

	cache, err := logo.NewNATSKVCache(&logo.NATSKVConfig{URL: url, Bucket: "logo_test", TTL: time.Minute})
	require.NoError(t, err)

	defer func() { _ = cache.Close() }()

	backendContract(t, cache)
}

func TestRedisCache(t *testing.T) {
	t.Parallel()

	addr := os.Getenv("LOGO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LOGO_TEST_REDIS_ADDR not set")
	}

	cache, err := logo.NewRedisCacheFromConfig(context.Background(), &logo.RedisConfig{Addr: addr, Prefix: "logo-test:"})
	require.NoError(t, err)

	backendContract(t, cache)
}
