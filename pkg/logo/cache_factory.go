package logo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/fivetwenty-io/logoapi/internal/constants"
)

// CacheType selects the backend holding cached GET responses.
type CacheType string

// Cache backends.
const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeNATS   CacheType = "nats"
	CacheTypeRedis  CacheType = "redis"
	CacheTypeNone   CacheType = "none"
)

// Cache construction errors.
var (
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrRedisConfigRequired   = errors.New("redis configuration required for Redis cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// CacheConfig describes how list and single-resource responses are cached.
// Zero values fall back to the package defaults.
type CacheConfig struct {
	Backend CacheType

	// MaxEntries bounds the in-process cache, including the front tier of a
	// tiered setup.
	MaxEntries int

	NATS  *NATSKVConfig
	Redis *RedisConfig

	// Tiered keeps a memory cache in front of a NATS or Redis backend.
	Tiered bool

	// TTL is the lifetime of a cached response.
	TTL time.Duration

	// EntityTTL overrides TTL for responses under an entity path, keyed by
	// Entity.Path.
	EntityTTL map[string]time.Duration

	// MaxValueSize skips caching bodies larger than this many bytes.
	MaxValueSize int
}

func (c *CacheConfig) withDefaults() CacheConfig {
	out := CacheConfig{}
	if c != nil {
		out = *c
	}

	if out.Backend == "" {
		out.Backend = CacheTypeMemory
	}

	if out.MaxEntries <= 0 {
		out.MaxEntries = constants.DefaultCacheSize
	}

	if out.TTL <= 0 {
		out.TTL = constants.DefaultCacheTTL
	}

	if out.MaxValueSize <= 0 {
		out.MaxValueSize = constants.MaxCacheValueSize
	}

	return out
}

// NewCache opens the backend described by config. A nil config yields a
// default-sized memory cache.
func NewCache(ctx context.Context, config *CacheConfig) (Cache, error) {
	cfg := config.withDefaults()

	var remote Cache

	switch cfg.Backend {
	case CacheTypeMemory:
		return NewMemoryCache(cfg.MaxEntries), nil
	case CacheTypeNone:
		return NewNoOpCache(), nil
	case CacheTypeNATS:
		if cfg.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		natsConfig := *cfg.NATS
		if natsConfig.TTL <= 0 {
			natsConfig.TTL = maxTTL(cfg)
		}

		cache, err := NewNATSKVCache(&natsConfig)
		if err != nil {
			return nil, err
		}

		remote = cache
	case CacheTypeRedis:
		if cfg.Redis == nil {
			return nil, ErrRedisConfigRequired
		}

		cache, err := NewRedisCacheFromConfig(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}

		remote = cache
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, cfg.Backend)
	}

	if cfg.Tiered {
		return NewCacheChain(NewMemoryCache(cfg.MaxEntries), remote), nil
	}

	return remote, nil
}

// NewCachingRequesterFromConfig opens the backend described by config and
// wraps next with it.
func NewCachingRequesterFromConfig(ctx context.Context, next Requester, config *CacheConfig) (*CachingRequester, error) {
	cfg := config.withDefaults()

	cache, err := NewCache(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("opening response cache: %w", err)
	}

	requester := NewCachingRequester(next, cache, cfg.TTL)
	requester.maxValueSize = cfg.MaxValueSize
	requester.entityTTL = cfg.EntityTTL

	return requester, nil
}

// maxTTL is the longest lifetime any entry can get, used as the bucket age
// of a NATS KV backend.
func maxTTL(config CacheConfig) time.Duration {
	longest := config.TTL
	for _, ttl := range config.EntityTTL {
		longest = max(longest, ttl)
	}

	return longest
}

// ttlFor picks the entity override whose path owns target, or fallback.
// target is either a request path or a followed link.
func ttlFor(overrides map[string]time.Duration, target string, fallback time.Duration) time.Duration {
	if len(overrides) == 0 {
		return fallback
	}

	path := target
	if parsed, err := url.Parse(target); err == nil {
		path = parsed.Path
	}

	best, ttl := "", fallback

	for prefix, override := range overrides {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix == "" || len(prefix) <= len(best) {
			continue
		}

		if strings.HasSuffix(path, prefix) || strings.Contains(path, prefix+"/") {
			best, ttl = prefix, override
		}
	}

	return ttl
}

// NoOpCache caches nothing.
type NoOpCache struct{}

// NewNoOpCache creates a cache that never hits.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always misses.
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set discards entry.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

// Delete is a no-op.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear is a no-op.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has always returns false.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}

// CacheBuilder assembles a CacheConfig fluently.
//
//	requester, err := logo.NewCacheBuilder().
//		Redis(&logo.RedisConfig{Addr: "localhost:6379"}).
//		Tiered(500).
//		TTL(time.Minute).
//		ForEntity(items, 10*time.Minute).
//		Wrap(ctx, client)
type CacheBuilder struct {
	config CacheConfig
}

// NewCacheBuilder starts from a default memory cache.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{config: CacheConfig{Backend: CacheTypeMemory}}
}

// Memory selects an in-process cache holding at most maxEntries responses.
func (b *CacheBuilder) Memory(maxEntries int) *CacheBuilder {
	b.config.Backend = CacheTypeMemory
	b.config.MaxEntries = maxEntries

	return b
}

// NATS selects a JetStream key-value backend.
func (b *CacheBuilder) NATS(config *NATSKVConfig) *CacheBuilder {
	b.config.Backend = CacheTypeNATS
	b.config.NATS = config

	return b
}

// Redis selects a Redis backend.
func (b *CacheBuilder) Redis(config *RedisConfig) *CacheBuilder {
	b.config.Backend = CacheTypeRedis
	b.config.Redis = config

	return b
}

// Disabled turns caching off while keeping the decorator in place.
func (b *CacheBuilder) Disabled() *CacheBuilder {
	b.config.Backend = CacheTypeNone

	return b
}

// Backend selects a backend by name, as read from configuration.
func (b *CacheBuilder) Backend(backend CacheType) *CacheBuilder {
	b.config.Backend = backend

	return b
}

// Tiered puts a memory cache of maxEntries in front of the remote backend.
func (b *CacheBuilder) Tiered(maxEntries int) *CacheBuilder {
	b.config.Tiered = true
	b.config.MaxEntries = maxEntries

	return b
}

// TTL sets the default response lifetime.
func (b *CacheBuilder) TTL(ttl time.Duration) *CacheBuilder {
	b.config.TTL = ttl

	return b
}

// ForEntity overrides the lifetime of responses for one entity.
func (b *CacheBuilder) ForEntity(entity Entity, ttl time.Duration) *CacheBuilder {
	if b.config.EntityTTL == nil {
		b.config.EntityTTL = make(map[string]time.Duration)
	}

	b.config.EntityTTL[entity.Path] = ttl

	return b
}

// MaxValueSize skips caching bodies larger than size bytes.
func (b *CacheBuilder) MaxValueSize(size int) *CacheBuilder {
	b.config.MaxValueSize = size

	return b
}

// Config returns the configuration built so far.
func (b *CacheBuilder) Config() *CacheConfig {
	config := b.config

	return &config
}

// Build opens the configured backend.
func (b *CacheBuilder) Build(ctx context.Context) (Cache, error) {
	return NewCache(ctx, b.Config())
}

// Wrap opens the configured backend and decorates next with it.
func (b *CacheBuilder) Wrap(ctx context.Context, next Requester) (*CachingRequester, error) {
	return NewCachingRequesterFromConfig(ctx, next, b.Config())
}

// CacheChain reads through tiers in order and writes to all of them.
type CacheChain struct {
	caches []Cache
}

// NewCacheChain creates a chain, fastest tier first.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{caches: caches}
}

// Get returns the first hit and copies it into the faster tiers.
func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for i, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, faster := range c.caches[:i] {
			_ = faster.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, ErrKeyNotFoundInAnyCache
}

// Set writes entry to every tier. Failing tiers are reported together.
func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(cache Cache) error { return cache.Set(ctx, key, entry) })
}

// Delete removes key from every tier.
func (c *CacheChain) Delete(ctx context.Context, key string) error {
	return c.each(func(cache Cache) error { return cache.Delete(ctx, key) })
}

// Clear empties every tier.
func (c *CacheChain) Clear(ctx context.Context) error {
	return c.each(func(cache Cache) error { return cache.Clear(ctx) })
}

// Has reports whether any tier holds key.
func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}

func (c *CacheChain) each(op func(Cache) error) error {
	var result *multierror.Error

	for _, cache := range c.caches {
		err := op(cache)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
