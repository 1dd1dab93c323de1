package logo

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fivetwenty-io/logoapi/internal/constants"
)

// CacheStats counts cache activity.
type CacheStats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// GetHitRate returns hits / (hits + misses), or zero when idle.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CachingRequester serves repeated GET requests from a Cache. Entries are
// keyed by "path?query", which is stable because Assemble is deterministic.
// Other methods pass straight through.
type CachingRequester struct {
	next         Requester
	cache        Cache
	ttl          time.Duration
	entityTTL    map[string]time.Duration
	maxValueSize int

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewCachingRequester wraps next. A non-positive ttl uses the default.
func NewCachingRequester(next Requester, cache Cache, ttl time.Duration) *CachingRequester {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}

	if cache == nil {
		cache = NewNoOpCache()
	}

	return &CachingRequester{
		next:         next,
		cache:        cache,
		ttl:          ttl,
		maxValueSize: constants.MaxCacheValueSize,
	}
}

// CacheKey returns the key a GET of path with rawQuery is stored under.
func CacheKey(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}

	return path + "?" + rawQuery
}

// Request implements Requester.
func (r *CachingRequester) Request(ctx context.Context, method, path, rawQuery string, body interface{}) ([]byte, error) {
	if method != http.MethodGet {
		return r.next.Request(ctx, method, path, rawQuery, body)
	}

	return r.cached(ctx, CacheKey(path, rawQuery), path, func() ([]byte, error) {
		return r.next.Request(ctx, method, path, rawQuery, body)
	})
}

// FollowLink implements Requester.
func (r *CachingRequester) FollowLink(ctx context.Context, link Link) ([]byte, error) {
	return r.cached(ctx, link.Href, link.Href, func() ([]byte, error) {
		return r.next.FollowLink(ctx, link)
	})
}

// Invalidate drops the cached response for path and rawQuery.
func (r *CachingRequester) Invalidate(ctx context.Context, path, rawQuery string) error {
	return r.cache.Delete(ctx, CacheKey(path, rawQuery))
}

// Stats returns a snapshot of the counters.
func (r *CachingRequester) Stats() CacheStats {
	return CacheStats{
		Hits:   r.hits.Load(),
		Misses: r.misses.Load(),
		Sets:   r.sets.Load(),
	}
}

func (r *CachingRequester) cached(ctx context.Context, key, target string, fetch func() ([]byte, error)) ([]byte, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, constants.CacheOperationTimeout)
	entry, err := r.cache.Get(lookupCtx, key)

	cancel()

	if err == nil {
		r.hits.Add(1)

		return entry.Data, nil
	}

	r.misses.Add(1)

	data, err := fetch()
	if err != nil {
		return nil, err
	}

	if len(data) <= r.maxValueSize {
		storeCtx, cancel := context.WithTimeout(ctx, constants.CacheOperationTimeout)
		defer cancel()

		err = r.cache.Set(storeCtx, key, &CacheEntry{Data: data, ExpiresAt: time.Now().Add(ttlFor(r.entityTTL, target, r.ttl))})
		if err == nil {
			r.sets.Add(1)
		}
	}

	return data, nil
}
