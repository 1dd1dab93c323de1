package constants

import "time"

// DefaultHTTPTimeout is the default per-attempt timeout for API requests.
const DefaultHTTPTimeout = 30 * time.Second

// Retry limits.
const (
	// DefaultMaxAttempts is the total number of attempts (first try included)
	// for idempotent requests.
	DefaultMaxAttempts = 3

	// DefaultRetryWaitMin is the first backoff delay.
	DefaultRetryWaitMin = 250 * time.Millisecond

	// DefaultRetryWaitMax caps the backoff delay.
	DefaultRetryWaitMax = 5 * time.Second

	// ExponentialBackoffBase is the base for exponential backoff.
	ExponentialBackoffBase = 2
)

// Concurrency and batching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 5

	// BufferSize is the default buffer size for page streams.
	BufferSize = 10
)

// HTTP status codes commonly used.
const (
	// HTTPStatusOK represents a successful HTTP response.
	HTTPStatusOK = 200

	// HTTPStatusMultipleChoices is the first non-success status.
	HTTPStatusMultipleChoices = 300
)

// Pagination limits.
const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 50

	// MaxPages is used to stop runaway traversals in FetchAllPages.
	MaxPages = 1000
)

// Cache sizes and lifetimes.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024

	// CacheOperationTimeout bounds a single remote cache call.
	CacheOperationTimeout = 200 * time.Millisecond
)

// Header names.
const (
	// HeaderAuthorization carries the bearer credential.
	HeaderAuthorization = "Authorization"

	// HeaderRequestID carries a per-call identifier.
	HeaderRequestID = "X-Request-ID"

	// HeaderRetryAfter is read from 429 and 503 responses.
	HeaderRetryAfter = "Retry-After"

	// DefaultUserAgent is sent when the config does not override it.
	DefaultUserAgent = "logoapi-go"
)

// Log field limits.
const (
	// MaxLoggedBodySize truncates bodies written to debug logs.
	MaxLoggedBodySize = 2048

	// MaxRedirects bounds the redirects followed by a single attempt.
	MaxRedirects = 10
)
