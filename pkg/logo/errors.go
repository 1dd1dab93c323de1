package logo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorKind classifies every failure the package can surface.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMalformedCriteria
	KindTimeout
	KindNetwork
	KindHTTP
	KindUnauthorized
	KindForbidden
	KindRateLimited
	KindCancelled
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindMalformedCriteria:
		return "malformed_criteria"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network_failure"
	case KindHTTP:
		return "http_error"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Static errors for err113 compliance. Every concrete error returned by the
// package matches exactly one of these through errors.Is (HTTP subtypes also
// match ErrHTTP).
var (
	ErrMalformedCriteria = errors.New("malformed criteria")
	ErrTimeout           = errors.New("request timed out")
	ErrNetwork           = errors.New("network failure")
	ErrHTTP              = errors.New("http error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrCancelled         = errors.New("request cancelled")
)

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrBaseURLRequired    = errors.New("base URL is required")
	ErrInvalidConfigValue = errors.New("invalid config value")
	ErrNoMorePages        = errors.New("no more pages")
	ErrPaginationLoop     = errors.New("pagination link repeats an already visited page")
	ErrCacheMiss          = errors.New("key not found")
	ErrCacheEntryExpired  = errors.New("entry expired")
	ErrEntityNotFound     = errors.New("entity not registered")
	ErrEntityExists       = errors.New("entity already registered")
	ErrEmptyResourceID    = errors.New("resource id is required")
	ErrNilRequester       = errors.New("requester is required")
	ErrInconsistentPage   = errors.New("page envelope is inconsistent")
	ErrUnsupportedMethod  = errors.New("unsupported batch method")
	ErrInterceptorRejects = errors.New("interceptor rejected request")
)

// CriteriaError reports a query description the compilers refuse to render.
// It never reaches the wire.
type CriteriaError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *CriteriaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed criteria: %s", e.Reason)
	}

	return fmt.Sprintf("malformed criteria for %q: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrMalformedCriteria.
func (e *CriteriaError) Is(target error) bool {
	return target == ErrMalformedCriteria
}

func malformed(field, format string, args ...interface{}) error {
	return &CriteriaError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// HTTPError is returned for every non-2xx response.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
	// Details is the decoded server error body when it was a JSON object.
	Details map[string]interface{}
	// RetryAfter is the server's hint on 429 responses, zero when absent.
	RetryAfter time.Duration
}

// NewHTTPError builds an HTTPError and decodes body when it holds JSON.
func NewHTTPError(method, path string, statusCode int, header http.Header, body []byte) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: statusCode,
		Method:     method,
		Path:       path,
		Body:       body,
	}

	if len(body) > 0 {
		var details map[string]interface{}
		if json.Unmarshal(body, &details) == nil {
			httpErr.Details = details
		}
	}

	if header != nil {
		httpErr.RetryAfter = ParseRetryAfter(header.Get("Retry-After"), time.Now())
	}

	return httpErr
}

// Kind returns the classification of the response status.
func (e *HTTPError) Kind() ErrorKind {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindHTTP
	}
}

// Message extracts a human readable message from the server body.
func (e *HTTPError) Message() string {
	for _, key := range []string{"Message", "message", "error_description", "ExceptionMessage", "error"} {
		if value, ok := e.Details[key].(string); ok && value != "" {
			return value
		}
	}

	return strings.TrimSpace(string(e.Body))
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if detail := e.Message(); detail != "" {
		msg += ": " + detail
	}

	return msg
}

// Is matches ErrHTTP for every status plus the subtype sentinel.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrHTTP:
		return true
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// TransportError covers failures without a usable response: timeouts,
// connection failures and cancellation.
type TransportError struct {
	Kind     ErrorKind
	Method   string
	Path     string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s after %d attempt(s): %v", e.Method, e.Path, e.Kind, e.Attempts, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind.
func (e *TransportError) Is(target error) bool {
	switch e.Kind {
	case KindTimeout:
		return target == ErrTimeout
	case KindNetwork:
		return target == ErrNetwork
	case KindCancelled:
		return target == ErrCancelled
	default:
		return false
	}
}

// ContextError converts a context failure into a TransportError: deadline
// expiry is a timeout, anything else a cancellation.
func ContextError(err error, method, path string, attempts int) *TransportError {
	kind := KindCancelled
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}

	return &TransportError{Kind: kind, Method: method, Path: path, Attempts: attempts, Err: err}
}

// KindOf classifies any error produced by this module.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, ErrMalformedCriteria) {
		return KindMalformedCriteria
	}

	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.Kind()
	}

	transportErr := &TransportError{}
	if errors.As(err, &transportErr) {
		return transportErr.Kind
	}

	return KindUnknown
}

// IsNotFound checks if the error is a 404 response.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden checks if the error is a 403 response.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsRateLimited checks if the error is a 429 response.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if the request ran out of time.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled checks if the caller aborted the request.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// ParseRetryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form. It returns zero for empty or unparsable values.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}

		return time.Duration(seconds) * time.Second
	}

	when, err := http.ParseTime(value)
	if err != nil {
		return 0
	}

	if delay := when.Sub(now); delay > 0 {
		return delay
	}

	return 0
}
