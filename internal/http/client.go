package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/logoapi/internal/constants"
	"github.com/fivetwenty-io/logoapi/pkg/logo"
)

// Request represents a call relative to the client's base URL.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Body     interface{}
	Headers  map[string]string
}

// Response represents a completed call.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Attempts   int
}

// Client is the HTTP client used to talk to the Logo API. It attaches
// credentials, bounds every attempt with a timeout, retries GET requests on
// transient failures and classifies errors. It keeps no state between calls.
type Client struct {
	baseURL      *url.URL
	base         string
	httpClient   *retryablehttp.Client
	credentials  logo.CredentialProvider
	logger       logo.Logger
	debug        bool
	userAgent    string
	interceptors *logo.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug output and transport warnings.
func WithLogger(logger logo.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds every transport attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithRetryConfig sets the total attempt budget for GET requests and the
// backoff bounds. maxAttempts of 1 disables retries.
func WithRetryConfig(maxAttempts int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		if maxAttempts < 1 {
			maxAttempts = 1
		}

		c.httpClient.RetryMax = maxAttempts - 1

		if waitMin > 0 {
			c.httpClient.RetryWaitMin = waitMin
		}

		if waitMax > 0 {
			c.httpClient.RetryWaitMax = waitMax
		}
	}
}

// WithInterceptors installs a chain run once per logical call.
func WithInterceptors(chain *logo.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		if transport != nil {
			c.httpClient.HTTPClient.Transport = transport
		}
	}
}

// NewClient creates a client for the API rooted at baseURL. A nil
// credentials provider sends requests without a credential.
func NewClient(baseURL string, credentials logo.CredentialProvider, opts ...Option) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, constants.ErrBaseURLRequired
	}

	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidBaseURL, baseURL)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{
		Timeout:   constants.DefaultHTTPTimeout,
		Transport: http.DefaultTransport,
	}
	retryClient.RetryMax = constants.DefaultMaxAttempts - 1
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.CheckRetry = checkRetry
	retryClient.Backoff = backoff
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:     parsed,
		base:        base,
		httpClient:  retryClient,
		credentials: credentials,
		logger:      logo.NoopLogger{},
		userAgent:   constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	retryClient.HTTPClient.CheckRedirect = client.checkRedirect
	retryClient.Logger = &leveledLogger{logger: client.logger}
	retryClient.RequestLogHook = client.requestLogHook

	return client, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path, rawQuery string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, RawQuery: rawQuery})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// Do performs req against the base URL. On a non-2xx status both the
// response and a *logo.HTTPError are returned.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	target := c.base + path
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	return c.execute(ctx, req.Method, target, path, req.RawQuery, req.Body, req.Headers)
}

// GetURL follows an absolute or relative link returned by the API. Links to
// a host other than the base URL's are refused so the credential never
// leaves the API host.
func (c *Client) GetURL(ctx context.Context, href string) (*Response, error) {
	if strings.TrimSpace(href) == "" {
		return nil, constants.ErrEmptyLink
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("parsing link %q: %w", href, err)
	}

	baseWithSlash := *c.baseURL
	baseWithSlash.Path = strings.TrimSuffix(baseWithSlash.Path, "/") + "/"
	resolved := baseWithSlash.ResolveReference(ref)

	if !c.sameOrigin(resolved) {
		return nil, fmt.Errorf("%w: %s", constants.ErrForeignLinkHost, resolved.Host)
	}

	return c.execute(ctx, http.MethodGet, resolved.String(), resolved.Path, resolved.RawQuery, nil, nil)
}

func (c *Client) sameOrigin(target *url.URL) bool {
	return strings.EqualFold(target.Host, c.baseURL.Host) && strings.EqualFold(target.Scheme, c.baseURL.Scheme)
}

// checkRedirect strips the credential from any redirect that leaves the
// base URL's scheme and host.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= constants.MaxRedirects {
		return fmt.Errorf("%w: stopped after %d redirects", constants.ErrTooManyRedirects, len(via))
	}

	if c.sameOrigin(req.URL) {
		return nil
	}

	req.Header.Del(constants.HeaderAuthorization)

	if state := stateFrom(req.Context()); state != nil && state.credentialHeader != "" {
		req.Header.Del(state.credentialHeader)
	}

	if c.debug {
		c.logger.Debug("HTTP Redirect", map[string]interface{}{
			"url":        req.URL.String(),
			"credential": "removed",
		})
	}

	return nil
}

// callState travels with the request context so the retry policy, log hook
// and redirect check can see the logical method, the credential header and
// the attempt count.
type callState struct {
	method           string
	credentialHeader string
	attempts         atomic.Int32
}

type callStateKey struct{}

func stateFrom(ctx context.Context) *callState {
	state, _ := ctx.Value(callStateKey{}).(*callState)

	return state
}

func (c *Client) execute(
	ctx context.Context,
	method, target, path, rawQuery string,
	body interface{},
	headers map[string]string,
) (*Response, error) {
	err := ctx.Err()
	if err != nil {
		return nil, logo.ContextError(err, method, path, 0)
	}

	bodyBytes, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	intercepted := &logo.Request{
		Method:   method,
		Path:     path,
		RawQuery: rawQuery,
		Headers:  make(http.Header),
		Body:     bodyBytes,
	}

	for key, value := range headers {
		intercepted.Headers.Set(key, value)
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, logo.ContextError(ctxErr, method, path, 0)
		}

		return nil, err
	}

	resp, callErr := c.send(ctx, intercepted, target)

	if !c.interceptors.Empty() {
		observed := &logo.Response{Error: callErr}
		if resp != nil {
			observed.StatusCode = resp.StatusCode
			observed.Headers = resp.Headers
			observed.Body = resp.Body
			observed.Attempts = resp.Attempts
		} else {
			observed.Attempts = attemptsOf(callErr)
		}

		err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, observed)
		if err != nil && callErr == nil {
			return resp, err
		}
	}

	return resp, callErr
}

func (c *Client) send(ctx context.Context, req *logo.Request, target string) (*Response, error) {
	state := &callState{method: req.Method}
	ctx = context.WithValue(ctx, callStateKey{}, state)

	var rawBody interface{}
	if req.Body != nil {
		rawBody = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.credentials != nil {
		name, value, err := c.credentials.Header(ctx)
		if err != nil {
			return nil, fmt.Errorf("obtaining credential: %w", err)
		}

		httpReq.Header.Set(name, value)
		state.credentialHeader = name
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    target,
			"body":   truncate(req.Body),
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	attempts := int(state.attempts.Load())

	if err != nil {
		return nil, c.transportError(ctx, req, attempts, err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(ctx, req, attempts, fmt.Errorf("reading response body: %w", err))
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
		Attempts:   attempts,
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":   req.Method,
			"url":      target,
			"status":   httpResp.StatusCode,
			"attempts": attempts,
			"duration": time.Since(start).String(),
			"body":     truncate(respBody),
		})
	}

	if httpResp.StatusCode < constants.HTTPStatusOK || httpResp.StatusCode >= constants.HTTPStatusMultipleChoices {
		return resp, logo.NewHTTPError(req.Method, req.Path, httpResp.StatusCode, httpResp.Header, respBody)
	}

	return resp, nil
}

// transportError classifies a failure that produced no response.
func (c *Client) transportError(ctx context.Context, req *logo.Request, attempts int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return logo.ContextError(ctxErr, req.Method, req.Path, attempts)
	}

	kind := logo.KindNetwork
	if isTimeout(err) {
		kind = logo.KindTimeout
	}

	return &logo.TransportError{
		Kind:     kind,
		Method:   req.Method,
		Path:     req.Path,
		Attempts: attempts,
		Err:      err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

func attemptsOf(err error) int {
	transportErr := &logo.TransportError{}
	if errors.As(err, &transportErr) {
		return transportErr.Attempts
	}

	return 0
}

// checkRetry retries GET requests on transport failures and on 502, 503 and
// 504. Every other method is attempted exactly once.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	state := stateFrom(ctx)
	if state == nil || state.method != http.MethodGet {
		return false, nil
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	default:
		return false, nil
	}
}

// backoff doubles the wait per retry starting at waitMin and never exceeds
// waitMax. A Retry-After hint on a 503 is honored within the same cap.
func backoff(waitMin, waitMax time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil && resp.StatusCode == http.StatusServiceUnavailable {
		if hint := logo.ParseRetryAfter(resp.Header.Get(constants.HeaderRetryAfter), time.Now()); hint > 0 {
			return min(hint, waitMax)
		}
	}

	wait := float64(waitMin) * math.Pow(constants.ExponentialBackoffBase, float64(attemptNum))
	if wait > float64(waitMax) || math.IsInf(wait, 0) {
		return waitMax
	}

	return time.Duration(wait)
}

func (c *Client) requestLogHook(_ retryablehttp.Logger, req *http.Request, attempt int) {
	state := stateFrom(req.Context())
	if state != nil {
		state.attempts.Store(int32(attempt + 1)) //nolint:gosec // bounded by RetryMax
	}

	if c.debug && attempt > 0 {
		c.logger.Debug("HTTP Retry", map[string]interface{}{
			"method":  req.Method,
			"url":     req.URL.String(),
			"attempt": attempt + 1,
		})
	}
}

func encodeBody(body interface{}) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case json.RawMessage:
		return typed, nil
	case string:
		return []byte(typed), nil
	case io.Reader:
		var buf bytes.Buffer

		_, err := buf.ReadFrom(typed)
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}

		return buf.Bytes(), nil
	default:
		return json.Marshal(body)
	}
}

func truncate(body []byte) string {
	if len(body) > constants.MaxLoggedBodySize {
		return string(body[:constants.MaxLoggedBodySize]) + "...(truncated)"
	}

	return string(body)
}

// leveledLogger routes retryablehttp warnings and errors to the client
// logger. Its debug chatter duplicates our own request logs and is dropped.
type leveledLogger struct {
	logger logo.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keyValueFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keyValueFields(keysAndValues))
}

func (l *leveledLogger) Info(string, ...interface{}) {}

func (l *leveledLogger) Debug(string, ...interface{}) {}

func keyValueFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
