package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/logoapi/internal/auth"
	"github.com/fivetwenty-io/logoapi/internal/constants"
	"github.com/fivetwenty-io/logoapi/internal/http"
	"github.com/fivetwenty-io/logoapi/pkg/logo"
)

// Client implements logo.Client on top of the retrying HTTP client.
type Client struct {
	httpClient *http.Client
	entities   *logo.EntityRegistry
	logger     logo.Logger
}

// createCredentials picks the credential provider for config.
func createCredentials(config *logo.Config) logo.CredentialProvider {
	if config.Credentials != nil {
		return config.Credentials
	}

	if config.APIKey != "" {
		return auth.NewAPIKeyProvider(config.APIKey, config.APIKeyHeader)
	}

	return nil // No authentication
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *logo.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.Timeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.Timeout))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	maxAttempts := constants.DefaultMaxAttempts
	if config.MaxAttempts > 0 {
		maxAttempts = config.MaxAttempts
	}

	retryWaitMin := constants.DefaultRetryWaitMin
	if config.RetryWaitMin > 0 {
		retryWaitMin = config.RetryWaitMin
	}

	retryWaitMax := max(constants.DefaultRetryWaitMax, retryWaitMin)
	if config.RetryWaitMax > 0 {
		retryWaitMax = config.RetryWaitMax
	}

	httpOpts = append(httpOpts, http.WithRetryConfig(maxAttempts, retryWaitMin, retryWaitMax))

	return httpOpts
}

// New creates a client from config. The config is not retained; later
// changes to it have no effect.
func New(ctx context.Context, config *logo.Config, extra ...http.Option) (*Client, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	err = config.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	httpOpts := append(createHTTPClientOptions(config), extra...)

	httpClient, err := http.NewClient(config.BaseURL, createCredentials(config), httpOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	entities, err := logo.NewEntityRegistry(config.Entities...)
	if err != nil {
		return nil, fmt.Errorf("registering entities: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = logo.NoopLogger{}
	}

	client := &Client{
		httpClient: httpClient,
		entities:   entities,
		logger:     logger,
	}

	logger.Debug("Logo API client created", map[string]interface{}{
		"base_url": httpClient.BaseURL(),
		"entities": len(config.Entities),
	})

	return client, nil
}

// Request implements logo.Requester.
func (c *Client) Request(ctx context.Context, method, path, rawQuery string, body interface{}) ([]byte, error) {
	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:   method,
		Path:     path,
		RawQuery: rawQuery,
		Body:     body,
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// FollowLink implements logo.Requester.
func (c *Client) FollowLink(ctx context.Context, link logo.Link) ([]byte, error) {
	resp, err := c.httpClient.GetURL(ctx, link.Href)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// Entities implements logo.Client.
func (c *Client) Entities() *logo.EntityRegistry {
	return c.entities
}

// HTTP returns the underlying HTTP client.
func (c *Client) HTTP() *http.Client {
	return c.httpClient
}

var _ logo.Client = (*Client)(nil)
