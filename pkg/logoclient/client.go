// Package logoclient provides the main entry point for creating Logo REST API clients.
package logoclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/logoapi/internal/client"
	"github.com/fivetwenty-io/logoapi/pkg/logo"
)

// New creates a new Logo REST API client.
func New(ctx context.Context, config *logo.Config) (logo.Client, error) {
	if config == nil {
		return nil, logo.ErrConfigRequired
	}

	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, logo.ErrBaseURLRequired
	}

	normalized := *config
	normalized.BaseURL = NormalizeBaseURL(config.BaseURL)

	// Use the internal client implementation
	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewFromFile loads configuration with logo.LoadConfig and creates a client.
// Entities are not part of the file format; pass them here.
func NewFromFile(ctx context.Context, path string, entities ...logo.Entity) (logo.Client, error) {
	config, err := logo.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	config.Entities = entities

	return New(ctx, config)
}

// NormalizeBaseURL trims surrounding whitespace and a trailing slash and adds
// "https://" when no scheme is present.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	return base
}

// Resource returns a typed client for entity.
func Resource[T any](c logo.Client, entity logo.Entity) logo.ResourceClient[T] {
	return client.NewResourceClient[T](c, entity)
}

// ResourceFor returns a typed client for the entity registered under name.
func ResourceFor[T any](c logo.Client, name string) (logo.ResourceClient[T], error) {
	entity, err := c.Entities().Lookup(name)
	if err != nil {
		return nil, err
	}

	return client.NewResourceClient[T](c, entity), nil
}
