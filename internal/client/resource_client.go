package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/logoapi/pkg/logo"
)

// ResourceClient provides the CRUD surface of one entity.
type ResourceClient[T any] struct {
	requester logo.Requester
	entity    logo.Entity
}

// NewResourceClient binds requester to entity.
func NewResourceClient[T any](requester logo.Requester, entity logo.Entity) *ResourceClient[T] {
	return &ResourceClient[T]{
		requester: requester,
		entity:    entity,
	}
}

// Entity returns the bound entity metadata.
func (c *ResourceClient[T]) Entity() logo.Entity {
	return c.entity
}

// Get retrieves a single resource.
func (c *ResourceClient[T]) Get(ctx context.Context, id string, opts *logo.QueryOptions) (*T, error) {
	if id == "" {
		return nil, logo.ErrEmptyResourceID
	}

	resource, err := logo.Get[T](ctx, c.requester, c.entity.ResourcePath(id), opts)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", c.entity.Name, id, err)
	}

	return resource, nil
}

// List retrieves a single page.
func (c *ResourceClient[T]) List(ctx context.Context, opts *logo.QueryOptions) (*logo.Envelope[T], error) {
	page, err := logo.List[T](ctx, c.requester, c.entity.Path, opts, c.entity.FieldNameOf)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.entity.Name, err)
	}

	return page, nil
}

// Pages returns a cursor over every page matching opts.
func (c *ResourceClient[T]) Pages(ctx context.Context, opts *logo.QueryOptions) *logo.Cursor[T] {
	return logo.Paginate[T](ctx, c.requester, c.entity.Path, opts, c.entity.FieldNameOf)
}

// Create posts a new resource.
func (c *ResourceClient[T]) Create(ctx context.Context, resource interface{}) (*T, error) {
	body, err := c.requester.Request(ctx, http.MethodPost, c.entity.Path, "", resource)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", c.entity.Name, err)
	}

	return c.decode(body, "create")
}

// Update replaces an existing resource.
func (c *ResourceClient[T]) Update(ctx context.Context, id string, resource interface{}) (*T, error) {
	if id == "" {
		return nil, logo.ErrEmptyResourceID
	}

	body, err := c.requester.Request(ctx, http.MethodPut, c.entity.ResourcePath(id), "", resource)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", c.entity.Name, id, err)
	}

	return c.decode(body, "update")
}

// Delete removes a resource.
func (c *ResourceClient[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return logo.ErrEmptyResourceID
	}

	_, err := c.requester.Request(ctx, http.MethodDelete, c.entity.ResourcePath(id), "", nil)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", c.entity.Name, id, err)
	}

	return nil
}

func (c *ResourceClient[T]) decode(body []byte, operation string) (*T, error) {
	var resource T

	if len(body) == 0 {
		return &resource, nil
	}

	err := json.Unmarshal(body, &resource)
	if err != nil {
		return nil, fmt.Errorf("parsing %s %s response: %w", c.entity.Name, operation, err)
	}

	return &resource, nil
}

var _ logo.ResourceClient[struct{}] = (*ResourceClient[struct{}])(nil)
