package logo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Requester sends calls to the API on behalf of generated clients.
// Request returns the body of a 2xx response; every failure is one of the
// error kinds of this package.
type Requester interface {
	Request(ctx context.Context, method, path, rawQuery string, body interface{}) ([]byte, error)
	FollowLink(ctx context.Context, link Link) ([]byte, error)
}

// Client is a configured API client.
type Client interface {
	Requester

	// Entities returns the entity metadata registered at construction.
	Entities() *EntityRegistry
}

// ResourceClient is the CRUD surface every generated entity client exposes.
type ResourceClient[T any] interface {
	Get(ctx context.Context, id string, opts *QueryOptions) (*T, error)
	List(ctx context.Context, opts *QueryOptions) (*Envelope[T], error)
	Pages(ctx context.Context, opts *QueryOptions) *Cursor[T]
	Create(ctx context.Context, resource interface{}) (*T, error)
	Update(ctx context.Context, id string, resource interface{}) (*T, error)
	Delete(ctx context.Context, id string) error
}

// List fetches a single page from path.
func List[T any](ctx context.Context, r Requester, path string, opts *QueryOptions, fieldNameOf FieldNameFunc) (*Envelope[T], error) {
	if r == nil {
		return nil, ErrNilRequester
	}

	query, err := Assemble(opts, fieldNameOf)
	if err != nil {
		return nil, fmt.Errorf("building query for %s: %w", path, err)
	}

	body, err := r.Request(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}

	return decodeEnvelope[T](body, path)
}

// Get fetches a single resource from path. Only opts.Fields is sent; criteria,
// sort, limit and offset do not apply to a single resource.
func Get[T any](ctx context.Context, r Requester, path string, opts *QueryOptions) (*T, error) {
	if r == nil {
		return nil, ErrNilRequester
	}

	var fieldsOnly *QueryOptions
	if opts != nil {
		fieldsOnly = &QueryOptions{Fields: opts.Fields}
	}

	query, err := Assemble(fieldsOnly, nil)
	if err != nil {
		return nil, fmt.Errorf("building query for %s: %w", path, err)
	}

	body, err := r.Request(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", path, err)
	}

	var resource T

	err = json.Unmarshal(body, &resource)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", path, err)
	}

	return &resource, nil
}

func decodeEnvelope[T any](body []byte, source string) (*Envelope[T], error) {
	var envelope Envelope[T]

	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing %s list response: %w", source, err)
	}

	return &envelope, nil
}
