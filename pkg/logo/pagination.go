package logo

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/fivetwenty-io/logoapi/internal/constants"
)

// PageFunc fetches the first page of a traversal.
type PageFunc[T any] func(ctx context.Context) (*Envelope[T], error)

// LinkFunc fetches the page a link points at.
type LinkFunc[T any] func(ctx context.Context, link Link) (*Envelope[T], error)

// Cursor walks a paginated listing one page at a time by following next
// links. A cursor is not restartable and is not safe for concurrent use.
type Cursor[T any] struct {
	ctx     context.Context //nolint:containedctx // the cursor lives for one traversal
	first   PageFunc[T]
	follow  LinkFunc[T]
	next    *Link
	started bool
	done    bool
	fetched int
	visited map[string]struct{}
}

// NewCursor creates a cursor that fetches the first page with first and
// every following page with follow.
func NewCursor[T any](ctx context.Context, first PageFunc[T], follow LinkFunc[T]) *Cursor[T] {
	return &Cursor[T]{
		ctx:     ctx,
		first:   first,
		follow:  follow,
		visited: make(map[string]struct{}),
	}
}

// Paginate creates a cursor over path with the given query.
func Paginate[T any](ctx context.Context, r Requester, path string, opts *QueryOptions, fieldNameOf FieldNameFunc) *Cursor[T] {
	first := func(ctx context.Context) (*Envelope[T], error) {
		return List[T](ctx, r, path, opts, fieldNameOf)
	}

	follow := func(ctx context.Context, link Link) (*Envelope[T], error) {
		body, err := r.FollowLink(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("following %s: %w", link.Href, err)
		}

		return decodeEnvelope[T](body, link.Href)
	}

	return NewCursor(ctx, first, follow)
}

// HasNext reports whether another call to Next may yield a page.
func (c *Cursor[T]) HasNext() bool {
	return !c.done
}

// Fetched returns the number of pages yielded so far.
func (c *Cursor[T]) Fetched() int {
	return c.fetched
}

// Next fetches the next page. It returns ErrNoMorePages once the last page
// has been yielded. A failed fetch is returned once and ends the traversal.
func (c *Cursor[T]) Next() (*Envelope[T], error) {
	if c.done {
		return nil, ErrNoMorePages
	}

	page, err := c.fetch()
	if err != nil {
		c.done = true

		return nil, err
	}

	c.fetched++

	if page.HasNext() {
		c.next = page.Next
	} else {
		c.done = true
	}

	return page, nil
}

func (c *Cursor[T]) fetch() (*Envelope[T], error) {
	err := c.ctx.Err()
	if err != nil {
		return nil, ContextError(err, "GET", c.currentHref(), 0)
	}

	var page *Envelope[T]

	if !c.started {
		c.started = true
		page, err = c.first(c.ctx)
	} else {
		href := c.next.Href
		if _, seen := c.visited[href]; seen {
			return nil, fmt.Errorf("%w: %s", ErrPaginationLoop, href)
		}

		c.visited[href] = struct{}{}
		page, err = c.follow(c.ctx, *c.next)
	}

	if err != nil {
		return nil, err
	}

	if page == nil {
		return nil, fmt.Errorf("%w: empty page", ErrInconsistentPage)
	}

	return page, nil
}

func (c *Cursor[T]) currentHref() string {
	if c.next == nil {
		return ""
	}

	return c.next.Href
}

// Pages returns the remaining pages as an iterator. Iteration stops after
// the first error.
func (c *Cursor[T]) Pages() iter.Seq2[*Envelope[T], error] {
	return func(yield func(*Envelope[T], error) bool) {
		for c.HasNext() {
			page, err := c.Next()
			if errors.Is(err, ErrNoMorePages) {
				return
			}

			if !yield(page, err) || err != nil {
				return
			}
		}
	}
}

// All collects the items of every remaining page.
func (c *Cursor[T]) All() ([]T, error) {
	var items []T

	for page, err := range c.Pages() {
		if err != nil {
			return items, err
		}

		items = append(items, page.Items...)
	}

	return items, nil
}

// ForEach calls fn for every item of every remaining page. An error from fn
// stops the traversal and is returned.
func (c *Cursor[T]) ForEach(fn func(T) error) error {
	for page, err := range c.Pages() {
		if err != nil {
			return err
		}

		for _, item := range page.Items {
			err = fn(item)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// PaginationOptions limits a multi-page fetch.
type PaginationOptions struct {
	// PageSize sets the limit parameter when the query does not.
	PageSize int
	// MaxPages stops the traversal after this many pages; zero means the
	// package default.
	MaxPages int
}

// DefaultPaginationOptions returns the default pagination options.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		PageSize: constants.DefaultPageSize,
		MaxPages: constants.MaxPages,
	}
}

// PageResult is one element of StreamPages.
type PageResult[T any] struct {
	Page  *Envelope[T]
	Items []T
	Err   error
}

func paginateWithOptions[T any](ctx context.Context, r Requester, path string, query *QueryOptions, fieldNameOf FieldNameFunc, options *PaginationOptions) (*Cursor[T], int) {
	if options == nil {
		options = DefaultPaginationOptions()
	}

	if options.PageSize > 0 && (query == nil || query.Limit == nil) {
		query = query.Clone().WithLimit(options.PageSize)
	}

	maxPages := options.MaxPages
	if maxPages <= 0 {
		maxPages = constants.MaxPages
	}

	return Paginate[T](ctx, r, path, query, fieldNameOf), maxPages
}

// FetchAllPages collects the items of every page of path, up to
// options.MaxPages pages.
func FetchAllPages[T any](ctx context.Context, r Requester, path string, query *QueryOptions, fieldNameOf FieldNameFunc, options *PaginationOptions) ([]T, error) {
	cursor, maxPages := paginateWithOptions[T](ctx, r, path, query, fieldNameOf, options)

	var items []T

	for page, err := range cursor.Pages() {
		if err != nil {
			return items, fmt.Errorf("fetching page %d: %w", cursor.Fetched()+1, err)
		}

		items = append(items, page.Items...)

		if cursor.Fetched() >= maxPages {
			break
		}
	}

	return items, nil
}

// StreamPages fetches pages in a goroutine and delivers them on the returned
// channel, which is closed after the last page or the first error.
func StreamPages[T any](ctx context.Context, r Requester, path string, query *QueryOptions, fieldNameOf FieldNameFunc, options *PaginationOptions) <-chan PageResult[T] {
	results := make(chan PageResult[T], constants.BufferSize)

	go func() {
		defer close(results)

		cursor, maxPages := paginateWithOptions[T](ctx, r, path, query, fieldNameOf, options)

		for page, err := range cursor.Pages() {
			result := PageResult[T]{Page: page, Err: err}
			if page != nil {
				result.Items = page.Items
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return
			}

			if err != nil || cursor.Fetched() >= maxPages {
				return
			}
		}
	}()

	return results
}
