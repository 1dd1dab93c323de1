package logo

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryOptions describes a list query. Nil or empty members are omitted
// from the query string.
type QueryOptions struct {
	Fields   []string
	Sort     *SortSpec
	Limit    *int
	Offset   *int
	Criteria Criteria
}

// NewQueryOptions creates an empty QueryOptions.
func NewQueryOptions() *QueryOptions {
	return &QueryOptions{}
}

// WithFields restricts the projection to the given fields.
func (q *QueryOptions) WithFields(fields ...string) *QueryOptions {
	q.Fields = append(q.Fields, fields...)

	return q
}

// WithSort sets the sort specification.
func (q *QueryOptions) WithSort(sort *SortSpec) *QueryOptions {
	q.Sort = sort

	return q
}

// WithLimit sets the page size.
func (q *QueryOptions) WithLimit(limit int) *QueryOptions {
	q.Limit = &limit

	return q
}

// WithOffset sets the index of the first item.
func (q *QueryOptions) WithOffset(offset int) *QueryOptions {
	q.Offset = &offset

	return q
}

// WithCriteria replaces the criteria.
func (q *QueryOptions) WithCriteria(criteria Criteria) *QueryOptions {
	q.Criteria = criteria

	return q
}

// Where adds a condition on a single field.
func (q *QueryOptions) Where(key string, value FieldValue) *QueryOptions {
	if q.Criteria == nil {
		q.Criteria = make(Criteria)
	}

	q.Criteria[key] = value

	return q
}

// Clone returns a copy that can be modified independently.
func (q *QueryOptions) Clone() *QueryOptions {
	if q == nil {
		return NewQueryOptions()
	}

	clone := &QueryOptions{
		Fields: append([]string(nil), q.Fields...),
		Sort:   q.Sort,
	}

	if q.Limit != nil {
		limit := *q.Limit
		clone.Limit = &limit
	}

	if q.Offset != nil {
		offset := *q.Offset
		clone.Offset = &offset
	}

	if q.Criteria != nil {
		clone.Criteria = make(Criteria, len(q.Criteria))
		for key, value := range q.Criteria {
			clone.Criteria[key] = value
		}
	}

	return clone
}

// Assemble renders opts as a query string without the leading "?". Parameters
// appear in the order fields, filter, sort, limit, offset and each value is
// percent-encoded on its own. The result is "" when nothing is present.
func Assemble(opts *QueryOptions, fieldNameOf FieldNameFunc) (string, error) {
	if opts == nil {
		return "", nil
	}

	params := make([]string, 0, 5)

	if len(opts.Fields) > 0 {
		params = append(params, param("fields", strings.Join(opts.Fields, ",")))
	}

	filter, err := CompileCriteria(opts.Criteria, fieldNameOf)
	if err != nil {
		return "", err
	}

	if filter != "" {
		params = append(params, param("filter", filter))
	}

	if opts.Sort != nil {
		sort, err := CompileSort(opts.Sort)
		if err != nil {
			return "", err
		}

		params = append(params, param("sort", sort))
	}

	if opts.Limit != nil {
		if *opts.Limit < 0 {
			return "", malformed("limit", "must not be negative, got %d", *opts.Limit)
		}

		params = append(params, param("limit", strconv.Itoa(*opts.Limit)))
	}

	if opts.Offset != nil {
		if *opts.Offset < 0 {
			return "", malformed("offset", "must not be negative, got %d", *opts.Offset)
		}

		params = append(params, param("offset", strconv.Itoa(*opts.Offset)))
	}

	return strings.Join(params, "&"), nil
}

func param(name, value string) string {
	return name + "=" + escape(value)
}

// escape percent-encodes value. Spaces become %20 rather than "+".
func escape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
