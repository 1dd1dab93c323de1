// Package logo holds the query compilation and request surface of the Logo
// REST API client.
//
// A list query is described by QueryOptions: a projection, a Criteria map
// from logical field names to FieldValue conditions, an optional SortSpec
// and limit/offset. Assemble turns it into a deterministic query string:
//
//	opts := logo.NewQueryOptions().
//	  WithFields("CODE", "TITLE").
//	  Where("price", logo.Between(100, 500)).
//	  Where("status", logo.In(1, 2, 3)).
//	  WithSort(logo.SortByFields([]string{"TITLE", "CODE"}, logo.SortDesc)).
//	  WithLimit(10)
//
//	query, err := logo.Assemble(opts, entity.FieldNameOf)
//
// compiles the filter
//
//	(PRICE gte 100 and PRICE lte 500) and (STATUS eq 1 or STATUS eq 2 or STATUS eq 3)
//
// Conditions on different fields are joined with "and" in ascending key
// order; any group with more than one clause is parenthesized. Invalid
// descriptions fail with a *CriteriaError before anything is sent.
//
// Requests go through a Requester. Paginate returns a Cursor that follows
// the envelope's next links until the last page or the first error.
// CachingRequester, BatchExecutor and the interceptors in this package are
// optional layers over the same interface.
package logo
