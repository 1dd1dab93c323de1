package logo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/pool"

	"github.com/fivetwenty-io/logoapi/internal/constants"
)

// BatchOperationType selects what a BatchOperation does.
type BatchOperationType string

// Batch operation types.
const (
	BatchGet    BatchOperationType = "get"
	BatchList   BatchOperationType = "list"
	BatchCreate BatchOperationType = "create"
	BatchUpdate BatchOperationType = "update"
	BatchDelete BatchOperationType = "delete"
)

// BatchOperation represents a single operation in a batch.
type BatchOperation struct {
	ID         string
	Type       BatchOperationType
	Entity     Entity
	ResourceID string
	Query      *QueryOptions
	Data       interface{}
	Callback   func(result *BatchResult)
}

// BatchResult represents the result of a batch operation. Data holds the raw
// response body.
type BatchResult struct {
	ID       string
	Success  bool
	Data     []byte
	Error    error
	Duration time.Duration
}

// BatchResults are in the same order as the submitted operations.
type BatchResults []BatchResult

// Err aggregates the errors of every failed operation, or returns nil.
func (r BatchResults) Err() error {
	var result *multierror.Error

	for _, item := range r {
		if item.Error != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", item.ID, item.Error))
		}
	}

	return result.ErrorOrNil()
}

// Failed returns the IDs of failed operations.
func (r BatchResults) Failed() []string {
	var ids []string

	for _, item := range r {
		if !item.Success {
			ids = append(ids, item.ID)
		}
	}

	return ids
}

// BatchExecutor executes independent operations concurrently.
type BatchExecutor struct {
	requester   Requester
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(requester Requester, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		requester:   requester,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the timeout for each operation.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations with at most concurrency in flight.
// Failures are reported per result; use BatchResults.Err to aggregate them.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) BatchResults {
	results := make(BatchResults, len(operations))
	workers := pool.New().WithMaxGoroutines(b.concurrency)

	for index, operation := range operations {
		workers.Go(func() {
			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}
		})
	}

	workers.Wait()

	return results
}

func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	if b.requester == nil {
		result.Error = ErrNilRequester

		return result
	}

	method, path, fieldNameOf, err := operation.target()
	if err != nil {
		result.Error = err

		return result
	}

	query, err := Assemble(operation.Query, fieldNameOf)
	if err != nil {
		result.Error = err

		return result
	}

	result.Data, result.Error = b.requester.Request(ctx, method, path, query, operation.Data)
	result.Success = result.Error == nil

	return result
}

// target resolves the HTTP method and path of the operation.
func (o BatchOperation) target() (string, string, FieldNameFunc, error) {
	needsID := func() error {
		if o.ResourceID == "" {
			return fmt.Errorf("%w: %s %s", ErrEmptyResourceID, o.Type, o.Entity.Name)
		}

		return nil
	}

	switch o.Type {
	case BatchList:
		return http.MethodGet, o.Entity.Path, o.Entity.FieldNameOf, nil
	case BatchCreate:
		return http.MethodPost, o.Entity.Path, nil, nil
	case BatchGet, BatchUpdate, BatchDelete:
		err := needsID()
		if err != nil {
			return "", "", nil, err
		}

		method := map[BatchOperationType]string{
			BatchGet:    http.MethodGet,
			BatchUpdate: http.MethodPut,
			BatchDelete: http.MethodDelete,
		}[o.Type]

		return method, o.Entity.ResourcePath(o.ResourceID), nil, nil
	default:
		return "", "", nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, o.Type)
	}
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		operations: make([]BatchOperation, 0),
	}
}

// AddGet adds a single-resource fetch.
func (b *BatchBuilder) AddGet(id string, entity Entity, resourceID string) *BatchBuilder {
	return b.AddOperation(BatchOperation{ID: id, Type: BatchGet, Entity: entity, ResourceID: resourceID})
}

// AddList adds a one-page list query.
func (b *BatchBuilder) AddList(id string, entity Entity, query *QueryOptions) *BatchBuilder {
	return b.AddOperation(BatchOperation{ID: id, Type: BatchList, Entity: entity, Query: query})
}

// AddCreate adds a creation.
func (b *BatchBuilder) AddCreate(id string, entity Entity, data interface{}) *BatchBuilder {
	return b.AddOperation(BatchOperation{ID: id, Type: BatchCreate, Entity: entity, Data: data})
}

// AddUpdate adds an update.
func (b *BatchBuilder) AddUpdate(id string, entity Entity, resourceID string, data interface{}) *BatchBuilder {
	return b.AddOperation(BatchOperation{ID: id, Type: BatchUpdate, Entity: entity, ResourceID: resourceID, Data: data})
}

// AddDelete adds a deletion.
func (b *BatchBuilder) AddDelete(id string, entity Entity, resourceID string) *BatchBuilder {
	return b.AddOperation(BatchOperation{ID: id, Type: BatchDelete, Entity: entity, ResourceID: resourceID})
}

// AddOperation adds a custom operation.
func (b *BatchBuilder) AddOperation(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the built operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}
