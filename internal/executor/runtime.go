package executor

import (
	"context"

	"github.com/hanpama/resolverlog/internal/resolver"
)

// Runtime is the host integration surface used by the Executor: field
// resolution, depth-wise batching, abstract type resolution and leaf
// serialization.
//
// At each depth the Executor drains synchronous fields through ResolveSync,
// then calls BatchResolveAsync once with every async task collected at that
// depth. The next depth does not begin until the batch has returned and its
// results are completed. ResolveSync is never invoked for fields marked
// async.
//
// Errors returned from any method become located GraphQL errors. When the
// field's type is Non-Null, the null propagates to the nearest nullable
// ancestor.
//
// Implementations must be safe for concurrent use by different operations
// and must not mutate source or args.
type Runtime interface {
	// ResolveSync resolves a field declared sync. info carries the parent
	// type, field name, response path and declared return type. Return
	// (nil, nil) for a GraphQL null.
	ResolveSync(ctx context.Context, info resolver.Info, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one depth of async fields.
	//
	// It must return exactly one result per task, in task order, with
	// independent errors per element.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType returns the concrete object type name of a value whose
	// declared type is the interface or union abstractType.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue coerces a scalar or enum value to a JSON-safe Go
	// value. Enums serialize to their name.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// AsyncResolveTask is one async field instance queued for a batch.
type AsyncResolveTask struct {
	// Info describes the field instance, including its response path.
	Info resolver.Info
	// Source is the parent object value (nil for root fields).
	Source any
	// Args are the field arguments, coerced per the schema.
	Args map[string]any
}

// AsyncResolveResult is the outcome of one AsyncResolveTask.
type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error fails only this element of the batch.
	Error error
}
