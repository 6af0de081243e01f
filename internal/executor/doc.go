// Package executor implements a breadth-first, batch-friendly GraphQL
// executor with explicit runtime hooks for synchronous resolution,
// depth-wise batching of asynchronous work, abstract type resolution and
// leaf serialization.
//
// # Execution model
//
// Fields are classified by schema.Field.Async. Sync fields are resolved
// through Runtime.ResolveSync and completed immediately; descending through
// sync fields does not add depth. Async fields discovered while expanding a
// depth are queued and resolved together by a single call to
// Runtime.BatchResolveAsync. Objects completed from a batch expose their own
// async fields to the next batch. For a query whose async depth is d,
// BatchResolveAsync is called exactly d times.
//
// Every resolution receives a resolver.Info with the parent type, field
// name, response path and declared return type, so runtimes can annotate
// what they log or trace.
//
// # Errors and Non-Null
//
// Errors become GraphQLError values located by response path, and
// execution continues with partial results. A null in a Non-Null position
// nulls the nearest nullable ancestor; a root Non-Null field is written as
// null. Queued async tasks below a nulled path are dropped before the next
// batch.
//
// # Fragments
//
// Inline fragments and fragment spreads apply when their type condition is
// the object type itself or an interface or union it belongs to. @skip and
// @include are honored on fields, fragments and fragment definitions.
package executor
