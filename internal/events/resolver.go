package events

// ResolverError is emitted once for every error a logged resolver produced.
// Err is the annotated error; Hint names the field, e.g. "Query.user".
type ResolverError struct {
	Hint string
	Err  error
}
