package reqid

import (
	"context"
	"math/rand/v2"

	"go.uber.org/zap"
)

// FieldKey is the log field and metadata key carrying the request ID.
const FieldKey = "graphql.request_id"

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent with a new random, non-zero request ID
// stored. It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, int64) {
	id := rand.Int64N(1<<63-1) + 1
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(key{}).(int64)
	return id, ok
}

// Field returns the request ID as a zap field.
func Field(id int64) zap.Field { return zap.Int64(FieldKey, id) }
