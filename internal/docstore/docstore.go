package docstore

import (
	"context"
)

// Document is a single structured document addressed by collection + id.
type Document map[string]any

// Filter operators supported by Query.
const (
	OpEqual       = "=="
	OpGreaterThan = ">"
	OpLessThan    = "<"
)

// Condition is one field filter in a query.
type Condition struct {
	Field string
	Op    string
	Value any
}

// Query describes a collection scan with filter, ordering, and limit.
type Query struct {
	Filter  []Condition
	OrderBy string
	Desc    bool
	Limit   int // 0 means no limit
}

// Store is the remote document store capability. Implementations must return
// pkg/errors.ErrNotFound (wrapped or sentinel) from Get when the document
// does not exist.
type Store interface {
	// Get retrieves a document by collection and id.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Set writes a document, overwriting any existing one.
	Set(ctx context.Context, collection, id string, doc Document) error

	// Update applies a partial update. Field values may be plain values or
	// the ArrayUnion / ArrayRemove / ServerTimestamp operator sentinels.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Query scans a collection with filter, ordering, and limit.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
}

// arrayUnionOp appends values to an array field, skipping values already
// present (deep-equal on the JSON form).
type arrayUnionOp struct{ values []any }

// arrayRemoveOp removes all occurrences of the given values from an array field.
type arrayRemoveOp struct{ values []any }

// serverTimestampOp is replaced by the store's current time at write.
type serverTimestampOp struct{}

// ArrayUnion returns an update operator that appends the given values to an
// array field, de-duplicated.
func ArrayUnion(values ...any) any { return arrayUnionOp{values: values} }

// ArrayRemove returns an update operator that removes the given values from
// an array field.
func ArrayRemove(values ...any) any { return arrayRemoveOp{values: values} }

// ServerTimestamp returns a sentinel replaced with the store's time at write.
func ServerTimestamp() any { return serverTimestampOp{} }

// UnionValues extracts the values of an ArrayUnion operator.
// The second return is false when v is not an ArrayUnion.
func UnionValues(v any) ([]any, bool) {
	op, ok := v.(arrayUnionOp)
	if !ok {
		return nil, false
	}
	return op.values, true
}

// RemoveValues extracts the values of an ArrayRemove operator.
func RemoveValues(v any) ([]any, bool) {
	op, ok := v.(arrayRemoveOp)
	if !ok {
		return nil, false
	}
	return op.values, true
}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestampOp)
	return ok
}
