// Package docstore is the document persistence layer: named collections of
// id-addressed documents with point reads, equality queries, partial updates
// and change subscriptions. Backends: in-memory, Firestore and Postgres JSONB.
package docstore

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("docstore: document not found")
	ErrInvalidCollection = errors.New("docstore: invalid collection path")
	ErrAlreadyExists     = errors.New("docstore: document already exists")
)

// Document is one stored record. ID is the source of truth for identity even
// when Data carries its own id field.
type Document struct {
	ID   string
	Data map[string]any
}

// Filter is an equality match on a top-level field.
type Filter struct {
	Field string
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// WatchFunc receives the full current snapshot of a collection on every change.
// A non-nil error means the subscription failed; docs is nil in that case.
type WatchFunc func(docs []Document, err error)

// Store is implemented by every backend.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	// Create writes a new document; ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, collection, id string, data map[string]any) error
	// Set overwrites the whole document, creating it when missing.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges fields into an existing document; ErrNotFound when missing.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the document; deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Watch delivers snapshots until ctx is canceled. It returns once the
	// subscription is registered.
	Watch(ctx context.Context, collection string, fn WatchFunc) error
	Close() error
}

// Path joins segments into a collection path, e.g. Path("users", uid, "cart").
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

func validCollection(collection string) bool {
	if strings.TrimSpace(collection) == "" {
		return false
	}
	parts := strings.Split(collection, "/")
	if len(parts)%2 == 0 {
		return false
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return false
		}
	}
	return true
}
