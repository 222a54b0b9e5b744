package syncengine

import (
	"context"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
)

// RemoteList persists an authenticated user's list in the remote document store.
type RemoteList interface {
	// Load returns the user's entries in stored order; an absent document
	// yields an empty list, not an error.
	Load(ctx context.Context, userID string) ([]domain.Entry, error)

	// Save overwrites the user's list with the given entries.
	Save(ctx context.Context, userID string, entries []domain.Entry) error

	// Add appends a single entry via an array-union update.
	Add(ctx context.Context, userID string, e domain.Entry) error

	// Remove deletes the entry with the given product id via an array-remove update.
	Remove(ctx context.Context, userID string, productID string) error

	// Clear deletes the user's list document.
	Clear(ctx context.Context, userID string) error
}

// LocalList persists the anonymous device-local list.
type LocalList interface {
	Load() ([]domain.Entry, error)
	Save(entries []domain.Entry) error
	Clear() error
}

// EventLog appends capped analytics entries; satisfied by localcache.Cache.
type EventLog interface {
	Append(key string, v any, maxLen int) error
}

// ListEventPublisher publishes list mutations as domain events; satisfied by
// event.Producer.
type ListEventPublisher interface {
	PublishListUpdated(ctx context.Context, collection domain.Collection, userID string, entries []domain.Entry) error
}
