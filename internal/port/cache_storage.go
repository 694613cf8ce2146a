package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

// CacheStorage manages named response stores. Eviction happens only at
// whole-store granularity through Delete.
type CacheStorage interface {
	// OpenOrCreate returns the store with the given name, creating it if absent
	OpenOrCreate(ctx context.Context, name string) (CacheStore, error)

	// ListNames returns the names of all existing stores
	ListNames(ctx context.Context) ([]string, error)

	// Delete removes a store and all its entries, returns false if it did not exist
	Delete(ctx context.Context, name string) (bool, error)
}

type CacheStore interface {
	Name() string

	// Get returns the stored response for key, ok is false on a miss
	Get(ctx context.Context, key string) (*domain.CachedResponse, bool, error)

	// Put stores a response under key, replacing any previous entry
	Put(ctx context.Context, key string, resp *domain.CachedResponse) error

	// PutAll stores every entry or none of them
	PutAll(ctx context.Context, entries map[string]*domain.CachedResponse) error
}
