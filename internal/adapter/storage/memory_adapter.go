package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// MemoryCacheStorage is the in-process cache storage. Each store is an LRU
// created with zero size and zero TTL, so entries are never evicted; whole
// stores are dropped through Delete only.
type MemoryCacheStorage struct {
	mu     sync.Mutex
	stores map[string]*expirable.LRU[string, *domain.CachedResponse]
}

func NewMemoryCacheStorage() *MemoryCacheStorage {
	return &MemoryCacheStorage{
		stores: make(map[string]*expirable.LRU[string, *domain.CachedResponse]),
	}
}

func (m *MemoryCacheStorage) OpenOrCreate(ctx context.Context, name string) (port.CacheStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.stores[name]
	if !ok {
		entries = expirable.NewLRU[string, *domain.CachedResponse](0, nil, 0)
		m.stores[name] = entries
	}
	return &memoryCacheStore{parent: m, name: name, entries: entries}, nil
}

func (m *MemoryCacheStorage) ListNames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.stores))
	for name := range m.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryCacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.stores[name]
	if !ok {
		return false, nil
	}
	entries.Purge()
	delete(m.stores, name)
	return true, nil
}

type memoryCacheStore struct {
	parent  *MemoryCacheStorage
	name    string
	entries *expirable.LRU[string, *domain.CachedResponse]
}

func (s *memoryCacheStore) Name() string { return s.name }

func (s *memoryCacheStore) Get(ctx context.Context, key string) (*domain.CachedResponse, bool, error) {
	resp, ok := s.entries.Get(key)
	return resp, ok, nil
}

func (s *memoryCacheStore) Put(ctx context.Context, key string, resp *domain.CachedResponse) error {
	return s.PutAll(ctx, map[string]*domain.CachedResponse{key: resp})
}

// PutAll holds the storage lock so a concurrent Delete cannot interleave
// with a partial write.
func (s *memoryCacheStore) PutAll(ctx context.Context, entries map[string]*domain.CachedResponse) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	// a handle to a deleted store re-registers it, as a reopen would
	target, ok := s.parent.stores[s.name]
	if !ok {
		target = s.entries
		s.parent.stores[s.name] = target
	}
	for key, resp := range entries {
		target.Add(key, resp)
	}
	return nil
}
