package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	cacheNamesKey       = "cachestore:names"
	cacheStoreKeyPrefix = "cachestore:"
)

// deleteStoreScript drops the entry hash and the name in one step so a
// concurrent ListNames never sees a name without its entries or vice versa.
var deleteStoreScript = redis.NewScript(`
local removed = redis.call('SREM', KEYS[1], ARGV[1])
redis.call('DEL', KEYS[2])
return removed
`)

// RedisCacheStorage keeps each named store as a Redis hash keyed by request
// identity, plus a set of all store names.
type RedisCacheStorage struct {
	client *redis.Client
}

func NewRedisCacheStorage(client *redis.Client) *RedisCacheStorage {
	return &RedisCacheStorage{client: client}
}

func storeKey(name string) string {
	return cacheStoreKeyPrefix + "store:" + name
}

func (r *RedisCacheStorage) OpenOrCreate(ctx context.Context, name string) (port.CacheStore, error) {
	if err := r.client.SAdd(ctx, cacheNamesKey, name).Err(); err != nil {
		return nil, fmt.Errorf("register cache store %s: %w", name, err)
	}
	return &redisCacheStore{client: r.client, name: name}, nil
}

func (r *RedisCacheStorage) ListNames(ctx context.Context) ([]string, error) {
	names, err := r.client.SMembers(ctx, cacheNamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list cache stores: %w", err)
	}
	return names, nil
}

func (r *RedisCacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	removed, err := deleteStoreScript.Run(ctx, r.client, []string{cacheNamesKey, storeKey(name)}, name).Int()
	if err != nil {
		return false, err
	}
	return removed == 1, nil
}

type redisCacheStore struct {
	client *redis.Client
	name   string
}

func (s *redisCacheStore) Name() string { return s.name }

func (s *redisCacheStore) Get(ctx context.Context, key string) (*domain.CachedResponse, bool, error) {
	raw, err := s.client.HGet(ctx, storeKey(s.name), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp domain.CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("decode cached response: %w", err)
	}
	return &resp, true, nil
}

func (s *redisCacheStore) Put(ctx context.Context, key string, resp *domain.CachedResponse) error {
	return s.PutAll(ctx, map[string]*domain.CachedResponse{key: resp})
}

// PutAll writes every entry inside one MULTI/EXEC.
func (s *redisCacheStore) PutAll(ctx context.Context, entries map[string]*domain.CachedResponse) error {
	if len(entries) == 0 {
		return nil
	}

	values := make([]any, 0, len(entries)*2)
	for key, resp := range entries {
		raw, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encode cached response: %w", err)
		}
		values = append(values, key, raw)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, cacheNamesKey, s.name)
		pipe.HSet(ctx, storeKey(s.name), values...)
		return nil
	})
	return err
}
