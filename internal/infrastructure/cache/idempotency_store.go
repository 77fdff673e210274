package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultIdempotencyKeyPrefix namespaces completed-task keys in Redis
const DefaultIdempotencyKeyPrefix = "salestax:task:done:"

// RedisIdempotencyStore implements IdempotencyStore using Redis.
// Instances sharing the Redis database share idempotency state.
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on an existing Redis client
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultIdempotencyKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records the key with SET NX, so of several workers racing on
// the same redelivered task exactly one sees true
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark task %s: %w", key, err)
	}
	return ok, nil
}

// IsProcessed reports whether the key is recorded
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check task %s: %w", key, err)
	}
	return n > 0, nil
}

// Close is a no-op; the shared client is closed by its owner
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

// InMemoryIdempotencyStore implements IdempotencyStore in process memory.
// State is not shared across instances.
type InMemoryIdempotencyStore struct {
	store *MemoryStore
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{store: NewMemoryStore(5 * time.Minute)}
}

// MarkProcessed records the key unless it is already present
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.store.SetNX(key, "1", ttl), nil
}

// IsProcessed reports whether the key is recorded and not expired
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	_, ok := s.store.Get(key)
	return ok, nil
}

// Close stops the background sweeper
func (s *InMemoryIdempotencyStore) Close() error {
	return s.store.Close()
}

var (
	_ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
	_ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
)
