package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DefaultRateKeyPrefix namespaces exchange-rate keys in Redis
const DefaultRateKeyPrefix = "salestax:rate:"

// RateCache caches exchange rates by an opaque key such as "EUR:USD:2024-03-25"
type RateCache interface {
	GetRate(ctx context.Context, key string) (decimal.Decimal, bool, error)
	SetRate(ctx context.Context, key string, rate decimal.Decimal, ttl time.Duration) error
}

// RedisRateCache stores rates as decimal strings in Redis
type RedisRateCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisRateCache creates a rate cache on an existing Redis client
func NewRedisRateCache(client redis.UniversalClient, keyPrefix string) *RedisRateCache {
	if keyPrefix == "" {
		keyPrefix = DefaultRateKeyPrefix
	}
	return &RedisRateCache{client: client, keyPrefix: keyPrefix}
}

// GetRate returns the cached rate; a miss is not an error
func (c *RedisRateCache) GetRate(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to read cached rate: %w", err)
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("corrupt cached rate %q: %w", raw, err)
	}
	return rate, true, nil
}

// SetRate caches the rate for ttl
func (c *RedisRateCache) SetRate(ctx context.Context, key string, rate decimal.Decimal, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, rate.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache rate: %w", err)
	}
	return nil
}

// InMemoryRateCache keeps rates in process memory
type InMemoryRateCache struct {
	store *MemoryStore
}

// NewInMemoryRateCache creates a new in-memory rate cache
func NewInMemoryRateCache() *InMemoryRateCache {
	return &InMemoryRateCache{store: NewMemoryStore(10 * time.Minute)}
}

// GetRate returns the cached rate
func (c *InMemoryRateCache) GetRate(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	raw, ok := c.store.Get(key)
	if !ok {
		return decimal.Zero, false, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	return rate, true, nil
}

// SetRate caches the rate for ttl
func (c *InMemoryRateCache) SetRate(ctx context.Context, key string, rate decimal.Decimal, ttl time.Duration) error {
	c.store.Set(key, rate.String(), ttl)
	return nil
}

// Close stops the background sweeper
func (c *InMemoryRateCache) Close() error {
	return c.store.Close()
}

var (
	_ RateCache = (*RedisRateCache)(nil)
	_ RateCache = (*InMemoryRateCache)(nil)
)
