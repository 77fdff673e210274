package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory builds the Redis-backed caches, falling back to in-memory
// implementations when Redis is unreachable and fallback is allowed.
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	pingTimeout           time.Duration

	client    *redis.Client
	connected bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithPingTimeout bounds the Redis connectivity check
func WithPingTimeout(d time.Duration) FactoryOption {
	return func(f *Factory) {
		f.pingTimeout = d
	}
}

// NewFactory creates a new cache factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		pingTimeout:           5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// connect dials Redis once and remembers the outcome
func (f *Factory) connect() error {
	if f.client != nil {
		if f.connected {
			return nil
		}
		return fmt.Errorf("redis at %s:%d is unavailable", f.redisConfig.Host, f.redisConfig.Port)
	}

	f.client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", f.redisConfig.Host, f.redisConfig.Port),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), f.pingTimeout)
	defer cancel()
	if err := f.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	f.connected = true
	return nil
}

func (f *Factory) fallback(component string, err error) error {
	if !f.allowInMemoryFallback {
		return fmt.Errorf("redis required for %s but unavailable: %w", component, err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory "+component+". "+
		"State will not be shared between instances.",
		zap.Error(err),
	)
	return nil
}

// IdempotencyStore returns the Redis store, or an in-memory one on fallback
func (f *Factory) IdempotencyStore() (shared.IdempotencyStore, error) {
	err := f.connect()
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(f.client, ""), nil
	}
	if err := f.fallback("idempotency store", err); err != nil {
		return nil, err
	}
	return NewInMemoryIdempotencyStore(), nil
}

// RateCache returns the Redis rate cache, or an in-memory one on fallback
func (f *Factory) RateCache() (RateCache, error) {
	err := f.connect()
	if err == nil {
		f.logger.Info("using Redis rate cache")
		return NewRedisRateCache(f.client, ""), nil
	}
	if err := f.fallback("rate cache", err); err != nil {
		return nil, err
	}
	return NewInMemoryRateCache(), nil
}

// Ping checks Redis when the factory is connected to it.
// An in-memory fallback has nothing to check.
func (f *Factory) Ping(ctx context.Context) error {
	if f.client == nil || !f.connected {
		return nil
	}
	return f.client.Ping(ctx).Err()
}

// Close releases the Redis client, if one was created
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
