package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/salestax/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRateCache(t *testing.T) {
	c := NewInMemoryRateCache()
	defer c.Close()

	ctx := context.Background()

	_, ok, err := c.GetRate(ctx, "EUR:USD:2024-03-25")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetRate(ctx, "EUR:USD:2024-03-25", decimal.RequireFromString("1.08125"), time.Hour))

	rate, ok, err := c.GetRate(ctx, "EUR:USD:2024-03-25")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.08125")))
}

// unreachableRedis points at a closed local port so Ping fails fast
func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{Host: "127.0.0.1", Port: 1}
}

func TestFactory_FallsBackToMemory(t *testing.T) {
	f := NewFactory(unreachableRedis(), WithPingTimeout(200*time.Millisecond))
	defer f.Close()

	store, err := f.IdempotencyStore()
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)

	rates, err := f.RateCache()
	require.NoError(t, err)
	assert.IsType(t, &InMemoryRateCache{}, rates)
}

func TestFactory_NoFallback(t *testing.T) {
	f := NewFactory(unreachableRedis(),
		WithPingTimeout(200*time.Millisecond),
		WithInMemoryFallback(false),
	)
	defer f.Close()

	_, err := f.IdempotencyStore()
	assert.Error(t, err)

	_, err = f.RateCache()
	assert.Error(t, err)
}
