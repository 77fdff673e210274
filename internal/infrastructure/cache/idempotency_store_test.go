package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testIdempotencyStore checks behavior every IdempotencyStore shares.
// Keys are random so a shared Redis can be reused across runs.
func testIdempotencyStore(t *testing.T, store shared.IdempotencyStore) {
	ctx := context.Background()
	key := func() string { return "salestax.CommitTransactionRequested:" + uuid.NewString() }

	t.Run("first mark wins", func(t *testing.T) {
		k := key()
		first, err := store.MarkProcessed(ctx, k, time.Hour)
		require.NoError(t, err)
		second, err := store.MarkProcessed(ctx, k, time.Hour)
		require.NoError(t, err)

		assert.True(t, first)
		assert.False(t, second, "redelivered task is a duplicate")
	})

	t.Run("unknown key is not processed", func(t *testing.T) {
		done, err := store.IsProcessed(ctx, key())
		require.NoError(t, err)
		assert.False(t, done)
	})

	t.Run("marked key is processed", func(t *testing.T) {
		k := key()
		_, err := store.MarkProcessed(ctx, k, time.Hour)
		require.NoError(t, err)
		done, err := store.IsProcessed(ctx, k)
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("marks expire", func(t *testing.T) {
		k := key()
		_, err := store.MarkProcessed(ctx, k, 50*time.Millisecond)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			done, err := store.IsProcessed(ctx, k)
			return err == nil && !done
		}, 2*time.Second, 20*time.Millisecond)

		again, err := store.MarkProcessed(ctx, k, time.Hour)
		require.NoError(t, err)
		assert.True(t, again)
	})

	t.Run("one winner under contention", func(t *testing.T) {
		k := key()
		const workers = 50
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if won, err := store.MarkProcessed(ctx, k, time.Hour); err == nil && won {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, winners)
	})
}

func TestInMemoryIdempotencyStore(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	testIdempotencyStore(t, store)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	store.Set("rate:EUR:USD:2026-03-02", "1.08", 10*time.Millisecond)
	store.Set("rate:JPY:USD:2026-03-02", "0.0066", 10*time.Millisecond)
	store.Set("task:done:1", "1", time.Hour)
	assert.Equal(t, 3, store.Len())

	time.Sleep(20 * time.Millisecond)
	store.sweep()

	assert.Equal(t, 1, store.Len())
	v, ok := store.Get("task:done:1")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	store.Delete("task:done:1")
	_, ok = store.Get("task:done:1")
	assert.False(t, ok)
}

func TestMemoryStore_CloseTwice(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
