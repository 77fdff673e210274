package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which tasks have completed so redeliveries can be skipped
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL.
	// Returns true if the key was newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key is recorded and not expired
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases the store's resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotent task handling
type IdempotencyConfig struct {
	// TTL bounds how long a completed task is remembered. Default: 24 hours
	TTL time.Duration

	// Enabled turns the duplicate check on. Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
