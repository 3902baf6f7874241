package repository

import (
	"context"
	"time"
)

// StateStore abstracts ephemeral key-value state with TTLs, used for
// short-lived counters such as failed key-verification attempts.
// Implementations: Redis (production) or in-memory (local dev, single instance).
type StateStore interface {
	// Increment atomically bumps a counter key, setting ttl on first use,
	// and returns the new value.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
