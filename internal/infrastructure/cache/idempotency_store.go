// Package cache provides idempotency guards for the settlement API.
// A payment that is retried with the same Idempotency-Key must not be
// allocated twice.
package cache

import (
	"context"
	"time"
)

// IdempotencyStore remembers which request keys have been processed
type IdempotencyStore interface {
	// MarkProcessed marks a request key as processed with a TTL.
	// Returns true if the key was newly marked, false if a request
	// with the same key was already handled.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a request key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a key so the request can be retried, used when the
	// guarded operation failed after the key was claimed.
	Release(ctx context.Context, key string) error

	Close() error
}
