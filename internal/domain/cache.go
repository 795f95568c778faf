package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations. Backed by a
// local LRU or Redis depending on configuration.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// GetScorecard retrieves a cached scoring run.
	GetScorecard(ctx context.Context, id string) (*Scorecard, error)

	// SetScorecard caches a scoring run.
	SetScorecard(ctx context.Context, sc *Scorecard, ttl time.Duration) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}
