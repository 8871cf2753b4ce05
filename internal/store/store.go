// Package store persists the bot's state behind a plain key-value interface.
// Writes are last-writer-wins; there are no transactions.
package store

import "context"

// Store is a durable key-value store holding string values.
type Store interface {
	// Get returns the value for key. found is false when the key does not exist.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by New.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)
