package repository

import "context"

// KeyValueStore persistent string-keyed store
type KeyValueStore interface {
	// Get returns the stored value, or entity.ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases the backend
	Close() error
}
