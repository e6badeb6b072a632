// Package keystore defines the on-device key-value store used to persist
// session state between launches. Implementations are expected to encrypt
// values at rest; the memory implementation exists for tests and demos.
package keystore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been set or has
// been deleted.
var ErrNotFound = errors.New("key not found")

// Store abstracts platform secure storage as an asynchronous string
// key-value resource. There is no transactional guarantee across keys;
// callers must tolerate a crash between two writes.
type Store interface {
	// Get retrieves the value for key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) (string, error)
	// Set creates or replaces the value for key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
