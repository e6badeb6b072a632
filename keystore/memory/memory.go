// Package memory provides a thread-safe in-memory implementation of keystore.Store.
package memory

import (
	"context"
	"sync"

	"github.com/pawtrail/pawtrail-go/keystore"
)

// Store is a thread-safe in-memory implementation of keystore.Store.
// Suitable for testing, demos, and single-process use cases. Values are
// not encrypted; do not use it for real credentials.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ keystore.Store = (*Store)(nil)

// NewStore creates a new empty in-memory Store.
func NewStore() *Store {
	return &Store{data: make(map[string]string)}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", keystore.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
