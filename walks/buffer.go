package walks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pawtrail/pawtrail-go/keystore"
)

// guestWalkKey is where the pending guest walk lives in the keystore.
const guestWalkKey = "guest_walk"

// Buffer holds at most one pending guest walk in the keystore until a
// sign-in triggers its migration.
type Buffer struct {
	store keystore.Store
}

// NewBuffer creates a Buffer over the given store.
func NewBuffer(store keystore.Store) *Buffer {
	return &Buffer{store: store}
}

// Save stores walk as the pending guest walk, replacing any previous one.
// A missing LocalID is filled in.
func (b *Buffer) Save(ctx context.Context, walk GuestWalk) error {
	if walk.LocalID == "" {
		walk.LocalID = uuid.NewString()
	}
	data, err := json.Marshal(walk)
	if err != nil {
		return fmt.Errorf("encoding guest walk: %w", err)
	}
	return b.store.Set(ctx, guestWalkKey, string(data))
}

// Load returns the pending guest walk. ok is false when none is buffered.
func (b *Buffer) Load(ctx context.Context) (walk *GuestWalk, ok bool, err error) {
	raw, err := b.store.Get(ctx, guestWalkKey)
	if errors.Is(err, keystore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var w GuestWalk
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, false, fmt.Errorf("decoding guest walk: %w", err)
	}
	return &w, true, nil
}

// Clear removes the pending guest walk.
func (b *Buffer) Clear(ctx context.Context) error {
	return b.store.Delete(ctx, guestWalkKey)
}
