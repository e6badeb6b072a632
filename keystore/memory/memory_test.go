package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrail/pawtrail-go/keystore"
	"github.com/pawtrail/pawtrail-go/keystore/memory"
)

func TestGetSetDelete(t *testing.T) {
	s := memory.NewStore()
	ctx := t.Context()

	_, err := s.Get(ctx, "auth_token")
	assert.ErrorIs(t, err, keystore.ErrNotFound)

	require.NoError(t, s.Set(ctx, "auth_token", "abc"))
	v, err := s.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Set(ctx, "auth_token", "def"))
	v, err = s.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "def", v)

	require.NoError(t, s.Delete(ctx, "auth_token"))
	_, err = s.Get(ctx, "auth_token")
	assert.ErrorIs(t, err, keystore.ErrNotFound)

	// Deleting an absent key is not an error.
	require.NoError(t, s.Delete(ctx, "auth_token"))
}
