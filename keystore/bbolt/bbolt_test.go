package bbolt_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrail/pawtrail-go/keystore"
	bboltstore "github.com/pawtrail/pawtrail-go/keystore/bbolt"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.db")
	s, err := bboltstore.Open(path, "device-passphrase", nil)
	require.NoError(t, err)
	defer s.Close()
	ctx := t.Context()

	_, err = s.Get(ctx, "auth_token")
	assert.ErrorIs(t, err, keystore.ErrNotFound)

	require.NoError(t, s.Set(ctx, "auth_token", "eyJ-token"))
	v, err := s.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "eyJ-token", v)

	require.NoError(t, s.Delete(ctx, "auth_token"))
	_, err = s.Get(ctx, "auth_token")
	assert.ErrorIs(t, err, keystore.ErrNotFound)
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.db")
	ctx := t.Context()

	s, err := bboltstore.Open(path, "device-passphrase", nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "refresh_token", "long-lived"))
	require.NoError(t, s.Close())

	// Same passphrase re-derives the same key from the stored salt.
	s, err = bboltstore.Open(path, "device-passphrase", nil)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, "refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "long-lived", v)
}

func TestWrongPassphraseCannotRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.db")
	ctx := t.Context()

	s, err := bboltstore.Open(path, "device-passphrase", nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "auth_token", "secret-value"))
	require.NoError(t, s.Close())

	s, err = bboltstore.Open(path, "not-the-passphrase", nil)
	require.NoError(t, err, "opening is keyless; only reads fail")
	defer s.Close()

	_, err = s.Get(ctx, "auth_token")
	assert.Error(t, err)
}

func TestValuesEncryptedAtRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.db")
	ctx := t.Context()

	s, err := bboltstore.Open(path, "device-passphrase", nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "auth_token", "very-recognizable-plaintext"))
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "very-recognizable-plaintext"),
		"plaintext must not appear in the database file")
}
