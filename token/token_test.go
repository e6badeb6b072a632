package token_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrail/pawtrail-go/token"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return raw
}

func tokenExpiringIn(t *testing.T, d time.Duration) string {
	t.Helper()
	return signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(d).Unix(),
	})
}

func TestDecode_ValidToken(t *testing.T) {
	raw := tokenExpiringIn(t, time.Hour)

	claims := token.Decode(raw)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims["sub"])
}

func TestDecode_MalformedTokensFailClosed(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"no dots":          "garbage",
		"two segments":     "aaaa.bbbb",
		"four segments":    "a.b.c.d",
		"payload not b64":  "aaaa.!!!!.cccc",
		"payload not json": "aaaa." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".cccc",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, token.Decode(raw))
			assert.True(t, token.IsExpiredOrExpiring(raw, token.DefaultRefreshBuffer),
				"undecodable tokens must read as expired")

			_, ok := token.TimeRemaining(raw)
			assert.False(t, ok)
		})
	}
}

func TestIsExpiredOrExpiring_BufferBoundary(t *testing.T) {
	buffer := 5 * time.Minute

	// Well inside the buffer: due for renewal.
	assert.True(t, token.IsExpiredOrExpiring(tokenExpiringIn(t, time.Minute), buffer))
	// Well outside the buffer: still fresh.
	assert.False(t, token.IsExpiredOrExpiring(tokenExpiringIn(t, time.Hour), buffer))
	// Already expired.
	assert.True(t, token.IsExpiredOrExpiring(tokenExpiringIn(t, -time.Minute), buffer))
}

func TestIsExpiredOrExpiring_MissingExp(t *testing.T) {
	raw := signedToken(t, jwt.MapClaims{"sub": "user-1"})

	assert.True(t, token.IsExpiredOrExpiring(raw, 0), "tokens without exp fail closed")

	_, ok := token.TimeRemaining(raw)
	assert.False(t, ok)
}

func TestTimeRemaining(t *testing.T) {
	remaining, ok := token.TimeRemaining(tokenExpiringIn(t, time.Hour))
	require.True(t, ok)
	assert.InDelta(t, time.Hour, remaining, float64(5*time.Second))

	remaining, ok = token.TimeRemaining(tokenExpiringIn(t, -time.Hour))
	require.True(t, ok)
	assert.Negative(t, remaining)
}
