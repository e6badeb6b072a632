// Package token answers expiry questions about access tokens without
// verifying them.
//
// Claims are parsed from the JWT payload with no signature check. This is
// purely a client-side optimization to skip doomed requests and schedule
// proactive refreshes; the server independently verifies every token it
// receives. Anything malformed fails closed: an undecodable token is
// reported as already expired.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultRefreshBuffer is how long before actual expiry a token is
// considered due for renewal.
const DefaultRefreshBuffer = 5 * time.Minute

var parser = jwt.NewParser()

// Decode extracts the unverified claims from raw. Returns nil if raw is
// not a three-segment JWT or its payload is not valid JSON.
func Decode(raw string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil
	}
	return claims
}

// expiresAt returns the exp claim, or false if the token is undecodable
// or carries no usable exp.
func expiresAt(raw string) (time.Time, bool) {
	claims := Decode(raw)
	if claims == nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsExpiredOrExpiring reports whether raw expires within buffer from now.
// Undecodable tokens and tokens without an exp claim are treated as
// expired.
func IsExpiredOrExpiring(raw string, buffer time.Duration) bool {
	exp, ok := expiresAt(raw)
	if !ok {
		return true
	}
	return !time.Now().Before(exp.Add(-buffer))
}

// TimeRemaining returns the duration until raw expires. The result is
// negative for an already-expired token. ok is false when the token is
// undecodable or has no exp claim.
func TimeRemaining(raw string) (remaining time.Duration, ok bool) {
	exp, found := expiresAt(raw)
	if !found {
		return 0, false
	}
	return time.Until(exp), true
}
