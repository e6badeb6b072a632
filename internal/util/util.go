// Package util holds small crypto and encoding helpers shared by the
// keystore implementations.
package util

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating random bytes: %w", err)
	}
	return b, nil
}

// WipeBytes best-effort zeroes the provided byte slice in place.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Normalize applies NFKD normalization so visually identical identifiers
// compare and hash identically regardless of input method.
func Normalize(s string) string {
	return norm.NFKD.String(s)
}
