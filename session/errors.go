package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBadCredentials indicates the server rejected the submitted
	// credentials.
	ErrBadCredentials = errors.New("incorrect email or password")
	// ErrOffline indicates no HTTP response was received; the operation
	// may be retried once connectivity returns.
	ErrOffline = errors.New("could not reach the server; check your connection and try again")
	// ErrRefreshRejected indicates the server authoritatively refused the
	// refresh token. The session cannot be renewed and must end.
	ErrRefreshRejected = errors.New("session expired; please sign in again")

	// errNoRefreshToken is the internal signal that renewal was requested
	// without a refresh token on hand.
	errNoRefreshToken = errors.New("no refresh token available")
)

// ValidationError reports client-side input rejection. No network call was
// made and the rate limiter was not touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RateLimitedError reports that the attempt was denied before any network
// call was made.
type RateLimitedError struct {
	Wait    time.Duration
	Message string
}

func (e *RateLimitedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("too many attempts; wait %s", e.Wait)
}
