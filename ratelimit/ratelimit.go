// Package ratelimit throttles login and registration attempts with
// exponential backoff and lockout.
//
// State is per action key ("login", "register", ...) and lives only in
// memory: it is an abuse deterrent, not a security boundary, so losing it
// on process restart is acceptable. The limiter has no idea why an attempt
// failed — callers decide what counts as a failure (a definitive non-2xx
// from the credential endpoint) versus what doesn't (client-side
// validation that never reached the network).
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Config tunes the limiter. Zero values fall back to the defaults.
type Config struct {
	// MaxFailures is the consecutive-failure count at which lockout begins.
	MaxFailures int
	// BaseCooldown is the wait after the first failure; it doubles with
	// each subsequent failure.
	BaseCooldown time.Duration
	// MaxCooldown caps the exponential backoff.
	MaxCooldown time.Duration
	// Lockout is how long the action stays blocked once MaxFailures is
	// reached.
	Lockout time.Duration
	// ResetAfter is the idle gap after which an action's state is
	// forgotten entirely.
	ResetAfter time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxFailures:  5,
		BaseCooldown: 1 * time.Second,
		MaxCooldown:  60 * time.Second,
		Lockout:      5 * time.Minute,
		ResetAfter:   15 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxFailures <= 0 {
		c.MaxFailures = d.MaxFailures
	}
	if c.BaseCooldown <= 0 {
		c.BaseCooldown = d.BaseCooldown
	}
	if c.MaxCooldown <= 0 {
		c.MaxCooldown = d.MaxCooldown
	}
	if c.Lockout <= 0 {
		c.Lockout = d.Lockout
	}
	if c.ResetAfter <= 0 {
		c.ResetAfter = d.ResetAfter
	}
	return c
}

// Decision is the outcome of a Check call.
type Decision struct {
	// Allowed reports whether the attempt may proceed.
	Allowed bool
	// Wait is how long the caller must wait before the next attempt.
	// Zero when Allowed.
	Wait time.Duration
	// Message is a user-facing explanation when the attempt is denied.
	Message string
}

type actionState struct {
	failures    int
	lastAttempt time.Time
	lockedUntil time.Time
}

// Limiter tracks failed attempts per action key.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	actions map[string]*actionState

	now func() time.Time // injectable for tests
}

// New creates a Limiter with the given configuration.
func New(cfg Config) *Limiter {
	return &Limiter{
		cfg:     cfg.withDefaults(),
		actions: make(map[string]*actionState),
		now:     time.Now,
	}
}

// stateLocked returns the live state for action, discarding it first if it
// has gone idle past ResetAfter. Returns nil when there is no state.
func (l *Limiter) stateLocked(action string) *actionState {
	st, ok := l.actions[action]
	if !ok {
		return nil
	}
	if !st.lastAttempt.IsZero() && l.now().Sub(st.lastAttempt) >= l.cfg.ResetAfter {
		delete(l.actions, action)
		return nil
	}
	return st
}

// cooldown returns the backoff for the given consecutive-failure count:
// min(BaseCooldown * 2^(failures-1), MaxCooldown).
func (l *Limiter) cooldown(failures int) time.Duration {
	d := l.cfg.BaseCooldown
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= l.cfg.MaxCooldown {
			return l.cfg.MaxCooldown
		}
	}
	if d > l.cfg.MaxCooldown {
		return l.cfg.MaxCooldown
	}
	return d
}

// Check reports whether an attempt for action may proceed right now.
func (l *Limiter) Check(action string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.stateLocked(action)
	if st == nil {
		return Decision{Allowed: true}
	}

	now := l.now()
	if !st.lockedUntil.IsZero() && now.Before(st.lockedUntil) {
		wait := st.lockedUntil.Sub(now)
		return Decision{
			Wait:    wait,
			Message: fmt.Sprintf("too many failed attempts; locked for %s", roundWait(wait)),
		}
	}
	if st.failures > 0 {
		cooldown := l.cooldown(st.failures)
		elapsed := now.Sub(st.lastAttempt)
		if elapsed < cooldown {
			wait := cooldown - elapsed
			return Decision{
				Wait:    wait,
				Message: fmt.Sprintf("please wait %s before trying again", roundWait(wait)),
			}
		}
	}
	return Decision{Allowed: true}
}

// RecordFailure counts a failed attempt for action, starting the lockout
// once the failure count reaches MaxFailures.
func (l *Limiter) RecordFailure(action string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.stateLocked(action)
	if st == nil {
		st = &actionState{}
		l.actions[action] = st
	}
	st.failures++
	now := l.now()
	st.lastAttempt = now
	if st.failures >= l.cfg.MaxFailures {
		st.lockedUntil = now.Add(l.cfg.Lockout)
	}
}

// RecordSuccess resets all state for action.
func (l *Limiter) RecordSuccess(action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.actions, action)
}

func roundWait(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(time.Second)
}
