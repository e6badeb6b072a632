// Package session owns the authenticated session: the token pair, the
// validated user profile, and every transition between signed-out and
// signed-in.
//
// The Manager is the only writer of session state. Login, registration and
// startup restoration run through it; everything else in the app observes
// the session through read accessors or executes requests through Do,
// which transparently renews the access token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/pawtrail/pawtrail-go/client"
	"github.com/pawtrail/pawtrail-go/internal/util"
	"github.com/pawtrail/pawtrail-go/keystore"
	"github.com/pawtrail/pawtrail-go/ratelimit"
	"github.com/pawtrail/pawtrail-go/token"
)

// Keystore keys for the persisted session. The store gives no atomicity
// across keys; Restore tolerates any subset being present.
const (
	authTokenKey    = "auth_token"
	refreshTokenKey = "refresh_token"
	userDataKey     = "user_data"
)

const (
	actionLogin    = "login"
	actionRegister = "register"
)

// backgroundTimeout bounds fire-and-forget work spawned by Restore.
const backgroundTimeout = 30 * time.Second

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type registerInput struct {
	Username string `validate:"required,min=2,max=50"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// Manager owns the session state and its lifecycle.
type Manager struct {
	api      *client.Client
	store    keystore.Store
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
	buffer   time.Duration
	validate *validator.Validate

	// refreshGroup collapses concurrent renewal attempts into a single
	// in-flight request whose result all callers share.
	refreshGroup singleflight.Group

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	user         *client.UserProfile
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets the structured logger. If not set, a default JSON logger
// writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithRefreshBuffer overrides how long before expiry a token is renewed.
func WithRefreshBuffer(d time.Duration) Option {
	return func(m *Manager) { m.buffer = d }
}

// WithLimiter replaces the login/register attempt limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(m *Manager) { m.limiter = l }
}

// NewManager creates a Manager over the given backend client and store.
func NewManager(api *client.Client, store keystore.Store, opts ...Option) *Manager {
	m := &Manager{
		api:      api,
		store:    store,
		buffer:   token.DefaultRefreshBuffer,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if m.limiter == nil {
		m.limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	return m
}

// IsAuthenticated reports whether a usable session exists. A token without
// a validated profile is not a session.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken != "" && m.user != nil
}

// AccessToken returns the current bearer token, or "" when signed out.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken
}

// RefreshToken returns the current refresh token, or "" if the server
// never issued one.
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken
}

// User returns a copy of the authenticated user's profile, or nil.
func (m *Manager) User() *client.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Restore rebuilds the session from the keystore at process start.
//
// A stored token with enough life left is adopted without waiting on the
// network; its profile is re-validated in the background. A token near or
// past expiry is renewed first. When renewal or validation fails only
// because the network was unreachable and the token has technically not
// yet expired, the stale session is adopted anyway rather than locking the
// user out at launch. Authoritative rejection, or any unexpected error,
// destroys the stored session.
func (m *Manager) Restore(ctx context.Context) {
	access, err := m.store.Get(ctx, authTokenKey)
	if errors.Is(err, keystore.ErrNotFound) {
		return
	}
	if err != nil {
		m.logger.Warn("reading stored token failed; clearing session", slog.Any("error", err))
		m.destroy(ctx)
		return
	}

	refresh, err := m.store.Get(ctx, refreshTokenKey)
	if err != nil && !errors.Is(err, keystore.ErrNotFound) {
		m.logger.Warn("reading stored refresh token failed; clearing session", slog.Any("error", err))
		m.destroy(ctx)
		return
	}

	user := m.loadStoredUser(ctx)

	// Undecodable tokens fail closed: treated as already expired.
	remaining, decodable := token.TimeRemaining(access)
	if !decodable {
		remaining = 0
	}

	if remaining > m.buffer && user != nil {
		m.adopt(access, refresh, user)
		m.logger.Info("session restored from storage",
			slog.Duration("token_remaining", remaining))
		go m.revalidateProfile()
		return
	}

	if refresh != "" {
		if m.restoreViaRefresh(ctx, access, refresh, user, remaining) {
			return
		}
		m.destroy(ctx)
		return
	}

	// No refresh token: validate the stored (possibly expired) token with
	// a direct profile fetch.
	profile, err := m.api.Me(ctx, access)
	if err == nil {
		m.adopt(access, "", profile)
		m.persistUser(ctx)
		m.logger.Info("session restored via profile fetch")
		return
	}
	if client.IsNetwork(err) && remaining > 0 && user != nil {
		m.adopt(access, "", user)
		m.logger.Info("offline at launch; keeping unexpired session")
		return
	}
	m.destroy(ctx)
}

// restoreViaRefresh attempts a silent renewal during Restore. It returns
// true when a session (fresh or offline-tolerated stale) was adopted.
func (m *Manager) restoreViaRefresh(ctx context.Context, access, refresh string, storedUser *client.UserProfile, remaining time.Duration) bool {
	pair, err := m.api.Refresh(ctx, refresh)
	if err == nil {
		profile, perr := m.api.Me(ctx, pair.AccessToken)
		if perr == nil {
			newRefresh := pair.RefreshToken
			if newRefresh == "" {
				newRefresh = refresh // rotation is optional
			}
			m.adopt(pair.AccessToken, newRefresh, profile)
			m.persist(ctx)
			m.logger.Info("session restored via silent refresh")
			return true
		}
		err = perr
	}
	if client.IsNetwork(err) && remaining > 0 && storedUser != nil {
		m.adopt(access, refresh, storedUser)
		m.logger.Info("offline at launch; keeping unexpired session")
		return true
	}
	m.logger.Info("silent refresh failed; clearing session", slog.Any("error", err))
	return false
}

// loadStoredUser reads and decodes user_data. A missing or corrupt profile
// is not fatal on its own; the caller falls back to a profile fetch.
func (m *Manager) loadStoredUser(ctx context.Context) *client.UserProfile {
	raw, err := m.store.Get(ctx, userDataKey)
	if err != nil {
		return nil
	}
	var u client.UserProfile
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		m.logger.Warn("stored profile is corrupt; will re-fetch", slog.Any("error", err))
		return nil
	}
	return &u
}

// revalidateProfile re-fetches the profile behind an already-adopted
// session. Failure is ignored: a background validation miss must not tear
// down a session the user is actively using.
func (m *Manager) revalidateProfile() {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	profile, err := m.api.Me(ctx, m.AccessToken())
	if err != nil {
		m.logger.Debug("background profile validation failed", slog.Any("error", err))
		return
	}
	m.mu.Lock()
	m.user = profile
	m.mu.Unlock()
	m.persistUser(ctx)
}

// Login submits credentials and establishes a session. A nil return means
// the session is authenticated; every failure comes back as a typed error
// carrying a user-facing message.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	email = util.Normalize(strings.TrimSpace(email))

	// Client-side validation happens before the limiter and before any
	// network call, and does not count as an attempt.
	if err := m.validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		return &ValidationError{Message: loginValidationMessage(err)}
	}
	if d := m.limiter.Check(actionLogin); !d.Allowed {
		return &RateLimitedError{Wait: d.Wait, Message: d.Message}
	}

	pair, err := m.api.Login(ctx, email, password)
	if err != nil {
		return m.credentialFailure(actionLogin, "login", err)
	}

	// Tokens are not a session until the profile checks out. A profile
	// fetch failure rolls the whole attempt back.
	profile, err := m.api.Me(ctx, pair.AccessToken)
	if err != nil {
		m.logger.Warn("profile fetch after login failed; rolling back", slog.Any("error", err))
		if client.IsNetwork(err) {
			return ErrOffline
		}
		return fmt.Errorf("validating profile: %w", err)
	}

	m.limiter.RecordSuccess(actionLogin)
	m.adopt(pair.AccessToken, pair.RefreshToken, profile)
	m.persist(ctx)
	m.logger.Info("login succeeded", slog.String("user_id", profile.UserID))
	return nil
}

// Register creates an account and signs it in. Registration success with
// login failure is reported as overall failure.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	username = util.Normalize(strings.TrimSpace(username))
	email = util.Normalize(strings.TrimSpace(email))

	if err := m.validate.Struct(registerInput{Username: username, Email: email, Password: password}); err != nil {
		return &ValidationError{Message: registerValidationMessage(err)}
	}
	if d := m.limiter.Check(actionRegister); !d.Allowed {
		return &RateLimitedError{Wait: d.Wait, Message: d.Message}
	}

	if err := m.api.Register(ctx, username, email, password); err != nil {
		return m.credentialFailure(actionRegister, "registration", err)
	}
	m.limiter.RecordSuccess(actionRegister)

	if err := m.Login(ctx, email, password); err != nil {
		m.logger.Warn("account created but sign-in failed", slog.Any("error", err))
		return err
	}
	return nil
}

// Logout destroys the session. It is idempotent and best-effort: storage
// deletion failures are logged and swallowed.
func (m *Manager) Logout(ctx context.Context) {
	m.destroy(ctx)
	m.logger.Info("logged out")
}

// credentialFailure classifies a failed credential-endpoint call and
// updates the limiter. Only a definitive non-2xx response counts as a
// failed attempt; a network error is not an attack signal.
func (m *Manager) credentialFailure(action, what string, err error) error {
	if client.IsNetwork(err) {
		m.logger.Info(what+" failed: network unreachable", slog.Any("error", err))
		return ErrOffline
	}
	var ae *client.APIError
	if errors.As(err, &ae) {
		m.limiter.RecordFailure(action)
		if ae.StatusCode >= 400 && ae.StatusCode < 500 {
			return ErrBadCredentials
		}
	}
	m.logger.Warn(what+" failed", slog.Any("error", err))
	return err
}

// adopt installs the session state in memory.
func (m *Manager) adopt(access, refresh string, user *client.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = access
	m.refreshToken = refresh
	m.user = user
}

// destroy clears memory and storage. Storage errors are swallowed so a
// flaky disk cannot keep a user signed in.
func (m *Manager) destroy(ctx context.Context) {
	for _, key := range []string{authTokenKey, refreshTokenKey, userDataKey} {
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Warn("deleting stored key failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	m.mu.Lock()
	m.accessToken = ""
	m.refreshToken = ""
	m.user = nil
	m.mu.Unlock()
}

// persist writes the full session. Writes are best-effort: a failed write
// costs a re-login after the next restart, not the current session.
func (m *Manager) persist(ctx context.Context) {
	m.persistTokens(ctx)
	m.persistUser(ctx)
}

func (m *Manager) persistTokens(ctx context.Context) {
	m.mu.RLock()
	access, refresh := m.accessToken, m.refreshToken
	m.mu.RUnlock()

	if err := m.store.Set(ctx, authTokenKey, access); err != nil {
		m.logger.Warn("persisting access token failed", slog.Any("error", err))
	}
	if refresh == "" {
		return
	}
	if err := m.store.Set(ctx, refreshTokenKey, refresh); err != nil {
		m.logger.Warn("persisting refresh token failed", slog.Any("error", err))
	}
}

func (m *Manager) persistUser(ctx context.Context) {
	user := m.User()
	if user == nil {
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		m.logger.Warn("encoding profile failed", slog.Any("error", err))
		return
	}
	if err := m.store.Set(ctx, userDataKey, string(data)); err != nil {
		m.logger.Warn("persisting profile failed", slog.Any("error", err))
	}
}

// refresh renews the access token. Concurrent callers share one in-flight
// renewal. A 401/403 from the renewal endpoint comes back as
// ErrRefreshRejected — the token is dead and the caller must end the
// session. A network error propagates as-is so callers can apply offline
// tolerance instead.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	v, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		rt := m.RefreshToken()
		if rt == "" {
			return nil, errNoRefreshToken
		}
		pair, err := m.api.Refresh(ctx, rt)
		if err != nil {
			if client.IsAuthRejected(err) {
				return nil, ErrRefreshRejected
			}
			return nil, err
		}

		m.mu.Lock()
		m.accessToken = pair.AccessToken
		if pair.RefreshToken != "" {
			// The server may omit a new refresh token; keep the old one.
			m.refreshToken = pair.RefreshToken
		}
		m.mu.Unlock()

		m.persistTokens(ctx)
		m.logger.Debug("access token renewed")
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func loginValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Email":
			return "enter a valid email address"
		case "Password":
			return "password must be at least 8 characters"
		}
	}
	return "invalid login details"
}

func registerValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Username":
			return "username must be between 2 and 50 characters"
		case "Email":
			return "enter a valid email address"
		case "Password":
			return "password must be at least 8 characters"
		}
	}
	return "invalid registration details"
}
