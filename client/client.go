// Package client implements the PawTrail backend REST contract: JSON over
// HTTPS with bearer authentication.
//
// Every call carries a fixed timeout after which it fails as a
// NetworkError, distinguished from an HTTP error response (APIError).
// The client holds no session state; token lifecycle lives in the session
// package.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the per-call timeout applied when the caller's context
// carries no earlier deadline.
const DefaultTimeout = 15 * time.Second

// maxErrorBodySize bounds how much of an error response body is read for
// the error message.
const maxErrorBodySize = 4 << 10

// Client talks to the PawTrail backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the structured logger. If not set, a default JSON logger
// writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return c
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/login", "", LoginRequest{Email: email, Password: password}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Refresh exchanges a refresh token for a new token pair. A 401/403
// response means the refresh token is no longer valid.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: refreshToken}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	return c.do(ctx, http.MethodPost, "/users/register", "", RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, nil)
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context, accessToken string) (*UserProfile, error) {
	var profile UserProfile
	err := c.do(ctx, http.MethodGet, "/users/me", accessToken, nil, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateWalk creates a walk record and returns its server-assigned ID.
func (c *Client) CreateWalk(ctx context.Context, accessToken string, req CreateWalkRequest) (string, error) {
	var resp CreateWalkResponse
	if err := c.do(ctx, http.MethodPost, "/walks", accessToken, req, &resp); err != nil {
		return "", err
	}
	return resp.WalkID, nil
}

// UploadTrack uploads a batch of GPS samples to a walk.
func (c *Client) UploadTrack(ctx context.Context, accessToken, walkID string, points []TrackPoint) error {
	path := fmt.Sprintf("/walks/%s/track", url.PathEscape(walkID))
	return c.do(ctx, http.MethodPost, path, accessToken, UploadTrackRequest{Points: points}, nil)
}

// StopWalk finalizes a walk with its aggregate statistics.
func (c *Client) StopWalk(ctx context.Context, accessToken, walkID string, req StopWalkRequest) error {
	path := fmt.Sprintf("/walks/%s/stop", url.PathEscape(walkID))
	return c.do(ctx, http.MethodPost, path, accessToken, req, nil)
}

// do issues one JSON request. A transport failure (no HTTP response)
// returns a NetworkError; a non-2xx status returns an APIError.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed before a response was received",
			slog.String("method", method), slog.String("path", path))
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// readErrorMessage extracts a message from an error response body. It
// accepts {"error": "..."} and {"message": "..."} shapes and falls back to
// the raw body.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}
