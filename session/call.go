package session

import (
	"context"
	"log/slog"

	"github.com/pawtrail/pawtrail-go/client"
	"github.com/pawtrail/pawtrail-go/token"
)

// CallFunc is a single backend request parameterized by the bearer token
// to present.
type CallFunc func(ctx context.Context, accessToken string) error

// Do executes call with token renewal applied around it:
//
//  1. If the current access token is expired or expiring, renew it before
//     the request. A failed pre-flight renewal is non-fatal: the request
//     proceeds with the old token, which may still be accepted if the
//     buffer was conservative.
//  2. Execute call with the resolved token.
//  3. On a 401, renew exactly once and retry once with the new token. If
//     that renewal also fails, the session is destroyed and the original
//     error is returned. There is no retry loop: a second rejection means
//     the credential is unrecoverable, and hammering the backend with it
//     helps nobody.
//
// Any non-401 error from call propagates unchanged.
func (m *Manager) Do(ctx context.Context, call CallFunc) error {
	accessToken := m.AccessToken()

	if token.IsExpiredOrExpiring(accessToken, m.buffer) {
		if fresh, err := m.refresh(ctx); err == nil {
			accessToken = fresh
		} else {
			m.logger.Debug("pre-flight refresh failed; proceeding with current token",
				slog.Any("error", err))
		}
	}

	err := call(ctx, accessToken)
	if err == nil || !client.IsUnauthorized(err) {
		return err
	}

	if m.RefreshToken() == "" {
		return err
	}

	fresh, refreshErr := m.refresh(ctx)
	if refreshErr != nil {
		m.logger.Info("reactive refresh failed; ending session", slog.Any("error", refreshErr))
		m.Logout(ctx)
		return err
	}
	return call(ctx, fresh)
}
