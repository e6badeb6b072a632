package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pawtrail/pawtrail-go/client"
	bboltstore "github.com/pawtrail/pawtrail-go/keystore/bbolt"
	"github.com/pawtrail/pawtrail-go/session"
	"github.com/pawtrail/pawtrail-go/walks"
)

// passphraseEnv names the environment variable holding the keystore
// passphrase. On a phone this comes from the platform keychain; the CLI
// settles for the environment.
const passphraseEnv = "PAWTRAIL_KEYSTORE_PASSPHRASE"

// appContext wires the client, keystore and session manager for a command
// invocation.
type appContext struct {
	api      *client.Client
	store    *bboltstore.Store
	sessions *session.Manager
	logger   *slog.Logger
}

func newAppContext() (*appContext, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	passphrase := os.Getenv(passphraseEnv)
	if passphrase == "" {
		return nil, fmt.Errorf("%s is not set", passphraseEnv)
	}

	store, err := bboltstore.Open(filepath.Join(cfg.DataDir, "keystore.db"), passphrase, nil)
	if err != nil {
		return nil, fmt.Errorf("opening keystore: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	api := client.New(cfg.APIBaseURL, client.WithLogger(logger))
	sessions := session.NewManager(api, store, session.WithLogger(logger))

	return &appContext{api: api, store: store, sessions: sessions, logger: logger}, nil
}

func (a *appContext) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing keystore failed", slog.Any("error", err))
	}
}

func (a *appContext) migrator() *walks.Migrator {
	return walks.NewMigrator(a.api, a.sessions, walks.WithLogger(a.logger))
}
