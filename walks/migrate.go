package walks

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pawtrail/pawtrail-go/client"
	"github.com/pawtrail/pawtrail-go/session"
)

// Migrator runs the guest-walk migration saga through an authenticated
// session.
type Migrator struct {
	api      *client.Client
	sessions *session.Manager
	logger   *slog.Logger
}

// MigratorOption configures the Migrator.
type MigratorOption func(*Migrator)

// WithLogger sets the structured logger. If not set, a default JSON logger
// writing to stderr is used.
func WithLogger(logger *slog.Logger) MigratorOption {
	return func(mg *Migrator) { mg.logger = logger }
}

// NewMigrator creates a Migrator.
func NewMigrator(api *client.Client, sessions *session.Manager, opts ...MigratorOption) *Migrator {
	mg := &Migrator{api: api, sessions: sessions}
	for _, opt := range opts {
		opt(mg)
	}
	if mg.logger == nil {
		mg.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return mg
}

// Migrate attributes a guest walk to the signed-in account.
//
// Step 1 creates the walk record; its failure aborts the migration. Step 2
// uploads the route in one batch and step 3 finalizes duration/distance —
// both are best-effort: once the walk exists server-side, a missing track
// or missing statistics is acceptable degraded success. A nil return means
// the walk exists and belongs to the user; callers clear the local buffer
// only then, and must not re-invoke for an already-migrated walk.
func (mg *Migrator) Migrate(ctx context.Context, walk GuestWalk) error {
	var walkID string
	err := mg.sessions.Do(ctx, func(ctx context.Context, accessToken string) error {
		id, err := mg.api.CreateWalk(ctx, accessToken, client.CreateWalkRequest{
			Title:          walk.Title,
			Notes:          walk.Notes,
			StartLatitude:  walk.StartLatitude,
			StartLongitude: walk.StartLongitude,
		})
		if err != nil {
			return err
		}
		walkID = id
		return nil
	})
	if err != nil {
		mg.logger.Warn("guest walk migration failed: could not create walk", slog.Any("error", err))
		return fmt.Errorf("creating walk: %w", err)
	}
	mg.logger.Info("guest walk created", slog.String("walk_id", walkID))

	if len(walk.RouteCoordinates) > 0 {
		err := mg.sessions.Do(ctx, func(ctx context.Context, accessToken string) error {
			return mg.api.UploadTrack(ctx, accessToken, walkID, walk.trackPoints())
		})
		if err != nil {
			// The walk already exists; a walk with a known shape but no
			// fine-grained track is acceptable.
			mg.logger.Warn("track upload failed; continuing without route points",
				slog.String("walk_id", walkID), slog.Any("error", err))
		}
	}

	err = mg.sessions.Do(ctx, func(ctx context.Context, accessToken string) error {
		return mg.api.StopWalk(ctx, accessToken, walkID, client.StopWalkRequest{
			DurationSeconds: walk.DurationSeconds,
			DistanceMeters:  walk.DistanceMeters,
		})
	})
	if err != nil {
		mg.logger.Warn("finalizing walk failed; statistics may be incomplete",
			slog.String("walk_id", walkID), slog.Any("error", err))
	}

	return nil
}

// MigratePending migrates the buffered guest walk, if any, and clears the
// buffer only on success. migrated is true when a walk was pushed.
func (mg *Migrator) MigratePending(ctx context.Context, buf *Buffer) (migrated bool, err error) {
	walk, ok, err := buf.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("loading guest walk buffer: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := mg.Migrate(ctx, *walk); err != nil {
		return false, err
	}
	if err := buf.Clear(ctx); err != nil {
		// The walk is on the server; a stale buffer is the caller's
		// re-invocation hazard to manage.
		mg.logger.Warn("clearing guest walk buffer failed", slog.Any("error", err))
	}
	return true, nil
}
