// Package infrastructure provides core service initialization for
// application startup. It assembles the shared dependencies (logging,
// database, review sessions) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/oharel/talush/internal/config"
	"github.com/oharel/talush/internal/schema"
	"github.com/oharel/talush/internal/session"
	"github.com/oharel/talush/pkg/database"
	"github.com/oharel/talush/pkg/lifecycle"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Sessions  *session.Store
}

// New creates an Infrastructure from the application configuration. It
// initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Sessions:  session.NewStore(cfg.Pipeline.GetSessionTTL(), logger),
	}, nil
}

// Start registers the infrastructure systems with the lifecycle
// coordinator, ensures the schema exists, and runs the session sweeper
// until shutdown. The migrations are idempotent, so applying them at
// startup is safe alongside cmd/migrate.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := schema.Apply(ctx, i.Database.Connection()); err != nil {
		return fmt.Errorf("schema apply failed: %w", err)
	}

	go i.Sessions.Run(i.Lifecycle.Context().Done())

	return nil
}
