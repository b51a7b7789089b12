package schema

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/pgfixture/internal/database"
	"github.com/phrazzld/pgfixture/internal/migrate"
)

// Upgrader brings the database up to a migration target.
// *migrate.Runner implements it.
type Upgrader interface {
	Upgrade(ctx context.Context, target migrate.Target) error
}

var _ Upgrader = (*migrate.Runner)(nil)

// Resetter wipes a schema and replays the migrations into it.
type Resetter struct {
	connector database.Connector
	upgrader  Upgrader
	schema    string
	target    migrate.Target
	logger    *slog.Logger
}

// NewResetter returns a Resetter for schema. An empty schema means
// DefaultName and an empty target means migrate.Heads.
func NewResetter(
	connector database.Connector,
	upgrader Upgrader,
	schema string,
	target migrate.Target,
	logger *slog.Logger,
) *Resetter {
	if schema == "" {
		schema = DefaultName
	}
	if target == "" {
		target = migrate.Heads
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resetter{
		connector: connector,
		upgrader:  upgrader,
		schema:    schema,
		target:    target,
		logger:    logger,
	}
}

// Reset wipes the schema on a fresh connection, releases it, then runs the
// migrations. Errors are returned as-is with context; nothing is retried.
func (r *Resetter) Reset(ctx context.Context) error {
	if err := ValidateName(r.schema); err != nil {
		return err
	}

	log := r.logger.With(
		"correlation_id", uuid.New().String(),
		"schema", r.schema,
		"target", r.target.String(),
	)
	startTime := time.Now()
	log.Info("resetting database schema")

	if err := r.wipe(ctx); err != nil {
		log.Error("schema wipe failed", "error", err)
		return err
	}
	log.Debug("schema wiped", "duration_ms", time.Since(startTime).Milliseconds())

	if err := r.upgrader.Upgrade(ctx, r.target); err != nil {
		log.Error("schema migration failed", "error", err)
		return fmt.Errorf("migrating schema %s: %w", r.schema, err)
	}

	log.Info("database schema reset", "duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

func (r *Resetter) wipe(ctx context.Context) error {
	conn, err := r.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connecting to wipe schema %s: %w", r.schema, err)
	}
	defer conn.Release()

	return Wipe(ctx, conn, r.schema)
}
