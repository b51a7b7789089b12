package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/pgfixture/internal/ciutil"
	"github.com/phrazzld/pgfixture/internal/platform/logger"
	"github.com/pressly/goose/v3"
)

var (
	// ErrScriptLocationNotFound is returned when the migrations directory does not exist.
	ErrScriptLocationNotFound = errors.New("migration script location not found")
	// ErrMissingURL is returned when no connection string is configured.
	ErrMissingURL = errors.New("migration database URL is empty")
)

// gooseMu serializes goose calls: its dialect, table name, logger and base
// filesystem are package globals.
var gooseMu sync.Mutex

// Runner applies migrations from Config.ScriptLocation to Config.URL.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config, log *slog.Logger) (*Runner, error) {
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}

	info, err := os.Stat(cfg.ScriptLocation)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrScriptLocationNotFound, cfg.ScriptLocation)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Runner{cfg: cfg, logger: log}, nil
}

// Upgrade is the one-shot form of NewRunner followed by Runner.Upgrade.
func Upgrade(ctx context.Context, cfg Config, target Target, log *slog.Logger) error {
	r, err := NewRunner(cfg, log)
	if err != nil {
		return err
	}
	return r.Upgrade(ctx, target)
}

// Upgrade applies migrations up to target.
func (r *Runner) Upgrade(ctx context.Context, target Target) error {
	version, explicit := target.Version()
	if !explicit && target != Heads && target != Latest {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}

	// Use a correlation ID for all migration logs to allow tracing the entire operation
	log := r.logger.With(
		"correlation_id", uuid.New().String(),
		"target", target.String(),
		"script_location", r.cfg.ScriptLocation,
	)
	startTime := time.Now()
	log.Info("Starting migration upgrade", "url", ciutil.MaskSensitiveValue(r.cfg.URL))

	err := r.withGoose(ctx, log, func(db *sql.DB) error {
		switch target {
		case Heads:
			return goose.UpContext(ctx, db, r.cfg.ScriptLocation, goose.WithAllowMissing())
		case Latest:
			return goose.UpContext(ctx, db, r.cfg.ScriptLocation)
		}
		return goose.UpToContext(ctx, db, r.cfg.ScriptLocation, version, goose.WithAllowMissing())
	})
	if err != nil {
		log.Error("Migration upgrade failed",
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds())
		return formatMigrationError(err, r.cfg.ScriptLocation)
	}

	log.Info("Migration upgrade completed", "duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

// Status logs the applied/pending state of every migration through the runner's logger.
func (r *Runner) Status(ctx context.Context) error {
	return r.withGoose(ctx, r.logger, func(db *sql.DB) error {
		return goose.StatusContext(ctx, db, r.cfg.ScriptLocation)
	})
}

// Version returns the current database migration version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	var version int64
	err := r.withGoose(ctx, r.logger, func(db *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		version = v
		return err
	})
	return version, err
}

// withGoose opens a dedicated database/sql connection, configures goose's
// globals under gooseMu, and runs fn.
func (r *Runner) withGoose(ctx context.Context, log *slog.Logger, fn func(db *sql.DB) error) error {
	dsn, err := r.cfg.connString()
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn("Error closing migration database connection", "error", closeErr)
		}
	}()

	// One connection keeps session settings stable across goose's statements
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	goose.SetBaseFS(nil)
	goose.SetTableName(r.cfg.tableName())
	goose.SetLogger(logger.NewGooseLogger(log))

	return fn(db)
}
