package testdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phrazzld/pgfixture/internal/ciutil"
	"github.com/phrazzld/pgfixture/internal/config"
	"github.com/phrazzld/pgfixture/internal/database"
	"github.com/phrazzld/pgfixture/internal/migrate"
	"github.com/phrazzld/pgfixture/internal/pgmanager"
	"github.com/phrazzld/pgfixture/internal/platform/logger"
	"github.com/phrazzld/pgfixture/internal/schema"
)

// Fixture owns the database engine for a test run. Setup resets the schema
// once; sessions are then handed out per test.
type Fixture struct {
	opts Options

	setupMu   sync.Mutex
	setupDone bool
	setupErr  error

	mu        sync.Mutex
	closed    bool
	logger    *slog.Logger
	url       string
	connector database.Connector
	engine    *database.Engine
	embedded  *pgmanager.Manager
}

// New returns an unconfigured Fixture. Nothing connects until Setup.
func New(opts ...Option) *Fixture {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return &Fixture{opts: o}
}

// Setup loads the configuration, connects, wipes the schema and runs the
// migrations. The first call that completes does the work and later calls
// return its result, error included. A call that fails because its own ctx
// was cancelled is not remembered: the next call starts over.
func (f *Fixture) Setup(ctx context.Context) error {
	f.setupMu.Lock()
	defer f.setupMu.Unlock()
	if f.setupDone {
		return f.setupErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := f.setup(ctx)
	if err != nil && ctx.Err() != nil {
		return err
	}
	f.setupDone, f.setupErr = true, err
	return err
}

func (f *Fixture) setup(ctx context.Context) error {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigFile: f.opts.ConfigFile,
		Overrides:  f.opts.overrides(flags),
	})
	if err != nil {
		return fmt.Errorf("loading fixture configuration: %w", err)
	}

	log := f.opts.Logger
	if log == nil {
		log, err = logger.New(os.Stderr, cfg.Log)
		if err != nil {
			return err
		}
	}
	log = log.With("component", "testdb")

	target, err := migrate.ParseTarget(cfg.Migrations.Target)
	if err != nil {
		return err
	}
	if err := schema.ValidateName(cfg.Database.Schema); err != nil {
		return err
	}

	migrationsDir, err := f.migrationsDir(cfg.Migrations.Dir, log)
	if err != nil {
		return err
	}

	url := cfg.Database.URL
	var embedded *pgmanager.Manager
	if url == "" {
		embedded = pgmanager.New(pgmanager.Config{
			Port:    cfg.Database.EmbeddedPort,
			DataDir: cfg.Database.EmbeddedDataDir,
			Logger:  log,
		})
		if url, err = embedded.Start(ctx); err != nil {
			return fmt.Errorf("starting embedded postgres: %w", err)
		}
	}

	stopEmbedded := func() {
		if embedded == nil {
			return
		}
		if err := embedded.Stop(); err != nil {
			log.Warn("stopping embedded postgres", "error", err)
		}
	}

	var searchPath string
	if cfg.Database.Schema != schema.DefaultName {
		searchPath = pgx.Identifier{cfg.Database.Schema}.Sanitize()
	}

	engine, err := database.Open(ctx, database.Config{
		URL:            url,
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SearchPath:     searchPath,
	}, log)
	if err != nil {
		stopEmbedded()
		return err
	}

	runner, err := migrate.NewRunner(migrate.Config{
		ScriptLocation: migrationsDir,
		URL:            url,
		TableName:      cfg.Migrations.TableName,
		Schema:         cfg.Database.Schema,
	}, log)
	if err == nil {
		err = schema.NewResetter(engine, runner, cfg.Database.Schema, target, log).Reset(ctx)
	}
	if err != nil {
		engine.Close()
		stopEmbedded()
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.logger = log
	f.url = url
	f.engine = engine
	f.connector = engine
	f.embedded = embedded
	return nil
}

func (f *Fixture) migrationsDir(dir string, log *slog.Logger) (string, error) {
	if f.opts.RootDir == "" {
		return ciutil.FindMigrationsDir(dir, log)
	}

	path := ciutil.ResolvePath(f.opts.RootDir, dir)
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w at %s", ciutil.ErrMigrationsDirNotFound, path)
	}
	return path, nil
}

// NewSession sets the fixture up if needed and opens a Session. The caller
// must Close it.
func (f *Fixture) NewSession(ctx context.Context) (*Session, error) {
	if f.isClosed() {
		return nil, ErrFixtureClosed
	}

	if err := f.Setup(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	closed, connector, log := f.closed, f.connector, f.logger
	f.mu.Unlock()
	if closed {
		return nil, ErrFixtureClosed
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	return newSession(ctx, conn, log)
}

// WithSession runs fn with a fresh Session and closes it afterwards, also
// when fn panics. fn's error takes precedence over the close error.
func (f *Fixture) WithSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) (err error) {
	s, err := f.NewSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(context.WithoutCancel(ctx)); err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, s)
}

func (f *Fixture) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Session opens a Session for t and closes it in t.Cleanup. The test is
// skipped when no database is configured and fails on any other setup error.
func (f *Fixture) Session(t testing.TB) *Session {
	t.Helper()

	ctx := context.Background()
	if err := f.Setup(ctx); err != nil {
		if errors.Is(err, ErrNoDatabaseURL) {
			t.Skipf("skipping database test: %v", err)
		}
		t.Fatalf("database fixture setup failed: %v", err)
	}

	s, err := f.NewSession(ctx)
	if err != nil {
		t.Fatalf("opening database session: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(context.Background()); err != nil {
			t.Errorf("closing database session: %v", err)
		}
	})
	return s
}

// Pool returns the connection pool, or nil before a successful Setup.
// Work done through it directly is not rolled back.
func (f *Fixture) Pool() *pgxpool.Pool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.engine == nil {
		return nil
	}
	return f.engine.Pool()
}

// URL returns the connection string in use, or "" before a successful Setup.
func (f *Fixture) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

// Close shuts the pool down and stops the embedded server, if any.
// Open sessions should be closed first.
func (f *Fixture) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	if f.engine != nil {
		f.engine.Close()
	}
	if f.embedded != nil {
		if err := f.embedded.Stop(); err != nil {
			return fmt.Errorf("stopping embedded postgres: %w", err)
		}
	}
	return nil
}
