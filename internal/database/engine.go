package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phrazzld/pgfixture/internal/ciutil"
)

// DefaultConnectTimeout bounds the startup ping when Config.ConnectTimeout is zero.
const DefaultConnectTimeout = 5 * time.Second

// ErrMissingURL is returned by Open when no connection string is given.
var ErrMissingURL = errors.New("database URL is required")

// Conn is the subset of *pgxpool.Conn the fixtures rely on.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Release()
}

// Connector hands out connections. It plays the role of the engine's connect().
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// Config holds database connection parameters.
type Config struct {
	URL            string
	MaxConns       int32
	ConnectTimeout time.Duration

	// SearchPath, when set, is sent as the search_path runtime parameter on
	// every pooled connection.
	SearchPath string
}

// Engine is a long-lived connection factory backed by a pgx pool.
type Engine struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Connector = (*Engine)(nil)

// Open creates the pool, verifies the connection with a ping, and logs the server version.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL %s: %w", ciutil.MaskSensitiveValue(cfg.URL), err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.SearchPath != "" {
		poolCfg.ConnConfig.RuntimeParams["search_path"] = cfg.SearchPath
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, formatDBConnectionError(err, cfg.URL)
	}

	var version string
	if err := pool.QueryRow(pingCtx, "SHOW server_version").Scan(&version); err != nil {
		pool.Close()
		return nil, fmt.Errorf("querying server version: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"version", version,
		"url", ciutil.MaskSensitiveValue(cfg.URL),
		"max_conns", poolCfg.MaxConns,
	)

	return &Engine{pool: pool, logger: logger}, nil
}

// Connect acquires a connection from the pool. The caller must Release it.
func (e *Engine) Connect(ctx context.Context) (Conn, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return conn, nil
}

// Pool returns the underlying pgx pool.
func (e *Engine) Pool() *pgxpool.Pool {
	return e.pool
}

// Close shuts down the pool.
func (e *Engine) Close() {
	e.pool.Close()
	e.logger.Debug("database connection pool closed")
}
