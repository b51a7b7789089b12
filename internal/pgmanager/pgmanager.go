// Package pgmanager runs a throwaway embedded PostgreSQL server for test runs
// that have no external database configured.
package pgmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
)

// Config holds settings for the embedded Postgres manager.
type Config struct {
	Port        uint32 // default 15433
	DataDir     string // data directory (default: fresh temp dir, removed on Stop)
	BinCacheDir string // binary cache directory (default: <user cache>/pgfixture/pg)
	Logger      *slog.Logger
}

const (
	dbName      = "pgfixture"
	dbUser      = "pgfixture"
	dbPass      = "pgfixture"
	defaultPort = 15433
)

// ErrNotRunning is returned by ConnURL when Start has not succeeded.
var ErrNotRunning = errors.New("embedded postgres is not running")

// postgresProcess is the part of *embeddedpostgres.EmbeddedPostgres the manager drives.
type postgresProcess interface {
	Start() error
	Stop() error
}

// Manager manages the lifecycle of an embedded PostgreSQL child process.
type Manager struct {
	cfg     Config
	db      postgresProcess
	connURL string
	running bool
	logger  *slog.Logger

	// removed on Stop when the manager created them
	tempDirs []string

	newProcess func(embeddedpostgres.Config) postgresProcess
}

// New creates a new Manager. Does not start anything.
func New(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		logger: cfg.Logger,
		newProcess: func(c embeddedpostgres.Config) postgresProcess {
			return embeddedpostgres.NewDatabase(c)
		},
	}
}

// Start downloads PG binaries (on first run), initializes the data directory,
// starts the PostgreSQL child process, and returns a connection URL.
func (m *Manager) Start(ctx context.Context) (string, error) {
	if m.running {
		return m.connURL, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dataDir := m.cfg.DataDir
	if dataDir == "" {
		dir, err := os.MkdirTemp("", "pgfixture-data-")
		if err != nil {
			return "", fmt.Errorf("creating data directory: %w", err)
		}
		m.tempDirs = append(m.tempDirs, dir)
		dataDir = dir
	}

	runtimeDir, err := os.MkdirTemp("", "pgfixture-run-")
	if err != nil {
		m.removeTempDirs()
		return "", fmt.Errorf("creating runtime directory: %w", err)
	}
	m.tempDirs = append(m.tempDirs, runtimeDir)

	cacheDir := m.cfg.BinCacheDir
	if cacheDir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			m.removeTempDirs()
			return "", fmt.Errorf("resolving user cache directory: %w", err)
		}
		cacheDir = filepath.Join(userCache, "pgfixture", "pg")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		m.removeTempDirs()
		return "", fmt.Errorf("creating directory %s: %w", cacheDir, err)
	}

	port := m.cfg.Port
	if port == 0 {
		port = defaultPort
	}

	m.db = m.newProcess(embeddedpostgres.DefaultConfig().
		Port(port).
		DataPath(dataDir).
		RuntimePath(runtimeDir).
		CachePath(cacheDir).
		Version(embeddedpostgres.V16).
		Database(dbName).
		Username(dbUser).
		Password(dbPass).
		Logger(newLogWriter(m.logger)).
		StartTimeout(60 * time.Second))

	if err := m.db.Start(); err != nil {
		m.removeTempDirs()
		return "", fmt.Errorf("starting embedded postgres: %w", err)
	}

	m.connURL = fmt.Sprintf("postgresql://%s:%s@127.0.0.1:%d/%s?sslmode=disable",
		dbUser, dbPass, port, dbName)
	m.running = true

	m.logger.Info("embedded postgres started",
		"port", port,
		"data", dataDir,
	)
	return m.connURL, nil
}

// Stop shuts down the embedded PostgreSQL child process and removes the
// directories the manager created.
func (m *Manager) Stop() error {
	if !m.running || m.db == nil {
		return nil
	}

	m.logger.Info("stopping embedded postgres")
	err := m.db.Stop()
	m.running = false
	m.removeTempDirs()

	if err != nil {
		return fmt.Errorf("stopping embedded postgres: %w", err)
	}
	return nil
}

// ConnURL returns the connection URL. Only valid after Start succeeds.
func (m *Manager) ConnURL() (string, error) {
	if !m.running {
		return "", ErrNotRunning
	}
	return m.connURL, nil
}

// IsRunning returns true if the embedded Postgres is currently running.
func (m *Manager) IsRunning() bool {
	return m.running
}

func (m *Manager) removeTempDirs() {
	for _, dir := range m.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			m.logger.Warn("failed to remove temporary directory", "dir", dir, "error", err)
		}
	}
	m.tempDirs = nil
}

// logWriter forwards postgres server output to slog at debug level.
type logWriter struct {
	logger *slog.Logger
}

func newLogWriter(logger *slog.Logger) *logWriter {
	return &logWriter{logger: logger}
}

func (w *logWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n\r")
	if msg != "" {
		w.logger.Debug("postgres", "output", msg)
	}
	return len(p), nil
}
