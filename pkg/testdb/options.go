package testdb

import (
	"log/slog"
	"strconv"

	"github.com/phrazzld/pgfixture/internal/migrate"
)

// Target names the migration state a Fixture brings the schema to.
type Target = migrate.Target

const (
	// Heads applies every pending migration, including ones older than the
	// current version that were merged from another branch.
	Heads = migrate.Heads
	// Latest applies pending migrations in order and fails on missing ones.
	Latest = migrate.Latest
)

// Version targets an explicit migration version.
func Version(v int64) Target {
	return Target(strconv.FormatInt(v, 10))
}

// Options configures a Fixture. Zero values fall back to the test flags, then
// to the environment and config file, then to defaults.
type Options struct {
	DatabaseURL   string
	Schema        string
	MigrationsDir string
	// RootDir anchors a relative MigrationsDir. Defaults to the directory
	// holding go.mod.
	RootDir    string
	Target     Target
	TableName  string
	ConfigFile string
	MaxConns   int32
	Embedded   bool
	Logger     *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithDatabaseURL sets the connection string.
func WithDatabaseURL(url string) Option {
	return func(o *Options) { o.DatabaseURL = url }
}

// WithSchema sets the schema that is wiped and migrated.
func WithSchema(schema string) Option {
	return func(o *Options) { o.Schema = schema }
}

// WithMigrationsDir sets the migrations directory.
func WithMigrationsDir(dir string) Option {
	return func(o *Options) { o.MigrationsDir = dir }
}

// WithRootDir sets the directory a relative migrations directory is resolved against.
func WithRootDir(dir string) Option {
	return func(o *Options) { o.RootDir = dir }
}

// WithTarget sets the migration target. The default is Heads.
func WithTarget(target Target) Option {
	return func(o *Options) { o.Target = target }
}

// WithTableName sets the migration version table.
func WithTableName(name string) Option {
	return func(o *Options) { o.TableName = name }
}

// WithConfigFile reads configuration from an explicit file.
func WithConfigFile(path string) Option {
	return func(o *Options) { o.ConfigFile = path }
}

// WithMaxConns bounds the connection pool, and with it how many sessions
// can be open at once.
func WithMaxConns(n int32) Option {
	return func(o *Options) { o.MaxConns = n }
}

// WithEmbedded starts an embedded PostgreSQL server when no URL is configured.
func WithEmbedded() Option {
	return func(o *Options) { o.Embedded = true }
}

// WithLogger sets the logger. By default one is built from the log config.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// overrides maps the set options and flags onto config keys. Options win
// over flags.
func (o Options) overrides(flags flagValues) map[string]any {
	out := map[string]any{}
	set := func(key, option, flag string) {
		switch {
		case option != "":
			out[key] = option
		case flag != "":
			out[key] = flag
		}
	}

	set("database.url", o.DatabaseURL, flags.databaseURL)
	set("database.schema", o.Schema, flags.schema)
	set("migrations.dir", o.MigrationsDir, flags.migrationsDir)
	set("migrations.target", string(o.Target), flags.target)
	set("migrations.table_name", o.TableName, "")

	if o.MaxConns > 0 {
		out["database.max_conns"] = o.MaxConns
	}
	if o.Embedded {
		out["database.embedded"] = true
	}
	return out
}
