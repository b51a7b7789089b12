package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/pgfixture/internal/ciutil"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key when read from the environment,
// e.g. database.url -> PGFIXTURE_DATABASE_URL.
const EnvPrefix = "PGFIXTURE"

// Default values applied before any file or environment source.
const (
	DefaultSchema          = "public"
	DefaultMigrationsDir   = "./migrations"
	DefaultTarget          = "heads"
	DefaultMigrationsTable = "schema_migrations"
	DefaultMaxConns        = 4
	DefaultConnectTimeout  = "5s"
	DefaultEmbeddedPort    = 15433
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

// ErrMissingDatabaseURL is returned when no database URL is configured and
// embedded mode is off.
var ErrMissingDatabaseURL = errors.New("database URL is not configured")

// keys lists every configuration key so that environment variables are bound
// even when no default or file value exists for them.
var keys = []string{
	"database.url",
	"database.schema",
	"database.max_conns",
	"database.connect_timeout",
	"database.embedded",
	"database.embedded_port",
	"database.embedded_data_dir",
	"migrations.dir",
	"migrations.target",
	"migrations.table_name",
	"log.level",
	"log.format",
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// ConfigFile is an explicit path to a config file. When empty, Load looks
	// for pgfixture.{yaml,toml,json} in the working directory and ignores its absence.
	ConfigFile string

	// Overrides are applied last and win over every other source.
	Overrides map[string]any
}

// Load configuration from defaults, an optional config file, and environment variables.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions is Load with an explicit config file and overrides.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("pgfixture")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Fall back to the conventional database URL variables
	if cfg.Database.URL == "" {
		cfg.Database.URL = ciutil.GetTestDatabaseURL(nil)
	}
	if cfg.Database.URL == "" && !cfg.Database.Embedded {
		return nil, fmt.Errorf("config validation failed: %w (set %s or enable database.embedded)",
			ErrMissingDatabaseURL, ciutil.EnvFixtureDatabaseURL)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its validation tags.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.schema", DefaultSchema)
	v.SetDefault("database.max_conns", DefaultMaxConns)
	v.SetDefault("database.connect_timeout", DefaultConnectTimeout)
	v.SetDefault("database.embedded", false)
	v.SetDefault("database.embedded_port", DefaultEmbeddedPort)
	v.SetDefault("migrations.dir", DefaultMigrationsDir)
	v.SetDefault("migrations.target", DefaultTarget)
	v.SetDefault("migrations.table_name", DefaultMigrationsTable)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}
