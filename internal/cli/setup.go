package cli

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/pgfixture/internal/ciutil"
	"github.com/phrazzld/pgfixture/internal/config"
	"github.com/phrazzld/pgfixture/internal/migrate"
	"github.com/phrazzld/pgfixture/internal/platform/logger"
	"github.com/spf13/cobra"
)

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"database-url":   "database.url",
	"migrations-dir": "migrations.dir",
	"schema":         "database.schema",
}

// env bundles what every database command needs.
type env struct {
	cfg           *config.Config
	logger        *slog.Logger
	migrationsDir string
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var configPath string
	if f := cmd.Flag("config"); f != nil {
		configPath = f.Value.String()
	}

	overrides := map[string]any{}
	for flag, key := range flagKeys {
		if f := cmd.Flag(flag); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigFile: configPath,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("%w (the command line does not start an embedded server; pass --database-url)",
			config.ErrMissingDatabaseURL)
	}
	return cfg, nil
}

func setupEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, err
	}

	dir, err := ciutil.FindMigrationsDir(cfg.Migrations.Dir, log)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, logger: log, migrationsDir: dir}, nil
}

func (e *env) migrateConfig() migrate.Config {
	return migrate.Config{
		ScriptLocation: e.migrationsDir,
		URL:            e.cfg.Database.URL,
		TableName:      e.cfg.Migrations.TableName,
		Schema:         e.cfg.Database.Schema,
	}
}
