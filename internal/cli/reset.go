package cli

import (
	"fmt"

	"github.com/phrazzld/pgfixture/internal/database"
	"github.com/phrazzld/pgfixture/internal/migrate"
	"github.com/phrazzld/pgfixture/internal/schema"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the schema, then apply all migrations",
	Long: `Drop the configured schema with everything in it, create it again, and
apply every migration up to the configured target (heads by default).

All data in the schema is lost.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	e, err := setupEnv(cmd)
	if err != nil {
		return err
	}

	target, err := migrate.ParseTarget(e.cfg.Migrations.Target)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	engine, err := database.Open(ctx, database.Config{
		URL:            e.cfg.Database.URL,
		MaxConns:       1,
		ConnectTimeout: e.cfg.Database.ConnectTimeout,
	}, e.logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	runner, err := migrate.NewRunner(e.migrateConfig(), e.logger)
	if err != nil {
		return err
	}

	if err := schema.NewResetter(engine, runner, e.cfg.Database.Schema, target, e.logger).Reset(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Schema %s reset and migrated to %s.\n", e.cfg.Database.Schema, target)
	return nil
}
