package cli

import (
	"fmt"

	"github.com/phrazzld/pgfixture/internal/migrate"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [target]",
	Short: "Apply pending migrations without wiping the schema",
	Long: `Apply pending migrations. The target is one of:

  heads    every pending migration, including ones older than the current
           version (default)
  latest   pending migrations newer than the current version only
  <n>      migrations up to and including version n`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	e, err := setupEnv(cmd)
	if err != nil {
		return err
	}

	raw := e.cfg.Migrations.Target
	if len(args) == 1 {
		raw = args[0]
	}
	target, err := migrate.ParseTarget(raw)
	if err != nil {
		return err
	}

	runner, err := migrate.NewRunner(e.migrateConfig(), e.logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := runner.Upgrade(ctx, target); err != nil {
		return err
	}

	version, err := runner.Version(ctx)
	if err != nil {
		return fmt.Errorf("reading database version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database at version %d.\n", version)
	return nil
}
