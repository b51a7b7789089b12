package cli

import (
	"fmt"

	"github.com/phrazzld/pgfixture/internal/migrate"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status (applied/pending)",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := setupEnv(cmd)
	if err != nil {
		return err
	}

	runner, err := migrate.NewRunner(e.migrateConfig(), e.logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	// goose writes the per-migration table through the logger
	if err := runner.Status(ctx); err != nil {
		return fmt.Errorf("getting status: %w", err)
	}

	version, err := runner.Version(ctx)
	if err != nil {
		return fmt.Errorf("reading database version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database at version %d.\n", version)
	return nil
}
