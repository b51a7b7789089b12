package migrate

import (
	"fmt"
	"os"

	"github.com/phrazzld/pgfixture/internal/ciutil"
)

// formatMigrationError creates a detailed error message when database migrations fail.
// It lists the migration files found and common causes; the goose error stays wrapped.
func formatMigrationError(baseErr error, scriptLocation string) error {
	dirState := "exists"
	migrationFiles := ""
	if entries, err := os.ReadDir(scriptLocation); err != nil {
		dirState = "unreadable"
	} else {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if !entry.IsDir() {
				names = append(names, entry.Name())
			}
		}
		migrationFiles = fmt.Sprintf("\nMigration files: %v", names)
	}

	return fmt.Errorf("failed to run database migrations: %w\n"+
		"Migrations directory: %s (%s)%s\n"+
		"CI environment: %v\n"+
		"Please check:\n"+
		"1. Migrations directory path is correct\n"+
		"2. Migration files exist and are valid\n"+
		"3. Database connection is working\n"+
		"4. Database user has permissions to create tables and modify schema",
		baseErr, scriptLocation, dirState, migrationFiles, ciutil.IsCI())
}
