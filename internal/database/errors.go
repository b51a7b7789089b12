package database

import (
	"fmt"
	"os"

	"github.com/phrazzld/pgfixture/internal/ciutil"
)

// formatDBConnectionError creates a detailed error message for database connection failures.
// It includes the masked connection string, environment details, and troubleshooting guidance.
// The original error stays reachable through errors.Is/As.
func formatDBConnectionError(baseErr error, dbURL string) error {
	return fmt.Errorf("database connection failed: %w\n"+
		"Database URL used: %s (masked)\n"+
		"CI environment: %v\nCurrent working directory: %s\n"+
		"Please check:\n"+
		"1. PostgreSQL service is running\n"+
		"2. Credentials and connection string are correct\n"+
		"3. Database exists and is accessible\n"+
		"4. Network connectivity and firewall settings",
		baseErr, ciutil.MaskSensitiveValue(dbURL), ciutil.IsCI(), currentDir())
}

func currentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "<unknown>"
	}
	return dir
}
