package ciutil

import (
	"log/slog"
	"os"
)

// DatabaseURLEnvVars lists the environment variables consulted for a database
// URL, in order of precedence.
var DatabaseURLEnvVars = []string{EnvFixtureDatabaseURL, EnvDatabaseURL, EnvTestDatabaseURL}

// GetTestDatabaseURL returns a database URL for testing purposes.
// It checks DatabaseURLEnvVars in order and returns the first non-empty value,
// or an empty string if none is set.
func GetTestDatabaseURL(logger *slog.Logger) string {
	for i, envVar := range DatabaseURLEnvVars {
		val := os.Getenv(envVar)
		if val == "" {
			continue
		}

		if logger != nil {
			if i != 0 {
				logger.Debug("Using non-preferred database URL environment variable",
					"used_var", envVar,
					"preferred_var", EnvFixtureDatabaseURL,
					"value", MaskSensitiveValue(val),
				)
			} else {
				logger.Debug("Using database URL from environment variable",
					"var", envVar,
					"value", MaskSensitiveValue(val),
				)
			}
		}
		return val
	}

	if logger != nil {
		logger.Debug("No database URL environment variables found")
	}
	return ""
}
