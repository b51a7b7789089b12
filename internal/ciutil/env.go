package ciutil

import (
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// Common environment variable names used across the codebase.
// These constants ensure consistent access and prevent typos.
const (
	// CI environment detection variables
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvTravisCI      = "TRAVIS"
	EnvCircleCI      = "CIRCLECI"

	// Project-specific environment variables
	EnvProjectRoot = "PGFIXTURE_PROJECT_ROOT"

	// Database connection environment variables, in order of precedence
	EnvFixtureDatabaseURL = "PGFIXTURE_DATABASE_URL" // Preferred name
	EnvDatabaseURL        = "DATABASE_URL"
	EnvTestDatabaseURL    = "TEST_DATABASE_URL"
)

// IsCI returns true if the current environment is a CI environment.
// It checks for common CI environment variables across different CI providers.
func IsCI() bool {
	return os.Getenv(EnvCI) != "" ||
		os.Getenv(EnvGitHubActions) != "" ||
		os.Getenv(EnvGitLabCI) != "" ||
		os.Getenv(EnvJenkinsURL) != "" ||
		os.Getenv(EnvTravisCI) != "" ||
		os.Getenv(EnvCircleCI) != ""
}

// IsGitHubActions returns true if the current environment is GitHub Actions.
func IsGitHubActions() bool {
	return os.Getenv(EnvGitHubActions) != "" && os.Getenv(EnvGitHubWorkspace) != ""
}

// IsGitLabCI returns true if the current environment is GitLab CI.
func IsGitLabCI() bool {
	return os.Getenv(EnvGitLabCI) != "" && os.Getenv(EnvGitLabProjectDir) != ""
}

// CIProvider names the CI system the process runs under, or "local".
func CIProvider() string {
	switch {
	case os.Getenv(EnvGitHubActions) != "":
		return "github_actions"
	case os.Getenv(EnvGitLabCI) != "":
		return "gitlab_ci"
	case os.Getenv(EnvJenkinsURL) != "":
		return "jenkins"
	case os.Getenv(EnvTravisCI) != "":
		return "travis"
	case os.Getenv(EnvCircleCI) != "":
		return "circleci"
	case os.Getenv(EnvCI) != "":
		return "generic"
	default:
		return "local"
	}
}

// GetEnvWithFallbacks returns the value of the first non-empty environment variable
// from the provided list. If no environment variables are set, it returns the defaultValue.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		if val := os.Getenv(envVar); val != "" {
			// Log when a non-primary environment variable is used
			if i > 0 && logger != nil {
				logger.Warn("Using fallback environment variable",
					"used_var", envVar,
					"preferred_var", envVars[0],
					"value", MaskSensitiveValue(val),
				)
			}
			return val
		}
	}
	return defaultValue
}

// MaskSensitiveValue masks credentials in values like database URLs to prevent
// exposing them in logs and error messages.
func MaskSensitiveValue(value string) string {
	if value == "" {
		return ""
	}

	if strings.Contains(value, "://") {
		parsed, err := url.Parse(value)
		if err != nil {
			return "invalid-url"
		}
		if parsed.User != nil {
			if _, hasPassword := parsed.User.Password(); hasPassword {
				parsed.User = url.UserPassword(parsed.User.Username(), "****")
				return parsed.String()
			}
		}
		return value
	}

	// key=value connection strings
	if strings.Contains(value, "password=") {
		fields := strings.Fields(value)
		for i, field := range fields {
			if strings.HasPrefix(field, "password=") {
				fields[i] = "password=****"
			}
		}
		return strings.Join(fields, " ")
	}

	return value
}
