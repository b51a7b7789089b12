package ciutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// GoModFile marks a module root.
const GoModFile = "go.mod"

var (
	ErrProjectRootNotFound = errors.New("unable to find project root")
	ErrInvalidProjectRoot  = errors.New("invalid project root: no go.mod file found")

	ErrMigrationsDirNotFound = errors.New("migrations directory not found")
)

// FindProjectRoot returns the root of the Go module the tests run in: the
// PGFIXTURE_PROJECT_ROOT directory when set, otherwise the nearest directory
// at or above the working directory that holds a go.mod. go test runs in the
// package directory, so a module nested inside a larger repository resolves
// to its own root.
func FindProjectRoot(logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if root := os.Getenv(EnvProjectRoot); root != "" {
		if !isValidProjectRoot(root) {
			return "", fmt.Errorf("%w at %s", ErrInvalidProjectRoot, root)
		}
		logger.Debug("project root from environment",
			"env", EnvProjectRoot,
			"project_root", root,
		)
		return root, nil
	}

	workingDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for dir := workingDir; ; {
		if fileExists(filepath.Join(dir, GoModFile)) {
			logger.Debug("found project root", "project_root", dir)
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w: no %s at or above %s", ErrProjectRootNotFound, GoModFile, workingDir)
}

func isValidProjectRoot(dir string) bool {
	return dirExists(dir) && fileExists(filepath.Join(dir, GoModFile))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ResolvePath resolves p against root. Absolute paths are returned unchanged.
func ResolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// FindMigrationsDir resolves migrationsDir relative to the project root and
// verifies that it exists.
func FindMigrationsDir(migrationsDir string, logger *slog.Logger) (string, error) {
	if filepath.IsAbs(migrationsDir) {
		if !dirExists(migrationsDir) {
			return "", fmt.Errorf("%w at %s", ErrMigrationsDirNotFound, migrationsDir)
		}
		return filepath.Clean(migrationsDir), nil
	}

	projectRoot, err := FindProjectRoot(logger)
	if err != nil {
		return "", fmt.Errorf("failed to find project root: %w", err)
	}

	migrationsPath := ResolvePath(projectRoot, migrationsDir)

	if logger != nil {
		logger.Debug("Resolved migrations directory path",
			"project_root", projectRoot,
			"migrations_path", migrationsPath,
		)
	}

	if !dirExists(migrationsPath) {
		return "", fmt.Errorf("%w at %s", ErrMigrationsDirNotFound, migrationsPath)
	}

	return migrationsPath, nil
}
