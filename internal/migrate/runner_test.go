package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/pgfixture/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunner(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "00001_init.sql")
	require.NoError(t, os.WriteFile(file, []byte("-- +goose Up\n"), 0o600))

	t.Run("valid", func(t *testing.T) {
		r, err := NewRunner(Config{ScriptLocation: dir, URL: "postgres://localhost/db"}, nil)
		require.NoError(t, err)
		assert.NotNil(t, r.logger)
	})

	t.Run("missing URL", func(t *testing.T) {
		_, err := NewRunner(Config{ScriptLocation: dir}, logger.Discard())
		assert.ErrorIs(t, err, ErrMissingURL)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewRunner(Config{
			ScriptLocation: filepath.Join(dir, "nope"),
			URL:            "postgres://localhost/db",
		}, logger.Discard())
		assert.ErrorIs(t, err, ErrScriptLocationNotFound)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		_, err := NewRunner(Config{ScriptLocation: file, URL: "postgres://localhost/db"}, logger.Discard())
		assert.ErrorIs(t, err, ErrScriptLocationNotFound)
	})
}

func TestUpgradeRejectsInvalidTargetBeforeConnecting(t *testing.T) {
	// Nothing listens on this address; a connection attempt would fail differently.
	r, err := NewRunner(Config{
		ScriptLocation: t.TempDir(),
		URL:            "postgres://u:p@127.0.0.1:1/db?connect_timeout=1",
	}, logger.Discard())
	require.NoError(t, err)

	err = r.Upgrade(context.Background(), Target("base"))
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestFormatMigrationError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00001_init.sql"), nil, 0o600))
	base := errors.New("relation already exists")

	err := formatMigrationError(base, dir)

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "00001_init.sql")
	assert.Contains(t, err.Error(), dir)

	err = formatMigrationError(base, filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "unreadable")
}
