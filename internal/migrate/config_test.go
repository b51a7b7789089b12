package migrate

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableNameDefault(t *testing.T) {
	assert.Equal(t, DefaultTableName, Config{}.tableName())
	assert.Equal(t, "goose_db_version", Config{TableName: "goose_db_version"}.tableName())
}

func TestConnString(t *testing.T) {
	t.Run("public schema leaves URL untouched", func(t *testing.T) {
		cfg := Config{URL: "postgres://u:p@localhost:5432/db?sslmode=disable", Schema: "public"}
		got, err := cfg.connString()
		require.NoError(t, err)
		assert.Equal(t, cfg.URL, got)
	})

	t.Run("URL form gets search_path query parameter", func(t *testing.T) {
		cfg := Config{URL: "postgres://u:p@localhost:5432/db?sslmode=disable", Schema: "fixtures"}
		got, err := cfg.connString()
		require.NoError(t, err)

		u, err := url.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, `"fixtures"`, u.Query().Get("search_path"))
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
	})

	t.Run("keyword form gets quoted search_path", func(t *testing.T) {
		cfg := Config{URL: "host=localhost dbname=db", Schema: "it's"}
		got, err := cfg.connString()
		require.NoError(t, err)
		assert.Equal(t, `host=localhost dbname=db search_path='"it\'s"'`, got)
	})

	t.Run("unparseable URL", func(t *testing.T) {
		cfg := Config{URL: "postgres://u:p@[::1/db", Schema: "fixtures"}
		_, err := cfg.connString()
		assert.Error(t, err)
	})
}
