package migrate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
)

// DefaultTableName is the name of the table goose uses to track applied migrations.
const DefaultTableName = "schema_migrations"

// Config mirrors a migration tool configuration: where the scripts live and
// which database to apply them to.
type Config struct {
	// ScriptLocation is the directory holding the migration files.
	ScriptLocation string
	// URL is the connection string of the database to migrate.
	URL string
	// TableName defaults to DefaultTableName. It is created unqualified, so
	// it lives in Schema like the migrated objects.
	TableName string
	// Schema, when set and not "public", becomes the search_path of the
	// migration connection so unqualified objects land in it.
	Schema string
}

func (c Config) tableName() string {
	if c.TableName == "" {
		return DefaultTableName
	}
	return c.TableName
}

// connString returns URL with search_path set for non-public schemas.
// Both URL and keyword/value connection strings are supported.
func (c Config) connString() (string, error) {
	if c.Schema == "" || c.Schema == "public" {
		return c.URL, nil
	}

	searchPath := pgx.Identifier{c.Schema}.Sanitize()

	if strings.Contains(c.URL, "://") {
		u, err := url.Parse(c.URL)
		if err != nil {
			return "", fmt.Errorf("parsing database URL: %w", err)
		}
		q := u.Query()
		q.Set("search_path", searchPath)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	// keyword/value DSN; quote the value per libpq rules
	value := strings.ReplaceAll(strings.ReplaceAll(searchPath, `\`, `\\`), `'`, `\'`)
	return strings.TrimSpace(c.URL) + " search_path='" + value + "'", nil
}
