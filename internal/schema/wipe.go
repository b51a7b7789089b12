package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultName is the schema wiped when none is configured.
const DefaultName = "public"

// maxIdentifierLength is PostgreSQL's NAMEDATALEN - 1.
const maxIdentifierLength = 63

// ErrInvalidSchemaName is returned for names that cannot or must not be dropped.
var ErrInvalidSchemaName = errors.New("invalid schema name")

// Execer runs a single statement outside any explicit transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// ValidateName rejects empty or over-long names and PostgreSQL's system schemas.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidSchemaName)
	case len(name) > maxIdentifierLength:
		return fmt.Errorf("%w: %q is longer than %d bytes", ErrInvalidSchemaName, name, maxIdentifierLength)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: contains NUL", ErrInvalidSchemaName)
	case strings.HasPrefix(strings.ToLower(name), "pg_"), strings.EqualFold(name, "information_schema"):
		return fmt.Errorf("%w: %q is a system schema", ErrInvalidSchemaName, name)
	}
	return nil
}

// Wipe drops schema with everything in it and creates it again, empty.
// The two statements are sent separately so the drop is committed before
// the create runs.
func Wipe(ctx context.Context, exec Execer, schema string) error {
	if err := ValidateName(schema); err != nil {
		return err
	}

	ident := pgx.Identifier{schema}.Sanitize()

	if _, err := exec.Exec(ctx, "DROP SCHEMA IF EXISTS "+ident+" CASCADE"); err != nil {
		return fmt.Errorf("dropping schema %s: %w", ident, err)
	}
	if _, err := exec.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		return fmt.Errorf("creating schema %s: %w", ident, err)
	}
	return nil
}
