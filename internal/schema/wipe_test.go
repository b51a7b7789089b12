package schema_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/pgfixture/internal/mocks"
	"github.com/phrazzld/pgfixture/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	valid := []string{"public", "fixtures", "Mixed Case", `we"ird`, strings.Repeat("a", 63)}
	for _, name := range valid {
		assert.NoError(t, schema.ValidateName(name), name)
	}

	invalid := []string{"", "pg_catalog", "PG_TOAST", "information_schema", "nul\x00byte", strings.Repeat("a", 64)}
	for _, name := range invalid {
		err := schema.ValidateName(name)
		assert.ErrorIs(t, err, schema.ErrInvalidSchemaName, "%q", name)
	}
}

func TestWipeIssuesDropThenCreate(t *testing.T) {
	log := &mocks.CallLog{}
	conn := mocks.NewMockConn(log)

	require.NoError(t, schema.Wipe(context.Background(), conn, "public"))

	assert.Equal(t, []string{
		`exec DROP SCHEMA IF EXISTS "public" CASCADE`,
		`exec CREATE SCHEMA "public"`,
	}, log.Calls())
}

func TestWipeQuotesIdentifier(t *testing.T) {
	log := &mocks.CallLog{}
	conn := mocks.NewMockConn(log)

	require.NoError(t, schema.Wipe(context.Background(), conn, `a"; DROP DATABASE x; --`))

	assert.Equal(t, `exec CREATE SCHEMA "a""; DROP DATABASE x; --"`, log.Calls()[1])
}

func TestWipeStopsOnDropError(t *testing.T) {
	log := &mocks.CallLog{}
	conn := mocks.NewMockConn(log)
	dropErr := &pgconn.PgError{Code: "42501", Message: "must be owner of schema public"}
	conn.ExecFn = func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, dropErr
	}

	err := schema.Wipe(context.Background(), conn, "public")

	require.Error(t, err)
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "42501", pgErr.Code)
	assert.Len(t, log.Calls(), 1, "CREATE must not run after a failed DROP")
}

func TestWipeCreateError(t *testing.T) {
	conn := mocks.NewMockConn(nil)
	createErr := errors.New("create failed")
	conn.ExecFn = func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		if strings.HasPrefix(sql, "CREATE") {
			return pgconn.CommandTag{}, createErr
		}
		return pgconn.NewCommandTag("DROP SCHEMA"), nil
	}

	err := schema.Wipe(context.Background(), conn, "public")
	assert.ErrorIs(t, err, createErr)
}

func TestWipeRejectsSystemSchema(t *testing.T) {
	log := &mocks.CallLog{}
	conn := mocks.NewMockConn(log)

	err := schema.Wipe(context.Background(), conn, "pg_catalog")

	assert.ErrorIs(t, err, schema.ErrInvalidSchemaName)
	assert.Empty(t, log.Calls())
}
