//go:build integration

package testdb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/pgfixture/internal/migrate"
	"github.com/phrazzld/pgfixture/internal/platform/logger"
	"github.com/phrazzld/pgfixture/internal/schema"
	"github.com/phrazzld/pgfixture/pkg/store"
	"github.com/phrazzld/pgfixture/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureOptions = []testdb.Option{
	testdb.WithRootDir("."),
	testdb.WithMigrationsDir("testdata/migrations"),
	testdb.WithLogger(logger.Discard()),
}

func TestMain(m *testing.M) {
	testdb.Main(m, fixtureOptions...)
}

// requireDB skips tests that use the shared fixture directly when Main found
// no database.
func requireDB(t *testing.T) *testdb.Fixture {
	t.Helper()
	f := testdb.Shared()
	if f.Pool() == nil {
		t.Skip("no database configured")
	}
	return f
}

func countAuthors(t *testing.T, db store.DBTX) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(context.Background(), "SELECT COUNT(*) FROM authors").Scan(&n))
	return n
}

func publicColumns(t *testing.T, db store.DBTX) []string {
	t.Helper()
	rows, err := db.Query(context.Background(),
		`SELECT table_name || '.' || column_name
		   FROM information_schema.columns
		  WHERE table_schema = 'public'
		  ORDER BY table_name, ordinal_position`)
	require.NoError(t, err)
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	require.NoError(t, err)
	return cols
}

func queryStrings(t *testing.T, db store.DBTX, sql string) []string {
	t.Helper()
	rows, err := db.Query(context.Background(), sql)
	require.NoError(t, err)
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	require.NoError(t, err)
	return out
}

// schemaSnapshot describes everything a reset and migrate produces in the
// public schema, including the applied migration versions. Nullability is
// read from the columns because older servers name NOT NULL constraints
// after table OIDs.
func schemaSnapshot(t *testing.T, db store.DBTX) map[string][]string {
	t.Helper()
	return map[string][]string{
		"columns": queryStrings(t, db, `
			SELECT table_name || '.' || column_name || ' ' || data_type || ' ' ||
			       is_nullable || ' ' || coalesce(column_default, '')
			  FROM information_schema.columns
			 WHERE table_schema = 'public'
			 ORDER BY table_name, ordinal_position`),
		"indexes": queryStrings(t, db, `
			SELECT indexdef
			  FROM pg_indexes
			 WHERE schemaname = 'public'
			 ORDER BY tablename, indexname`),
		"constraints": queryStrings(t, db, `
			SELECT table_name || '.' || constraint_name || ' ' || constraint_type
			  FROM information_schema.table_constraints
			 WHERE table_schema = 'public'
			   AND constraint_name NOT LIKE '%!_not!_null' ESCAPE '!'
			 ORDER BY table_name, constraint_name`),
		"sequences": queryStrings(t, db, `
			SELECT sequence_name || ' ' || data_type
			  FROM information_schema.sequences
			 WHERE sequence_schema = 'public'
			 ORDER BY sequence_name`),
		"versions": queryStrings(t, db, `
			SELECT version_id::text || ' ' || is_applied::text
			  FROM `+pgx.Identifier{"public", migrate.DefaultTableName}.Sanitize()+`
			 ORDER BY id`),
	}
}

func TestCommittedWorkIsNotVisibleToOtherSessions(t *testing.T) {
	ctx := context.Background()
	first := testdb.Open(t)

	_, err := first.Exec(ctx, "INSERT INTO authors (name) VALUES ($1)", "Octavia Butler")
	require.NoError(t, err)
	require.NoError(t, first.Commit(ctx))
	assert.Equal(t, 1, countAuthors(t, first))

	second := testdb.Open(t)
	assert.Equal(t, 0, countAuthors(t, second))

	require.NoError(t, first.Close(ctx))
	third := testdb.Open(t)
	assert.Equal(t, 0, countAuthors(t, third), "closing the session undoes committed work")
}

func TestRunInTransactionWithinSession(t *testing.T) {
	ctx := context.Background()
	var authorID int64

	err := requireDB(t).WithSession(ctx, func(ctx context.Context, s *testdb.Session) error {
		err := store.RunInTransaction(ctx, s, func(ctx context.Context, tx pgx.Tx) error {
			if err := tx.QueryRow(ctx,
				"INSERT INTO authors (name) VALUES ($1) RETURNING id", "N. K. Jemisin",
			).Scan(&authorID); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO books (author_id, title) VALUES ($1, $2)", authorID, "The Fifth Season")
			return err
		})
		require.NoError(t, err)

		var books int
		require.NoError(t, s.QueryRow(ctx, "SELECT COUNT(*) FROM books").Scan(&books))
		assert.Equal(t, 1, books)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 0, countAuthors(t, testdb.Open(t)))
}

func TestRollbackRecoversFromFailedStatement(t *testing.T) {
	ctx := context.Background()
	s := testdb.Open(t)

	_, err := s.Exec(ctx, "INSERT INTO authors (name) VALUES ('Ann Leckie')")
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx))

	_, err = s.Exec(ctx, "INSERT INTO authors (name) VALUES ('Ann Leckie')")
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23505", pgErr.Code)

	require.NoError(t, s.Rollback(ctx))
	assert.Equal(t, 1, countAuthors(t, s), "work committed before the failure survives the rollback")
}

func TestRawCommitIsRejected(t *testing.T) {
	_, err := testdb.Open(t).Exec(context.Background(), "COMMIT")
	assert.ErrorIs(t, err, testdb.ErrTransactionControl)
}

func TestSessionReleasedAfterPanic(t *testing.T) {
	f := requireDB(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = f.WithSession(ctx, func(ctx context.Context, s *testdb.Session) error {
			_, _ = s.Exec(ctx, "INSERT INTO authors (name) VALUES ('Iain Banks')")
			panic("test failure")
		})
	})

	assert.Zero(t, f.Pool().Stat().AcquiredConns())
	assert.Equal(t, 0, countAuthors(t, testdb.Open(t)))
}

func TestResetLeavesOnlyMigratedObjects(t *testing.T) {
	cols := publicColumns(t, testdb.Open(t))

	assert.Contains(t, cols, "authors.name")
	assert.Contains(t, cols, "books.author_id")

	rows, err := testdb.Shared().Pool().Query(context.Background(),
		"SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename")
	require.NoError(t, err)
	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	require.NoError(t, err)
	assert.Equal(t, []string{"authors", "books", migrate.DefaultTableName}, tables)
}

func TestResetIsIdempotentOverForeignKeys(t *testing.T) {
	ctx := context.Background()
	pool := requireDB(t).Pool()

	// Leave real, committed rows behind so the drop has dependents to cascade through
	_, err := pool.Exec(ctx, "INSERT INTO authors (name) VALUES ('Gene Wolfe')")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, "INSERT INTO books (author_id, title) SELECT id, 'Shadow' FROM authors")
	require.NoError(t, err)

	before := schemaSnapshot(t, pool)
	require.NotEmpty(t, before["indexes"])
	require.NotEmpty(t, before["versions"])

	again := testdb.New(fixtureOptions...)
	require.NoError(t, again.Setup(ctx))
	t.Cleanup(func() { _ = again.Close() })

	after := schemaSnapshot(t, again.Pool())
	for _, part := range []string{"columns", "indexes", "constraints", "sequences", "versions"} {
		assert.Equal(t, before[part], after[part], part)
	}
	assert.Equal(t, 0, countAuthors(t, again.Pool()))
}

func TestHeadsAppliesBranchMigrations(t *testing.T) {
	ctx := context.Background()
	pool := requireDB(t).Pool()
	const branchSchema = "pgfixture_branches"

	require.NoError(t, schema.Wipe(ctx, pool, branchSchema))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+pgx.Identifier{branchSchema}.Sanitize()+" CASCADE")
	})

	cfg := func(dir string) migrate.Config {
		return migrate.Config{
			ScriptLocation: dir,
			URL:            testdb.Shared().URL(),
			Schema:         branchSchema,
		}
	}

	require.NoError(t, migrate.Upgrade(ctx, cfg("testdata/branches/trunk"), migrate.Latest, logger.Discard()))

	err := migrate.Upgrade(ctx, cfg("testdata/branches/merged"), migrate.Latest, logger.Discard())
	require.Error(t, err, "latest refuses a migration older than the current version")

	require.NoError(t, migrate.Upgrade(ctx, cfg("testdata/branches/merged"), migrate.Heads, logger.Discard()))

	var exists bool
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT FROM pg_tables WHERE schemaname = $1 AND tablename = 'gadgets')",
		branchSchema,
	).Scan(&exists))
	assert.True(t, exists)

	runner, err := migrate.NewRunner(cfg("testdata/branches/merged"), logger.Discard())
	require.NoError(t, err)
	version, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
}
