// Package testdb provides PostgreSQL fixtures for Go tests.
//
// A Fixture wipes a schema and replays the project's migrations once, then
// hands out Sessions: each Session holds one pooled connection and one
// transaction that is rolled back when the Session closes, so nothing a
// test writes outlives it, including work it committed.
//
// The usual wiring is a TestMain plus a call per test:
//
//	func TestMain(m *testing.M) {
//		testdb.Main(m)
//	}
//
//	func TestCreateAuthor(t *testing.T) {
//		db := testdb.Open(t)
//		_, err := db.Exec(context.Background(), "INSERT INTO authors (name) VALUES ($1)", "Le Guin")
//		require.NoError(t, err)
//	}
//
// Session satisfies store.DBTX and store.Beginner from
// github.com/phrazzld/pgfixture/pkg/store, so repositories written against
// those interfaces run unchanged inside a test, store.RunInTransaction
// included.
//
// The migrations directory, schema and database URL come from Options, then
// the -pgfixture.* test flags, then PGFIXTURE_* environment variables or a
// pgfixture config file. Tests are skipped when no database URL is found.
package testdb
