// Package migrate applies schema migrations with goose.
//
// A Runner is configured the way a migration tool is usually configured: a
// script location (the directory holding the migration files) and a
// connection string. Upgrade brings the database to a Target. The default
// target, Heads, applies every pending migration including ones whose
// version sorts before the current database version, which is how migration
// histories merged from divergent branches get fully applied.
package migrate
