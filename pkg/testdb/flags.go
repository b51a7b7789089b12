package testdb

import "flag"

type flagValues struct {
	migrationsDir string
	schema        string
	databaseURL   string
	target        string
}

var flags flagValues

func init() {
	RegisterFlags(flag.CommandLine)
}

// RegisterFlags adds the -pgfixture.* flags to fs. They are registered on
// flag.CommandLine automatically, so `go test ./store -args -pgfixture.schema=x`
// works without further setup.
func RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&flags.migrationsDir, "pgfixture.migrations-dir", "",
		"migrations directory, relative to the project root (default ./migrations)")
	fs.StringVar(&flags.schema, "pgfixture.schema", "",
		"schema to wipe and migrate (default public)")
	fs.StringVar(&flags.databaseURL, "pgfixture.database-url", "",
		"PostgreSQL connection string (default $PGFIXTURE_DATABASE_URL)")
	fs.StringVar(&flags.target, "pgfixture.target", "",
		"migration target: heads, latest or a version (default heads)")
}
