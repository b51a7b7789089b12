package testdb

import (
	"errors"

	"github.com/phrazzld/pgfixture/internal/ciutil"
	"github.com/phrazzld/pgfixture/internal/config"
	"github.com/phrazzld/pgfixture/internal/migrate"
	"github.com/phrazzld/pgfixture/internal/schema"
)

var (
	// ErrNoDatabaseURL is returned by Setup when no database is configured
	// and embedded mode is off. Test helpers skip instead of failing on it.
	ErrNoDatabaseURL = config.ErrMissingDatabaseURL

	// ErrInvalidSchemaName is returned for empty, over-long or system schema names.
	ErrInvalidSchemaName = schema.ErrInvalidSchemaName

	// ErrInvalidTarget is returned for a migration target that is not heads,
	// latest or a version number.
	ErrInvalidTarget = migrate.ErrInvalidTarget

	// ErrMigrationsDirNotFound is returned when the migrations directory does not exist.
	ErrMigrationsDirNotFound = ciutil.ErrMigrationsDirNotFound

	// ErrSessionClosed is returned by every Session method after Close.
	ErrSessionClosed = errors.New("session is closed")

	// ErrTransactionControl is returned by Session.Exec for statements that
	// would end the session's outer transaction, such as COMMIT.
	ErrTransactionControl = errors.New("transaction control statements are not allowed in a session; use Session.Commit or Session.Rollback")

	// ErrFixtureClosed is returned when a session is requested from a closed fixture.
	ErrFixtureClosed = errors.New("fixture is closed")
)
