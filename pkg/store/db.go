package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is an interface that abstracts the database access layer.
// It is implemented by *pgxpool.Pool, *pgxpool.Conn, pgx.Tx and the
// fixture session, so store code can run against any of them.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner starts transactions. When the receiver is itself a transaction
// the result is a savepoint-backed nested transaction.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
