package testdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/pgfixture/internal/database"
	"github.com/phrazzld/pgfixture/pkg/store"
)

// savepointName marks the start of the work Commit and Rollback act on.
const savepointName = "pgfixture_session"

// Session is a unit of work bound to one connection and one outer
// transaction for its whole life. Closing it rolls the outer transaction
// back, so it undoes everything done through it, committed or not.
//
// Commit and Rollback act on a savepoint inside the outer transaction, and
// Begin starts a nested transaction backed by another savepoint. Code under
// test can therefore commit as it would in production.
//
// A Session may be shared between goroutines, but a PostgreSQL connection
// runs one statement at a time: read Rows to completion before issuing the
// next statement.
type Session struct {
	mu     sync.Mutex
	conn   database.Conn
	tx     pgx.Tx
	logger *slog.Logger
	closed bool
}

var (
	_ store.DBTX     = (*Session)(nil)
	_ store.Beginner = (*Session)(nil)
)

// newSession begins the outer transaction on conn and takes ownership of conn:
// it is released on error and by Close.
func newSession(ctx context.Context, conn database.Conn, logger *slog.Logger) (*Session, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("beginning session transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, "SAVEPOINT "+savepointName); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Warn("rolling back session transaction after failed savepoint", "error", rbErr)
		}
		conn.Release()
		return nil, fmt.Errorf("creating session savepoint: %w", err)
	}

	logger.Debug("session opened")
	return &Session{conn: conn, tx: tx, logger: logger}, nil
}

func (s *Session) active() (pgx.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.tx, nil
}

// Exec runs a statement in the session. Statements that would end the outer
// transaction, such as COMMIT, are rejected with ErrTransactionControl.
func (s *Session) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx, err := s.active()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	if isTransactionControl(sql) {
		return pgconn.CommandTag{}, ErrTransactionControl
	}
	return tx.Exec(ctx, sql, args...)
}

// Query runs a query in the session. Like Exec it rejects transaction
// control statements.
func (s *Session) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	tx, err := s.active()
	if err != nil {
		return nil, err
	}
	if isTransactionControl(sql) {
		return nil, ErrTransactionControl
	}
	return tx.Query(ctx, sql, args...)
}

// QueryRow runs a query in the session. After Close, or for a transaction
// control statement, the returned row's Scan reports the error.
func (s *Session) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	tx, err := s.active()
	if err != nil {
		return errRow{err: err}
	}
	if isTransactionControl(sql) {
		return errRow{err: ErrTransactionControl}
	}
	return tx.QueryRow(ctx, sql, args...)
}

// Begin starts a nested transaction. Its Commit releases a savepoint; the
// outer transaction still rolls it back when the session closes. The nested
// transaction rejects transaction control statements too.
func (s *Session) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := s.active()
	if err != nil {
		return nil, err
	}
	nested, err := tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return guardedTx{Tx: nested}, nil
}

// Commit makes the work done so far permanent within the session and starts
// a new savepoint. If the release fails the work since the last savepoint is
// rolled back so the session stays usable.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	if _, err := s.tx.Exec(ctx, "RELEASE SAVEPOINT "+savepointName); err != nil {
		commitErr := fmt.Errorf("committing session: %w", err)
		if _, rbErr := s.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepointName); rbErr != nil {
			return errors.Join(commitErr, fmt.Errorf("rolling back session: %w", rbErr))
		}
		return commitErr
	}

	if _, err := s.tx.Exec(ctx, "SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("reopening session savepoint: %w", err)
	}
	return nil
}

// Rollback discards the work done since the last Commit. It also clears an
// aborted transaction state left by a failed statement.
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	if _, err := s.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("rolling back session: %w", err)
	}
	return nil
}

// Close rolls back the outer transaction and releases the connection.
// Calling it again is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.tx.Rollback(ctx)
	s.conn.Release()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.Warn("session rollback failed", "error", err)
		return fmt.Errorf("rolling back session transaction: %w", err)
	}

	s.logger.Debug("session closed")
	return nil
}

// guardedTx is a nested transaction that refuses statements which would
// end the outer one.
type guardedTx struct {
	pgx.Tx
}

func (g guardedTx) Begin(ctx context.Context) (pgx.Tx, error) {
	nested, err := g.Tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return guardedTx{Tx: nested}, nil
}

func (g guardedTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if isTransactionControl(sql) {
		return pgconn.CommandTag{}, ErrTransactionControl
	}
	return g.Tx.Exec(ctx, sql, args...)
}

func (g guardedTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if isTransactionControl(sql) {
		return nil, ErrTransactionControl
	}
	return g.Tx.Query(ctx, sql, args...)
}

func (g guardedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if isTransactionControl(sql) {
		return errRow{err: ErrTransactionControl}
	}
	return g.Tx.QueryRow(ctx, sql, args...)
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
