package mocks

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MockTx is a mock implementation of pgx.Tx.
//
// Calls are recorded with a "tx." prefix, or "sp." for transactions returned
// by Begin, which stand for savepoints. Once committed or rolled back every
// method returns pgx.ErrTxClosed, like the real thing. Methods that are
// neither overridden nor listed here panic through the embedded nil pgx.Tx.
type MockTx struct {
	pgx.Tx

	Log    *CallLog
	Nested bool

	BeginFn    func(ctx context.Context) (pgx.Tx, error)
	CommitFn   func(ctx context.Context) error
	RollbackFn func(ctx context.Context) error
	ExecFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row

	closed bool
}

// NewMockTx creates a top-level MockTx recording on log.
func NewMockTx(log *CallLog) *MockTx {
	return &MockTx{Log: log}
}

// Closed reports whether Commit or Rollback has been called.
func (m *MockTx) Closed() bool {
	return m.closed
}

func (m *MockTx) prefix() string {
	if m.Nested {
		return "sp."
	}
	return "tx."
}

// Begin starts a nested MockTx sharing the same log.
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.closed {
		return nil, pgx.ErrTxClosed
	}
	m.Log.Add(m.prefix() + "savepoint")
	if m.BeginFn != nil {
		return m.BeginFn(ctx)
	}
	return &MockTx{Log: m.Log, Nested: true}, nil
}

// Commit implements pgx.Tx.
func (m *MockTx) Commit(ctx context.Context) error {
	if m.closed {
		return pgx.ErrTxClosed
	}
	m.closed = true
	m.Log.Add(m.prefix() + "commit")
	if m.CommitFn != nil {
		return m.CommitFn(ctx)
	}
	return nil
}

// Rollback implements pgx.Tx.
func (m *MockTx) Rollback(ctx context.Context) error {
	if m.closed {
		return pgx.ErrTxClosed
	}
	m.closed = true
	m.Log.Add(m.prefix() + "rollback")
	if m.RollbackFn != nil {
		return m.RollbackFn(ctx)
	}
	return nil
}

// Exec records "<prefix>exec <sql>".
func (m *MockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.closed {
		return pgconn.CommandTag{}, pgx.ErrTxClosed
	}
	m.Log.Add(m.prefix() + "exec " + sql)
	if m.ExecFn != nil {
		return m.ExecFn(ctx, sql, args...)
	}
	return pgconn.NewCommandTag(""), nil
}

// Query records "<prefix>query <sql>".
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.closed {
		return nil, pgx.ErrTxClosed
	}
	m.Log.Add(m.prefix() + "query " + sql)
	if m.QueryFn != nil {
		return m.QueryFn(ctx, sql, args...)
	}
	return nil, nil
}

// QueryRow records "<prefix>queryrow <sql>".
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.Log.Add(m.prefix() + "queryrow " + sql)
	if m.QueryRowFn != nil {
		return m.QueryRowFn(ctx, sql, args...)
	}
	return MockRow{}
}

// MockRow is a pgx.Row whose Scan returns Err.
type MockRow struct {
	Err error
}

// Scan implements pgx.Row.
func (r MockRow) Scan(dest ...any) error {
	return r.Err
}
