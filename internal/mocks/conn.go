package mocks

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/pgfixture/internal/database"
)

// ErrConnReleased is returned by MockConn methods called after Release.
var ErrConnReleased = errors.New("mock connection already released")

// MockConn is a mock implementation of database.Conn.
type MockConn struct {
	Log *CallLog

	// Tx is returned by Begin when BeginFn is nil. NewMockConn sets it.
	Tx *MockTx

	BeginFn func(ctx context.Context) (pgx.Tx, error)
	ExecFn  func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	released int
}

var _ database.Conn = (*MockConn)(nil)

// NewMockConn creates a MockConn whose Begin returns a MockTx on the same log.
func NewMockConn(log *CallLog) *MockConn {
	return &MockConn{Log: log, Tx: NewMockTx(log)}
}

// Exec records "exec <sql>".
func (m *MockConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.released > 0 {
		return pgconn.CommandTag{}, ErrConnReleased
	}
	m.Log.Add("exec " + sql)
	if m.ExecFn != nil {
		return m.ExecFn(ctx, sql, args...)
	}
	return pgconn.NewCommandTag(""), nil
}

// Begin records "begin".
func (m *MockConn) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.released > 0 {
		return nil, ErrConnReleased
	}
	m.Log.Add("begin")
	if m.BeginFn != nil {
		return m.BeginFn(ctx)
	}
	return m.Tx, nil
}

// Release records "release".
func (m *MockConn) Release() {
	m.released++
	m.Log.Add("release")
}

// Released reports how many times Release was called.
func (m *MockConn) Released() int {
	return m.released
}

// MockConnector is a mock implementation of database.Connector.
type MockConnector struct {
	Log *CallLog

	// Conn is returned by Connect when ConnectFn is nil.
	Conn *MockConn

	ConnectFn func(ctx context.Context) (database.Conn, error)
}

var _ database.Connector = (*MockConnector)(nil)

// NewMockConnector creates a MockConnector handing out a single MockConn.
func NewMockConnector(log *CallLog) *MockConnector {
	return &MockConnector{Log: log, Conn: NewMockConn(log)}
}

// Connect records "connect".
func (m *MockConnector) Connect(ctx context.Context) (database.Conn, error) {
	m.Log.Add("connect")
	if m.ConnectFn != nil {
		return m.ConnectFn(ctx)
	}
	return m.Conn, nil
}
