// Package mocks provides centralized mock implementations for testing.
//
// The mocks stand in for the pgx connection and transaction types and for
// the migration runner, so fixture behaviour can be tested without a
// database. Every mock can share a CallLog that records calls in order:
//
//	log := &mocks.CallLog{}
//	conn := mocks.NewMockConn(log)
//	// ... exercise the code under test ...
//	assert.Equal(t, []string{"begin", "tx.rollback", "release"}, log.Calls())
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each method that tests override
//  3. Record each call on the shared CallLog
package mocks
