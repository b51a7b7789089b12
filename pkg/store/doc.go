// Package store defines the database access interfaces shared by fixtures
// and the code under test, plus a transaction helper built on them.
package store
