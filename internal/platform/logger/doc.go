// Package logger provides structured logging functionality for pgfixture.
//
// It utilizes Go's standard library log/slog package to implement structured
// JSON (or text) logging with configurable log levels, a CI-aware handler, a
// context carrier, and an adapter that routes goose migration output through slog.
package logger
