package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// GooseLogger adapts a *slog.Logger to goose's Logger interface.
type GooseLogger struct {
	Logger *slog.Logger
}

// NewGooseLogger returns a goose logger writing to logger, tagged with the
// migrations component.
func NewGooseLogger(logger *slog.Logger) *GooseLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &GooseLogger{Logger: logger.With("component", "migrations")}
}

// Printf implements the goose.Logger Printf method by forwarding messages to slog at info level.
func (l *GooseLogger) Printf(format string, v ...interface{}) {
	l.Logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages to slog.Error.
// Unlike the standard Fatalf behavior, this does NOT call os.Exit: goose
// also returns the error, and the caller decides how to fail.
func (l *GooseLogger) Fatalf(format string, v ...interface{}) {
	l.Logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
