// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config file and PGFIXTURE_* environment
// variables. It provides type-safe access to the settings the schema
// resetter, migration runner and session provider need.
package config
