// Package ciutil provides utilities for CI and environment-specific functionality.
//
// It centralizes the environment variables pgfixture reads, CI detection,
// project root discovery (used to resolve the migrations directory relative to
// the test root) and the database URL fallback chain used when no URL is
// configured explicitly.
package ciutil
