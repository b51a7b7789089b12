// Package database owns the long-lived connection factory the fixtures share.
//
// Engine wraps a pgxpool.Pool: it validates connectivity up front, pins the
// search_path to the fixture schema, and hands out pooled connections through
// the narrow Conn interface so the schema resetter and the session provider
// can be exercised against fakes.
package database
