// Package schema wipes a PostgreSQL schema and rebuilds it from migrations.
package schema
