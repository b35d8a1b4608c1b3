// Package testdb provides utilities for database integration tests. Tests
// that need PostgreSQL call Open, which skips the test when no database is
// configured, and isolate themselves with WithTx.
package testdb
