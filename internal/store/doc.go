// Package store defines the persistence contracts for users, vaccines and
// dose records, the sentinel errors every implementation returns, and the
// transaction helpers services use to group writes.
package store
