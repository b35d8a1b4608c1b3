// Package domain contains the core business entities of the vaccination
// tracker (users, vaccines and dose records), the canonical validation rules
// shared by every entry point, and the pure statistics aggregation over a
// user's dose history. It has no knowledge of storage or transport.
package domain
