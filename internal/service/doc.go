// Package service contains the application use cases of the vaccination
// tracker: user accounts, the vaccine catalog and per-user dose histories.
//
// Services receive their stores, a store.TxRunner and cross-cutting
// collaborators through constructor injection. Every mutating operation runs
// inside a single transaction; the unique indexes in the database remain the
// source of truth for uniqueness, and pre-checks only produce nicer errors.
//
// Errors are returned wrapped with %w so callers can classify them with
// errors.Is against store.ErrNotFound, store.ErrDuplicate and
// domain.ErrValidation.
package service
