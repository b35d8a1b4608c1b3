package service

import "errors"

// Service-level sentinel errors. Each is wrapped in a domain.ValidationError
// so the API layer reports it as a bad request.
var (
	// ErrInvalidFilter indicates a history filter value outside its range.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrMissingAppliedDate indicates that marking a dose applied needs a date.
	ErrMissingAppliedDate = errors.New("applied date is required")
)
