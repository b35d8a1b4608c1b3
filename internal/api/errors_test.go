package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/imunetrack/imunetrack-api/internal/api/shared"
	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("failed to retrieve vaccine: %w", store.ErrVaccineNotFound), http.StatusNotFound},
		{"duplicate dose", fmt.Errorf("failed: %w", store.ErrDuplicateDose), http.StatusConflict},
		{"validation", domain.NewValidationError("name", "cannot be empty", nil), http.StatusBadRequest},
		{"check constraint", store.ErrInvalidEntity, http.StatusBadRequest},
		{"malformed body", fmt.Errorf("%w: bad", shared.ErrMalformedBody), http.StatusBadRequest},
		{"too large", fmt.Errorf("%w: %w", shared.ErrMalformedBody, &http.MaxBytesError{Limit: 10}), http.StatusRequestEntityTooLarge},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(errors.New("dial tcp 10.0.0.5:5432: connection refused")))
	assert.Equal(t, "Vaccine name already exists", GetSafeErrorMessage(store.ErrVaccineNameExists))
	assert.Equal(t, "Invalid dose_number: must be between 1 and 3",
		GetSafeErrorMessage(fmt.Errorf("x: %w", domain.NewValidationError("dose_number", "must be between 1 and 3", nil))))
	assert.Equal(t, "at least one field must be provided",
		GetSafeErrorMessage(domain.NewValidationError("", "at least one field must be provided", nil)))
	assert.Equal(t, "Request body is required", GetSafeErrorMessage(shared.ErrEmptyBody))
}
