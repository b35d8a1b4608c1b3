package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/imunetrack/imunetrack-api/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	// uniqueViolationCode is the PostgreSQL error code for unique constraint violations
	uniqueViolationCode = "23505"

	// foreignKeyViolationCode is the PostgreSQL error code for foreign key violations
	foreignKeyViolationCode = "23503"

	// checkViolationCode is the PostgreSQL error code for check constraint violations
	checkViolationCode = "23514"

	// notNullViolationCode is the PostgreSQL error code for not null violations
	notNullViolationCode = "23502"
)

// Constraint names declared in the migrations.
const (
	constraintUserEmail     = "users_email_key"
	constraintVaccineName   = "vaccines_name_key"
	constraintDoseUnique    = "dose_records_user_vaccine_dose_key"
	constraintDoseUserFK    = "dose_records_user_id_fkey"
	constraintDoseVaccineFK = "dose_records_vaccine_id_fkey"
)

// constraintErrors maps a violated constraint to the store sentinel callers
// branch on.
var constraintErrors = map[string]error{
	constraintUserEmail:     store.ErrEmailExists,
	constraintVaccineName:   store.ErrVaccineNameExists,
	constraintDoseUnique:    store.ErrDuplicateDose,
	constraintDoseUserFK:    store.ErrUserNotFound,
	constraintDoseVaccineFK: store.ErrVaccineNotFound,
}

// MapError maps a database error to an appropriate store error.
// Violations of known constraints become their specific sentinel
// (store.ErrEmailExists, store.ErrVaccineNotFound, ...); other integrity
// violations map to the generic store.ErrDuplicate or store.ErrInvalidEntity.
// The driver error is flattened into the message so its details do not leak
// through errors.As.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	// Handle common SQL errors
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	// Handle PostgreSQL-specific errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if specific, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %v", specific, err)
		}

		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case foreignKeyViolationCode:
			return fmt.Errorf(
				"%w: foreign key violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ConstraintName,
				err,
			)
		case checkViolationCode:
			return fmt.Errorf(
				"%w: check constraint violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ConstraintName,
				err,
			)
		case notNullViolationCode:
			return fmt.Errorf(
				"%w: not null violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ColumnName,
				err,
			)
		}
	}

	// Return the original error for errors that don't have specific mappings
	return err
}

// CheckRowsAffected examines the number of rows affected by a database operation.
// If no rows were affected, it returns notFound, or store.ErrNotFound when
// notFound is nil. UPDATE and DELETE statements use it to detect missing rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}

	return nil
}
