package store

import (
	"context"
	"database/sql"

	"github.com/imunetrack/imunetrack-api/internal/domain"
)

// DoseRecordFilter narrows a history listing. Nil fields are ignored and the
// rest are AND-combined. Year and Month match the applied date, so records
// without one are excluded whenever either is set.
type DoseRecordFilter struct {
	Year      *int
	Month     *int
	VaccineID *int64
	Status    *domain.DoseStatus
}

// DoseRecordStore defines the interface for dose history persistence.
// Every read returns records with VaccineName and VaccineDoseCount populated.
type DoseRecordStore interface {
	// Create saves a new record and fills in its ID and timestamps.
	// Returns ErrDuplicateDose if the (user, vaccine, dose number) triple exists,
	// ErrUserNotFound or ErrVaccineNotFound on a dangling reference.
	Create(ctx context.Context, record *domain.DoseRecord) error

	// GetForUser returns the record only if it belongs to userID.
	// Returns ErrDoseRecordNotFound otherwise.
	GetForUser(ctx context.Context, recordID, userID int64) (*domain.DoseRecord, error)

	// FindByDose looks up the record for a (user, vaccine, dose number) triple.
	// Returns ErrDoseRecordNotFound if there is none.
	FindByDose(ctx context.Context, userID, vaccineID int64, doseNumber int) (*domain.DoseRecord, error)

	// ListForUser returns the user's records matching filter, newest applied
	// first, unapplied records last, then by creation time descending.
	ListForUser(ctx context.Context, userID int64, filter DoseRecordFilter) ([]*domain.DoseRecord, error)

	// Update overwrites every mutable column of the record.
	// Returns ErrDoseRecordNotFound or ErrDuplicateDose.
	Update(ctx context.Context, record *domain.DoseRecord) error

	// DeleteForUser removes the record if it belongs to userID.
	// Returns ErrDoseRecordNotFound otherwise.
	DeleteForUser(ctx context.Context, recordID, userID int64) error

	// WithTx returns a DoseRecordStore bound to tx.
	WithTx(tx *sql.Tx) DoseRecordStore
}
