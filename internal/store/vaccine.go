package store

import (
	"context"
	"database/sql"

	"github.com/imunetrack/imunetrack-api/internal/domain"
)

// VaccineStore defines the interface for vaccine catalog persistence.
type VaccineStore interface {
	// Create saves a new vaccine and fills in its ID and timestamps.
	// Returns ErrVaccineNameExists if the name is already taken.
	Create(ctx context.Context, vaccine *domain.Vaccine) error

	// GetByID returns ErrVaccineNotFound if the vaccine does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Vaccine, error)

	// GetByName matches the exact stored name.
	// Returns ErrVaccineNotFound if no vaccine has that name.
	GetByName(ctx context.Context, name string) (*domain.Vaccine, error)

	// List returns every vaccine ordered by ID.
	List(ctx context.Context) ([]*domain.Vaccine, error)

	// ListByDoseCount returns vaccines requiring exactly doseCount doses.
	ListByDoseCount(ctx context.Context, doseCount int) ([]*domain.Vaccine, error)

	// Update overwrites name, dose count and updated_at.
	// Returns ErrVaccineNotFound or ErrVaccineNameExists.
	Update(ctx context.Context, vaccine *domain.Vaccine) error

	// Delete removes a vaccine; dose records referencing it are removed by cascade.
	// Returns ErrVaccineNotFound if the vaccine does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a VaccineStore bound to tx.
	WithTx(tx *sql.Tx) VaccineStore
}
