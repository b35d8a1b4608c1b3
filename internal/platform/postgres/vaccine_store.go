package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/platform/logger"
	"github.com/imunetrack/imunetrack-api/internal/store"
)

const vaccineColumns = `id, name, dose_count, created_at, updated_at`

// PostgresVaccineStore implements store.VaccineStore on PostgreSQL.
type PostgresVaccineStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVaccineStore creates a vaccine store over db. If logger is nil,
// slog.Default() is used.
func NewPostgresVaccineStore(db store.DBTX, logger *slog.Logger) *PostgresVaccineStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresVaccineStore{
		db:     db,
		logger: logger.With(slog.String("component", "vaccine_store")),
	}
}

var _ store.VaccineStore = (*PostgresVaccineStore)(nil)

// Create implements store.VaccineStore.Create
func (s *PostgresVaccineStore) Create(ctx context.Context, vaccine *domain.Vaccine) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := vaccine.Validate(); err != nil {
		log.Warn("vaccine validation failed during create",
			slog.String("error", err.Error()),
			slog.String("name", vaccine.Name))
		return err
	}

	query := `
		INSERT INTO vaccines (name, dose_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		vaccine.Name,
		vaccine.DoseCount,
		vaccine.CreatedAt,
		vaccine.UpdatedAt,
	).Scan(&vaccine.ID)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrVaccineNameExists) {
			log.Warn("attempt to create vaccine with existing name",
				slog.String("name", vaccine.Name))
			return store.ErrVaccineNameExists
		}
		log.Error("failed to create vaccine",
			slog.String("error", err.Error()),
			slog.String("name", vaccine.Name))
		return store.NewStoreError("vaccine", "create", "insert failed", mapped)
	}

	log.Info("vaccine created successfully",
		slog.Int64("vaccine_id", vaccine.ID),
		slog.String("name", vaccine.Name),
		slog.Int("dose_count", vaccine.DoseCount))
	return nil
}

// GetByID implements store.VaccineStore.GetByID
func (s *PostgresVaccineStore) GetByID(ctx context.Context, id int64) (*domain.Vaccine, error) {
	return s.getOne(ctx, `SELECT `+vaccineColumns+` FROM vaccines WHERE id = $1`, id,
		slog.Int64("vaccine_id", id))
}

// GetByName implements store.VaccineStore.GetByName
func (s *PostgresVaccineStore) GetByName(ctx context.Context, name string) (*domain.Vaccine, error) {
	return s.getOne(ctx, `SELECT `+vaccineColumns+` FROM vaccines WHERE name = $1`, name,
		slog.String("name", name))
}

func (s *PostgresVaccineStore) getOne(ctx context.Context, query string, arg any, attr slog.Attr) (*domain.Vaccine, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	vaccine, err := scanVaccine(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("vaccine not found", attr)
			return nil, store.ErrVaccineNotFound
		}
		log.Error("failed to get vaccine", slog.String("error", err.Error()), attr)
		return nil, store.NewStoreError("vaccine", "get", "query failed", err)
	}
	return vaccine, nil
}

// List implements store.VaccineStore.List
func (s *PostgresVaccineStore) List(ctx context.Context) ([]*domain.Vaccine, error) {
	return s.list(ctx, `SELECT `+vaccineColumns+` FROM vaccines ORDER BY id`)
}

// ListByDoseCount implements store.VaccineStore.ListByDoseCount
func (s *PostgresVaccineStore) ListByDoseCount(ctx context.Context, doseCount int) ([]*domain.Vaccine, error) {
	return s.list(ctx,
		`SELECT `+vaccineColumns+` FROM vaccines WHERE dose_count = $1 ORDER BY id`,
		doseCount)
}

func (s *PostgresVaccineStore) list(ctx context.Context, query string, args ...any) ([]*domain.Vaccine, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list vaccines", slog.String("error", err.Error()))
		return nil, store.NewStoreError("vaccine", "list", "query failed", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	vaccines := []*domain.Vaccine{}
	for rows.Next() {
		vaccine, err := scanVaccine(rows)
		if err != nil {
			log.Error("failed to scan vaccine row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("vaccine", "list", "scan failed", err)
		}
		vaccines = append(vaccines, vaccine)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("vaccine", "list", "iteration failed", err)
	}

	return vaccines, nil
}

// Update implements store.VaccineStore.Update
func (s *PostgresVaccineStore) Update(ctx context.Context, vaccine *domain.Vaccine) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := vaccine.Validate(); err != nil {
		log.Warn("vaccine validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("vaccine_id", vaccine.ID))
		return err
	}

	query := `
		UPDATE vaccines
		SET name = $1, dose_count = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		vaccine.Name,
		vaccine.DoseCount,
		vaccine.UpdatedAt,
		vaccine.ID,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrVaccineNameExists) {
			log.Warn("attempt to rename vaccine to existing name",
				slog.Int64("vaccine_id", vaccine.ID),
				slog.String("name", vaccine.Name))
			return store.ErrVaccineNameExists
		}
		log.Error("failed to update vaccine",
			slog.String("error", err.Error()),
			slog.Int64("vaccine_id", vaccine.ID))
		return store.NewStoreError("vaccine", "update", "update failed", mapped)
	}

	if err := CheckRowsAffected(result, store.ErrVaccineNotFound); err != nil {
		if errors.Is(err, store.ErrVaccineNotFound) {
			return err
		}
		return store.NewStoreError("vaccine", "update", "rows affected", err)
	}

	log.Info("vaccine updated successfully", slog.Int64("vaccine_id", vaccine.ID))
	return nil
}

// Delete implements store.VaccineStore.Delete
func (s *PostgresVaccineStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM vaccines WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete vaccine",
			slog.String("error", err.Error()),
			slog.Int64("vaccine_id", id))
		return store.NewStoreError("vaccine", "delete", "delete failed", err)
	}

	if err := CheckRowsAffected(result, store.ErrVaccineNotFound); err != nil {
		if errors.Is(err, store.ErrVaccineNotFound) {
			return err
		}
		return store.NewStoreError("vaccine", "delete", "rows affected", err)
	}

	log.Info("vaccine deleted successfully", slog.Int64("vaccine_id", id))
	return nil
}

// WithTx implements store.VaccineStore.WithTx
func (s *PostgresVaccineStore) WithTx(tx *sql.Tx) store.VaccineStore {
	return &PostgresVaccineStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanVaccine(row rowScanner) (*domain.Vaccine, error) {
	var v domain.Vaccine
	if err := row.Scan(&v.ID, &v.Name, &v.DoseCount, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
