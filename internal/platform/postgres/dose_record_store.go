package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/platform/logger"
	"github.com/imunetrack/imunetrack-api/internal/store"
)

const doseRecordSelect = `
	SELECT dr.id, dr.user_id, dr.vaccine_id, dr.dose_number, dr.status,
	       dr.applied_on, dr.expected_on, dr.lot, dr.site, dr.professional, dr.notes,
	       dr.created_at, dr.updated_at, v.name, v.dose_count
	FROM dose_records dr
	JOIN vaccines v ON v.id = dr.vaccine_id
`

const doseRecordOrder = ` ORDER BY dr.applied_on DESC NULLS LAST, dr.created_at DESC, dr.id DESC`

// PostgresDoseRecordStore implements store.DoseRecordStore on PostgreSQL.
type PostgresDoseRecordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDoseRecordStore creates a dose record store over db. If logger
// is nil, slog.Default() is used.
func NewPostgresDoseRecordStore(db store.DBTX, logger *slog.Logger) *PostgresDoseRecordStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDoseRecordStore{
		db:     db,
		logger: logger.With(slog.String("component", "dose_record_store")),
	}
}

var _ store.DoseRecordStore = (*PostgresDoseRecordStore)(nil)

// Create implements store.DoseRecordStore.Create. The vaccine projection is
// filled in from the same statement.
func (s *PostgresDoseRecordStore) Create(ctx context.Context, record *domain.DoseRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.Int64("user_id", record.UserID),
		slog.Int64("vaccine_id", record.VaccineID),
		slog.Int("dose_number", record.DoseNumber),
	)

	query := `
		WITH inserted AS (
			INSERT INTO dose_records (
				user_id, vaccine_id, dose_number, status, applied_on, expected_on,
				lot, site, professional, notes, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, vaccine_id
		)
		SELECT i.id, v.name, v.dose_count
		FROM inserted i
		JOIN vaccines v ON v.id = i.vaccine_id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		record.UserID,
		record.VaccineID,
		record.DoseNumber,
		string(record.Status),
		nullDate(record.AppliedOn),
		nullDate(record.ExpectedOn),
		nullString(record.Lot),
		nullString(record.Site),
		nullString(record.Professional),
		nullString(record.Notes),
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&record.ID, &record.VaccineName, &record.VaccineDoseCount)
	if err != nil {
		mapped := MapError(err)
		switch {
		case errors.Is(mapped, store.ErrDuplicateDose),
			errors.Is(mapped, store.ErrUserNotFound),
			errors.Is(mapped, store.ErrVaccineNotFound):
			log.Warn("dose record rejected by constraint", slog.String("error", err.Error()))
			return mapped
		}
		log.Error("failed to create dose record", slog.String("error", err.Error()))
		return store.NewStoreError("dose_record", "create", "insert failed", mapped)
	}

	log.Info("dose record created successfully",
		slog.Int64("record_id", record.ID),
		slog.String("status", string(record.Status)))
	return nil
}

// GetForUser implements store.DoseRecordStore.GetForUser
func (s *PostgresDoseRecordStore) GetForUser(ctx context.Context, recordID, userID int64) (*domain.DoseRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := doseRecordSelect + ` WHERE dr.id = $1 AND dr.user_id = $2`
	record, err := scanDoseRecord(s.db.QueryRowContext(ctx, query, recordID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("dose record not found",
				slog.Int64("record_id", recordID),
				slog.Int64("user_id", userID))
			return nil, store.ErrDoseRecordNotFound
		}
		log.Error("failed to get dose record",
			slog.String("error", err.Error()),
			slog.Int64("record_id", recordID))
		return nil, store.NewStoreError("dose_record", "get", "query failed", err)
	}
	return record, nil
}

// FindByDose implements store.DoseRecordStore.FindByDose
func (s *PostgresDoseRecordStore) FindByDose(
	ctx context.Context,
	userID, vaccineID int64,
	doseNumber int,
) (*domain.DoseRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := doseRecordSelect + ` WHERE dr.user_id = $1 AND dr.vaccine_id = $2 AND dr.dose_number = $3`
	record, err := scanDoseRecord(s.db.QueryRowContext(ctx, query, userID, vaccineID, doseNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDoseRecordNotFound
		}
		log.Error("failed to find dose record",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
			slog.Int64("vaccine_id", vaccineID),
			slog.Int("dose_number", doseNumber))
		return nil, store.NewStoreError("dose_record", "get", "query failed", err)
	}
	return record, nil
}

// ListForUser implements store.DoseRecordStore.ListForUser
func (s *PostgresDoseRecordStore) ListForUser(
	ctx context.Context,
	userID int64,
	filter store.DoseRecordFilter,
) ([]*domain.DoseRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := buildListQuery(userID, filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list dose records",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return nil, store.NewStoreError("dose_record", "list", "query failed", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	records := []*domain.DoseRecord{}
	for rows.Next() {
		record, err := scanDoseRecord(rows)
		if err != nil {
			log.Error("failed to scan dose record row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("dose_record", "list", "scan failed", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("dose_record", "list", "iteration failed", err)
	}

	log.Debug("dose records listed",
		slog.Int64("user_id", userID),
		slog.Int("count", len(records)))
	return records, nil
}

// buildListQuery appends one AND clause per set filter field.
func buildListQuery(userID int64, filter store.DoseRecordFilter) (string, []any) {
	conditions := []string{"dr.user_id = $1"}
	args := []any{userID}

	add := func(clause string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Year != nil {
		add("EXTRACT(YEAR FROM dr.applied_on) = $%d", *filter.Year)
	}
	if filter.Month != nil {
		add("EXTRACT(MONTH FROM dr.applied_on) = $%d", *filter.Month)
	}
	if filter.VaccineID != nil {
		add("dr.vaccine_id = $%d", *filter.VaccineID)
	}
	if filter.Status != nil {
		add("dr.status = $%d", string(*filter.Status))
	}

	return doseRecordSelect + " WHERE " + strings.Join(conditions, " AND ") + doseRecordOrder, args
}

// Update implements store.DoseRecordStore.Update
func (s *PostgresDoseRecordStore) Update(ctx context.Context, record *domain.DoseRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.Int64("record_id", record.ID),
		slog.Int64("user_id", record.UserID),
	)

	query := `
		UPDATE dose_records
		SET dose_number = $1, status = $2, applied_on = $3, expected_on = $4,
		    lot = $5, site = $6, professional = $7, notes = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		record.DoseNumber,
		string(record.Status),
		nullDate(record.AppliedOn),
		nullDate(record.ExpectedOn),
		nullString(record.Lot),
		nullString(record.Site),
		nullString(record.Professional),
		nullString(record.Notes),
		record.UpdatedAt,
		record.ID,
		record.UserID,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicateDose) {
			log.Warn("dose number collides with existing record",
				slog.Int("dose_number", record.DoseNumber))
			return mapped
		}
		log.Error("failed to update dose record", slog.String("error", err.Error()))
		return store.NewStoreError("dose_record", "update", "update failed", mapped)
	}

	if err := CheckRowsAffected(result, store.ErrDoseRecordNotFound); err != nil {
		if errors.Is(err, store.ErrDoseRecordNotFound) {
			return err
		}
		return store.NewStoreError("dose_record", "update", "rows affected", err)
	}

	log.Info("dose record updated successfully", slog.String("status", string(record.Status)))
	return nil
}

// DeleteForUser implements store.DoseRecordStore.DeleteForUser
func (s *PostgresDoseRecordStore) DeleteForUser(ctx context.Context, recordID, userID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM dose_records WHERE id = $1 AND user_id = $2`, recordID, userID)
	if err != nil {
		log.Error("failed to delete dose record",
			slog.String("error", err.Error()),
			slog.Int64("record_id", recordID))
		return store.NewStoreError("dose_record", "delete", "delete failed", err)
	}

	if err := CheckRowsAffected(result, store.ErrDoseRecordNotFound); err != nil {
		if errors.Is(err, store.ErrDoseRecordNotFound) {
			return err
		}
		return store.NewStoreError("dose_record", "delete", "rows affected", err)
	}

	log.Info("dose record deleted successfully",
		slog.Int64("record_id", recordID),
		slog.Int64("user_id", userID))
	return nil
}

// WithTx implements store.DoseRecordStore.WithTx
func (s *PostgresDoseRecordStore) WithTx(tx *sql.Tx) store.DoseRecordStore {
	return &PostgresDoseRecordStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanDoseRecord(row rowScanner) (*domain.DoseRecord, error) {
	var (
		r                              domain.DoseRecord
		status                         string
		appliedOn, expectedOn          sql.NullTime
		lot, site, professional, notes sql.NullString
	)
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.VaccineID,
		&r.DoseNumber,
		&status,
		&appliedOn,
		&expectedOn,
		&lot,
		&site,
		&professional,
		&notes,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.VaccineName,
		&r.VaccineDoseCount,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.DoseStatus(status)
	r.AppliedOn = timePtr(appliedOn)
	r.ExpectedOn = timePtr(expectedOn)
	r.Lot = lot.String
	r.Site = site.String
	r.Professional = professional.String
	r.Notes = notes.String
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
