package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/events"
	"github.com/imunetrack/imunetrack-api/internal/platform/logger"
	"github.com/imunetrack/imunetrack-api/internal/redact"
	"github.com/imunetrack/imunetrack-api/internal/store"
)

// Accepted range for the year filter of a history listing.
const (
	MinFilterYear = 1900
	MaxFilterYear = 2100
)

// NewDoseRecord is the input for CreateDoseRecord. An empty Status means
// pending.
type NewDoseRecord struct {
	VaccineID    int64
	DoseNumber   int
	Status       domain.DoseStatus
	AppliedOn    *time.Time
	ExpectedOn   *time.Time
	Lot          string
	Site         string
	Professional string
	Notes        string
}

// DoseRecordUpdate carries the fields to change on a dose record. Nil fields
// are left untouched; the vaccine of a record cannot change.
type DoseRecordUpdate struct {
	DoseNumber   *int
	Status       *domain.DoseStatus
	AppliedOn    *time.Time
	ExpectedOn   *time.Time
	Lot          *string
	Site         *string
	Professional *string
	Notes        *string
}

// Application records the details of a dose being administered.
type Application struct {
	AppliedOn    time.Time
	Lot          *string
	Site         *string
	Professional *string
}

// DoseService manages users' vaccination histories. Every record operation
// is scoped to the owning user: a record of another user is reported as not
// found.
type DoseService interface {
	CreateDoseRecord(ctx context.Context, userID int64, in NewDoseRecord) (*domain.DoseRecord, error)
	ListDoseRecords(ctx context.Context, userID int64, filter store.DoseRecordFilter) ([]*domain.DoseRecord, error)
	GetDoseRecord(ctx context.Context, recordID, userID int64) (*domain.DoseRecord, error)
	UpdateDoseRecord(ctx context.Context, recordID, userID int64, upd DoseRecordUpdate) (*domain.DoseRecord, error)
	DeleteDoseRecord(ctx context.Context, recordID, userID int64) error
	MarkDoseApplied(ctx context.Context, recordID, userID int64, app Application) (*domain.DoseRecord, error)
	Statistics(ctx context.Context, userID int64) (*domain.DoseStatistics, error)
}

// DoseServiceImpl implements DoseService.
type DoseServiceImpl struct {
	userStore    store.UserStore
	vaccineStore store.VaccineStore
	doseStore    store.DoseRecordStore
	txRunner     store.TxRunner
	emitter      events.EventEmitter
	now          func() time.Time
	logger       *slog.Logger
}

var _ DoseService = (*DoseServiceImpl)(nil)

// NewDoseService creates a DoseService. emitter may be nil, in which case no
// dose.applied events are published.
func NewDoseService(
	userStore store.UserStore,
	vaccineStore store.VaccineStore,
	doseStore store.DoseRecordStore,
	txRunner store.TxRunner,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) *DoseServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	o := applyOptions(opts)
	return &DoseServiceImpl{
		userStore:    userStore,
		vaccineStore: vaccineStore,
		doseStore:    doseStore,
		txRunner:     txRunner,
		emitter:      emitter,
		now:          o.now,
		logger:       logger.With("component", "dose_service"),
	}
}

// CreateDoseRecord implements DoseService. Checks run in this order: user
// exists, vaccine exists, dose number fits the vaccine, dose not yet
// recorded, applied date not in the future.
func (s *DoseServiceImpl) CreateDoseRecord(
	ctx context.Context,
	userID int64,
	in NewDoseRecord,
) (*domain.DoseRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		"user_id", userID,
		"vaccine_id", in.VaccineID,
		"dose_number", in.DoseNumber)
	now := s.now()

	status := in.Status
	if status == "" {
		status = domain.DoseStatusPending
	}

	var (
		owner  *domain.User
		record *domain.DoseRecord
	)
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		users := s.userStore.WithTx(tx)
		vaccines := s.vaccineStore.WithTx(tx)
		doses := s.doseStore.WithTx(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		vaccine, err := vaccines.GetByID(ctx, in.VaccineID)
		if err != nil {
			return err
		}

		if err := domain.ValidateDoseNumber(in.DoseNumber, vaccine.DoseCount); err != nil {
			return err
		}

		if err := ensureDoseFree(ctx, doses, userID, vaccine.ID, in.DoseNumber); err != nil {
			return err
		}

		if in.AppliedOn != nil {
			if err := domain.ValidateNotFuture("applied_on", *in.AppliedOn, now); err != nil {
				return err
			}
		}

		rec := &domain.DoseRecord{
			UserID:       userID,
			VaccineID:    vaccine.ID,
			DoseNumber:   in.DoseNumber,
			Status:       status,
			AppliedOn:    dateOnly(in.AppliedOn),
			ExpectedOn:   dateOnly(in.ExpectedOn),
			Lot:          in.Lot,
			Site:         in.Site,
			Professional: in.Professional,
			Notes:        in.Notes,
			CreatedAt:    now.UTC(),
			UpdatedAt:    now.UTC(),
		}
		if err := rec.Validate(now); err != nil {
			return err
		}
		if err := doses.Create(ctx, rec); err != nil {
			return err
		}

		owner, record = user, rec
		return nil
	})
	if err != nil {
		logRejection(log, "dose record creation", err)
		return nil, fmt.Errorf("failed to create dose record: %w", err)
	}

	log.Info("dose record created",
		"record_id", record.ID,
		"status", record.Status)

	s.emitDoseApplied(ctx, owner, record)
	return record, nil
}

// ListDoseRecords implements DoseService. A user without records, or an
// unknown user, yields an empty slice.
func (s *DoseServiceImpl) ListDoseRecords(
	ctx context.Context,
	userID int64,
	filter store.DoseRecordFilter,
) ([]*domain.DoseRecord, error) {
	if err := validateFilter(filter); err != nil {
		return nil, fmt.Errorf("failed to list dose records: %w", err)
	}

	records, err := s.doseStore.ListForUser(ctx, userID, filter)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list dose records",
			"error", redact.Error(err),
			"user_id", userID)
		return nil, fmt.Errorf("failed to list dose records: %w", err)
	}
	return records, nil
}

// GetDoseRecord implements DoseService.
func (s *DoseServiceImpl) GetDoseRecord(ctx context.Context, recordID, userID int64) (*domain.DoseRecord, error) {
	record, err := s.doseStore.GetForUser(ctx, recordID, userID)
	if err != nil {
		if !errors.Is(err, store.ErrDoseRecordNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve dose record",
				"error", redact.Error(err),
				"record_id", recordID,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve dose record: %w", err)
	}
	return record, nil
}

// UpdateDoseRecord implements DoseService. Any status may replace any other.
func (s *DoseServiceImpl) UpdateDoseRecord(
	ctx context.Context,
	recordID, userID int64,
	upd DoseRecordUpdate,
) (*domain.DoseRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		"record_id", recordID,
		"user_id", userID)

	record, _, err := s.update(ctx, recordID, userID, upd, false)
	if err != nil {
		logRejection(log, "dose record update", err)
		return nil, fmt.Errorf("failed to update dose record: %w", err)
	}

	log.Info("dose record updated", "status", record.Status)
	return record, nil
}

// MarkDoseApplied implements DoseService. It sets the status to applied
// along with the application details and publishes a dose.applied event.
func (s *DoseServiceImpl) MarkDoseApplied(
	ctx context.Context,
	recordID, userID int64,
	app Application,
) (*domain.DoseRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		"record_id", recordID,
		"user_id", userID)

	if app.AppliedOn.IsZero() {
		err := domain.NewValidationError("applied_on", "is required", ErrMissingAppliedDate)
		return nil, fmt.Errorf("failed to mark dose applied: %w", err)
	}

	applied := domain.DoseStatusApplied
	record, owner, err := s.update(ctx, recordID, userID, DoseRecordUpdate{
		Status:       &applied,
		AppliedOn:    &app.AppliedOn,
		Lot:          app.Lot,
		Site:         app.Site,
		Professional: app.Professional,
	}, true)
	if err != nil {
		logRejection(log, "marking dose applied", err)
		return nil, fmt.Errorf("failed to mark dose applied: %w", err)
	}

	log.Info("dose marked applied")
	s.emitDoseApplied(ctx, owner, record)
	return record, nil
}

// update applies upd inside a transaction. When loadOwner is set the owning
// user is returned for event payloads.
func (s *DoseServiceImpl) update(
	ctx context.Context,
	recordID, userID int64,
	upd DoseRecordUpdate,
	loadOwner bool,
) (*domain.DoseRecord, *domain.User, error) {
	now := s.now()

	var (
		owner  *domain.User
		record *domain.DoseRecord
	)
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		doses := s.doseStore.WithTx(tx)

		rec, err := doses.GetForUser(ctx, recordID, userID)
		if err != nil {
			return err
		}

		if upd.DoseNumber != nil {
			if err := domain.ValidateDoseNumber(*upd.DoseNumber, rec.VaccineDoseCount); err != nil {
				return err
			}
			if *upd.DoseNumber != rec.DoseNumber {
				if err := ensureDoseFree(ctx, doses, userID, rec.VaccineID, *upd.DoseNumber); err != nil {
					return err
				}
			}
			rec.DoseNumber = *upd.DoseNumber
		}

		if upd.Status != nil {
			if !upd.Status.IsValid() {
				return domain.ValidateStatus(string(*upd.Status))
			}
			rec.Status = *upd.Status
		}

		if upd.AppliedOn != nil {
			if err := domain.ValidateNotFuture("applied_on", *upd.AppliedOn, now); err != nil {
				return err
			}
			rec.AppliedOn = dateOnly(upd.AppliedOn)
		}
		if upd.ExpectedOn != nil {
			rec.ExpectedOn = dateOnly(upd.ExpectedOn)
		}
		if upd.Lot != nil {
			rec.Lot = *upd.Lot
		}
		if upd.Site != nil {
			rec.Site = *upd.Site
		}
		if upd.Professional != nil {
			rec.Professional = *upd.Professional
		}
		if upd.Notes != nil {
			rec.Notes = *upd.Notes
		}

		rec.Touch(now)
		if err := rec.Validate(now); err != nil {
			return err
		}
		if err := doses.Update(ctx, rec); err != nil {
			return err
		}

		if loadOwner {
			owner, err = s.userStore.WithTx(tx).GetByID(ctx, userID)
			if err != nil {
				return err
			}
		}
		record = rec
		return nil
	})
	return record, owner, err
}

// DeleteDoseRecord implements DoseService.
func (s *DoseServiceImpl) DeleteDoseRecord(ctx context.Context, recordID, userID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		"record_id", recordID,
		"user_id", userID)

	err := s.txRunner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.doseStore.WithTx(tx).DeleteForUser(ctx, recordID, userID)
	})
	if err != nil {
		logRejection(log, "dose record deletion", err)
		return fmt.Errorf("failed to delete dose record: %w", err)
	}

	log.Info("dose record deleted")
	return nil
}

// Statistics implements DoseService.
func (s *DoseServiceImpl) Statistics(ctx context.Context, userID int64) (*domain.DoseStatistics, error) {
	records, err := s.doseStore.ListForUser(ctx, userID, store.DoseRecordFilter{})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load records for statistics",
			"error", redact.Error(err),
			"user_id", userID)
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	return domain.ComputeStatistics(records), nil
}

// emitDoseApplied publishes a dose.applied event for an applied record with
// a known date. Failures are logged and never returned: the record is
// already committed.
func (s *DoseServiceImpl) emitDoseApplied(ctx context.Context, owner *domain.User, rec *domain.DoseRecord) {
	if s.emitter == nil || owner == nil || rec.Status != domain.DoseStatusApplied || rec.AppliedOn == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger).With("record_id", rec.ID)

	event, err := events.NewEvent(events.TypeDoseApplied, events.DoseAppliedPayload{
		RecordID:     rec.ID,
		UserID:       owner.ID,
		UserName:     owner.Name,
		UserEmail:    owner.Email,
		VaccineName:  rec.VaccineName,
		DoseNumber:   rec.DoseNumber,
		DoseCount:    rec.VaccineDoseCount,
		AppliedOn:    *rec.AppliedOn,
		Lot:          rec.Lot,
		Site:         rec.Site,
		Professional: rec.Professional,
	})
	if err != nil {
		log.Error("failed to build dose.applied event", "error", err)
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit dose.applied event",
			"error", redact.Error(err),
			"event_id", event.ID)
	}
}

func ensureDoseFree(ctx context.Context, doses store.DoseRecordStore, userID, vaccineID int64, doseNumber int) error {
	_, err := doses.FindByDose(ctx, userID, vaccineID, doseNumber)
	switch {
	case err == nil:
		return store.ErrDuplicateDose
	case errors.Is(err, store.ErrDoseRecordNotFound):
		return nil
	default:
		return err
	}
}

func validateFilter(f store.DoseRecordFilter) error {
	if f.Year != nil && (*f.Year < MinFilterYear || *f.Year > MaxFilterYear) {
		return domain.NewValidationError("year",
			fmt.Sprintf("must be between %d and %d", MinFilterYear, MaxFilterYear), ErrInvalidFilter)
	}
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		return domain.NewValidationError("month", "must be between 1 and 12", ErrInvalidFilter)
	}
	if f.VaccineID != nil {
		if err := domain.ValidateID("vaccine_id", *f.VaccineID); err != nil {
			return err
		}
	}
	if f.Status != nil {
		return domain.ValidateStatus(string(*f.Status))
	}
	return nil
}

// dateOnly truncates a timestamp to its UTC calendar day.
func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.DateOf(t.UTC())
	return &d
}

// logRejection logs expected failures at debug level and everything else as
// an error.
func logRejection(log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, domain.ErrValidation):
		log.Debug(op+" rejected", "error", err)
	default:
		log.Error(op+" failed", "error", redact.Error(err))
	}
}
