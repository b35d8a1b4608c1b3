package service

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
	"github.com/imunetrack/imunetrack-api/internal/redact"
	"github.com/imunetrack/imunetrack-api/internal/store"
)

// VaccineUpdate carries the fields to change on a vaccine.
type VaccineUpdate struct {
	Name      *string
	DoseCount *int
}

// VaccineService manages the vaccine catalog.
type VaccineService interface {
	ListVaccines(ctx context.Context) ([]*domain.Vaccine, error)
	ListVaccinesByDoseCount(ctx context.Context, doseCount int) ([]*domain.Vaccine, error)
	GetVaccine(ctx context.Context, vaccineID int64) (*domain.Vaccine, error)
	// GetVaccineByName matches the trimmed name exactly.
	GetVaccineByName(ctx context.Context, name string) (*domain.Vaccine, error)
	CreateVaccine(ctx context.Context, name string, doseCount int) (*domain.Vaccine, error)
	UpdateVaccine(ctx context.Context, vaccineID int64, upd VaccineUpdate) (*domain.Vaccine, error)
	// DeleteVaccine removes the vaccine and every dose record that uses it.
	DeleteVaccine(ctx context.Context, vaccineID int64) error
}

// VaccineServiceImpl implements VaccineService.
type VaccineServiceImpl struct {
	vaccineStore store.VaccineStore
	txRunner     store.TxRunner
	now          func() time.Time
	logger       *slog.Logger
}

var _ VaccineService = (*VaccineServiceImpl)(nil)

// NewVaccineService creates a new VaccineService.
func NewVaccineService(
	vaccineStore store.VaccineStore,
	txRunner store.TxRunner,
	logger *slog.Logger,
	opts ...Option,
) *VaccineServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	o := applyOptions(opts)
	return &VaccineServiceImpl{
		vaccineStore: vaccineStore,
		txRunner:     txRunner,
		now:          o.now,
		logger:       logger.With("component", "vaccine_service"),
	}
}

// ListVaccines implements VaccineService.
func (s *VaccineServiceImpl) ListVaccines(ctx context.Context) ([]*domain.Vaccine, error) {
	vaccines, err := s.vaccineStore.List(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list vaccines",
			"error", redact.Error(err))
		return nil, fmt.Errorf("failed to list vaccines: %w", err)
	}
	return vaccines, nil
}

// ListVaccinesByDoseCount implements VaccineService. The count must be a
// valid dose count.
func (s *VaccineServiceImpl) ListVaccinesByDoseCount(ctx context.Context, doseCount int) ([]*domain.Vaccine, error) {
	if err := domain.ValidateDoseCount(doseCount); err != nil {
		return nil, fmt.Errorf("failed to list vaccines: %w", err)
	}

	vaccines, err := s.vaccineStore.ListByDoseCount(ctx, doseCount)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list vaccines by dose count",
			"error", redact.Error(err),
			"dose_count", doseCount)
		return nil, fmt.Errorf("failed to list vaccines: %w", err)
	}
	return vaccines, nil
}

// GetVaccine implements VaccineService.
func (s *VaccineServiceImpl) GetVaccine(ctx context.Context, vaccineID int64) (*domain.Vaccine, error) {
	vaccine, err := s.vaccineStore.GetByID(ctx, vaccineID)
	if err != nil {
		s.logLookupFailure(ctx, err, "vaccine_id", vaccineID)
		return nil, fmt.Errorf("failed to retrieve vaccine: %w", err)
	}
	return vaccine, nil
}

// GetVaccineByName implements VaccineService. The name is trimmed before
// the exact-match lookup.
func (s *VaccineServiceImpl) GetVaccineByName(ctx context.Context, name string) (*domain.Vaccine, error) {
	vaccine, err := s.vaccineStore.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		s.logLookupFailure(ctx, err, "name", name)
		return nil, fmt.Errorf("failed to retrieve vaccine: %w", err)
	}
	return vaccine, nil
}

// logLookupFailure logs lookup errors other than not found.
func (s *VaccineServiceImpl) logLookupFailure(ctx context.Context, err error, key string, value any) {
	if errors.Is(err, store.ErrVaccineNotFound) {
		return
	}
	logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve vaccine",
		"error", redact.Error(err),
		key, value)
}

// CreateVaccine implements VaccineService.
func (s *VaccineServiceImpl) CreateVaccine(ctx context.Context, name string, doseCount int) (*domain.Vaccine, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	vaccine, err := domain.NewVaccine(name, doseCount)
	if err != nil {
		return nil, fmt.Errorf("failed to create vaccine: %w", err)
	}
	now := s.now().UTC()
	vaccine.CreatedAt = now
	vaccine.UpdatedAt = now

	err = s.txRunner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.vaccineStore.WithTx(tx)

		if err := ensureVaccineNameFree(ctx, txStore, vaccine.Name, 0); err != nil {
			return err
		}
		return txStore.Create(ctx, vaccine)
	})
	if err != nil {
		if errors.Is(err, store.ErrVaccineNameExists) {
			log.Debug("attempted to create vaccine with existing name", "name", vaccine.Name)
		} else {
			log.Error("failed to save vaccine", "error", redact.Error(err), "name", vaccine.Name)
		}
		return nil, fmt.Errorf("failed to create vaccine: %w", err)
	}

	log.Info("vaccine created",
		"vaccine_id", vaccine.ID,
		"name", vaccine.Name,
		"dose_count", vaccine.DoseCount)
	return vaccine, nil
}

// UpdateVaccine implements VaccineService. Only supplied fields change.
func (s *VaccineServiceImpl) UpdateVaccine(ctx context.Context, vaccineID int64, upd VaccineUpdate) (*domain.Vaccine, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("vaccine_id", vaccineID)

	var updated *domain.Vaccine
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.vaccineStore.WithTx(tx)

		vaccine, err := txStore.GetByID(ctx, vaccineID)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			if err := domain.ValidateName("name", *upd.Name); err != nil {
				return err
			}
			name := strings.TrimSpace(*upd.Name)
			if name != vaccine.Name {
				if err := ensureVaccineNameFree(ctx, txStore, name, vaccine.ID); err != nil {
					return err
				}
			}
			vaccine.Name = name
		}

		if upd.DoseCount != nil {
			if err := domain.ValidateDoseCount(*upd.DoseCount); err != nil {
				return err
			}
			vaccine.DoseCount = *upd.DoseCount
		}

		vaccine.UpdatedAt = s.now().UTC()
		if err := txStore.Update(ctx, vaccine); err != nil {
			return err
		}
		updated = vaccine
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound),
			errors.Is(err, store.ErrDuplicate),
			errors.Is(err, domain.ErrValidation):
			log.Debug("vaccine update rejected", "error", err)
		default:
			log.Error("failed to update vaccine", "error", redact.Error(err))
		}
		return nil, fmt.Errorf("failed to update vaccine: %w", err)
	}

	log.Info("vaccine updated")
	return updated, nil
}

// DeleteVaccine implements VaccineService. Dose records of the vaccine
// are removed by the storage cascade.
func (s *VaccineServiceImpl) DeleteVaccine(ctx context.Context, vaccineID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With("vaccine_id", vaccineID)

	err := s.txRunner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.vaccineStore.WithTx(tx).Delete(ctx, vaccineID)
	})
	if err != nil {
		if !errors.Is(err, store.ErrVaccineNotFound) {
			log.Error("failed to delete vaccine", "error", redact.Error(err))
		}
		return fmt.Errorf("failed to delete vaccine: %w", err)
	}

	log.Info("vaccine deleted")
	return nil
}

func ensureVaccineNameFree(ctx context.Context, vaccines store.VaccineStore, name string, ownerID int64) error {
	existing, err := vaccines.GetByName(ctx, name)
	switch {
	case err == nil && existing.ID != ownerID:
		return store.ErrVaccineNameExists
	case err == nil, errors.Is(err, store.ErrVaccineNotFound):
		return nil
	default:
		return err
	}
}
