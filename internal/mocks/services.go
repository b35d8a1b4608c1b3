package mocks

import (
	"context"

	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/service"
	"github.com/imunetrack/imunetrack-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// UserService is a testify mock of service.UserService.
type UserService struct {
	mock.Mock
}

var _ service.UserService = (*UserService)(nil)

func (m *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]*domain.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserService) CreateUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	args := m.Called(ctx, name, email, password)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserService) UpdateUser(ctx context.Context, userID int64, upd service.UserUpdate) (*domain.User, error) {
	args := m.Called(ctx, userID, upd)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserService) DeleteUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, bool, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Bool(1), args.Error(2)
}

// VaccineService is a testify mock of service.VaccineService.
type VaccineService struct {
	mock.Mock
}

var _ service.VaccineService = (*VaccineService)(nil)

func (m *VaccineService) ListVaccines(ctx context.Context) ([]*domain.Vaccine, error) {
	args := m.Called(ctx)
	if vs, ok := args.Get(0).([]*domain.Vaccine); ok {
		return vs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VaccineService) ListVaccinesByDoseCount(ctx context.Context, doseCount int) ([]*domain.Vaccine, error) {
	args := m.Called(ctx, doseCount)
	if vs, ok := args.Get(0).([]*domain.Vaccine); ok {
		return vs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VaccineService) GetVaccine(ctx context.Context, vaccineID int64) (*domain.Vaccine, error) {
	args := m.Called(ctx, vaccineID)
	if v, ok := args.Get(0).(*domain.Vaccine); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VaccineService) GetVaccineByName(ctx context.Context, name string) (*domain.Vaccine, error) {
	args := m.Called(ctx, name)
	if v, ok := args.Get(0).(*domain.Vaccine); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VaccineService) CreateVaccine(ctx context.Context, name string, doseCount int) (*domain.Vaccine, error) {
	args := m.Called(ctx, name, doseCount)
	if v, ok := args.Get(0).(*domain.Vaccine); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VaccineService) UpdateVaccine(
	ctx context.Context,
	vaccineID int64,
	upd service.VaccineUpdate,
) (*domain.Vaccine, error) {
	args := m.Called(ctx, vaccineID, upd)
	if v, ok := args.Get(0).(*domain.Vaccine); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VaccineService) DeleteVaccine(ctx context.Context, vaccineID int64) error {
	args := m.Called(ctx, vaccineID)
	return args.Error(0)
}

// DoseService is a testify mock of service.DoseService.
type DoseService struct {
	mock.Mock
}

var _ service.DoseService = (*DoseService)(nil)

func (m *DoseService) CreateDoseRecord(
	ctx context.Context,
	userID int64,
	in service.NewDoseRecord,
) (*domain.DoseRecord, error) {
	args := m.Called(ctx, userID, in)
	if r, ok := args.Get(0).(*domain.DoseRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DoseService) ListDoseRecords(
	ctx context.Context,
	userID int64,
	filter store.DoseRecordFilter,
) ([]*domain.DoseRecord, error) {
	args := m.Called(ctx, userID, filter)
	if rs, ok := args.Get(0).([]*domain.DoseRecord); ok {
		return rs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DoseService) GetDoseRecord(ctx context.Context, recordID, userID int64) (*domain.DoseRecord, error) {
	args := m.Called(ctx, recordID, userID)
	if r, ok := args.Get(0).(*domain.DoseRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DoseService) UpdateDoseRecord(
	ctx context.Context,
	recordID, userID int64,
	upd service.DoseRecordUpdate,
) (*domain.DoseRecord, error) {
	args := m.Called(ctx, recordID, userID, upd)
	if r, ok := args.Get(0).(*domain.DoseRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DoseService) DeleteDoseRecord(ctx context.Context, recordID, userID int64) error {
	args := m.Called(ctx, recordID, userID)
	return args.Error(0)
}

func (m *DoseService) MarkDoseApplied(
	ctx context.Context,
	recordID, userID int64,
	app service.Application,
) (*domain.DoseRecord, error) {
	args := m.Called(ctx, recordID, userID, app)
	if r, ok := args.Get(0).(*domain.DoseRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DoseService) Statistics(ctx context.Context, userID int64) (*domain.DoseStatistics, error) {
	args := m.Called(ctx, userID)
	if s, ok := args.Get(0).(*domain.DoseStatistics); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
