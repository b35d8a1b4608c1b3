package mocks

import (
	"context"
	"database/sql"

	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// UserStore is a testify mock of store.UserStore.
type UserStore struct {
	mock.Mock
}

var _ store.UserStore = (*UserStore)(nil)

func (m *UserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]*domain.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserStore) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// WithTx returns the mock itself.
func (m *UserStore) WithTx(*sql.Tx) store.UserStore {
	return m
}

// VaccineStore is a testify mock of store.VaccineStore.
type VaccineStore struct {
	mock.Mock
}

var _ store.VaccineStore = (*VaccineStore)(nil)

func (m *VaccineStore) Create(ctx context.Context, vaccine *domain.Vaccine) error {
	args := m.Called(ctx, vaccine)
	return args.Error(0)
}

func (m *VaccineStore) GetByID(ctx context.Context, id int64) (*domain.Vaccine, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*domain.Vaccine); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VaccineStore) GetByName(ctx context.Context, name string) (*domain.Vaccine, error) {
	args := m.Called(ctx, name)
	if v, ok := args.Get(0).(*domain.Vaccine); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VaccineStore) List(ctx context.Context) ([]*domain.Vaccine, error) {
	args := m.Called(ctx)
	if vs, ok := args.Get(0).([]*domain.Vaccine); ok {
		return vs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VaccineStore) ListByDoseCount(ctx context.Context, doseCount int) ([]*domain.Vaccine, error) {
	args := m.Called(ctx, doseCount)
	if vs, ok := args.Get(0).([]*domain.Vaccine); ok {
		return vs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VaccineStore) Update(ctx context.Context, vaccine *domain.Vaccine) error {
	args := m.Called(ctx, vaccine)
	return args.Error(0)
}

func (m *VaccineStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// WithTx returns the mock itself.
func (m *VaccineStore) WithTx(*sql.Tx) store.VaccineStore {
	return m
}

// DoseRecordStore is a testify mock of store.DoseRecordStore.
type DoseRecordStore struct {
	mock.Mock
}

var _ store.DoseRecordStore = (*DoseRecordStore)(nil)

func (m *DoseRecordStore) Create(ctx context.Context, record *domain.DoseRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *DoseRecordStore) GetForUser(ctx context.Context, recordID, userID int64) (*domain.DoseRecord, error) {
	args := m.Called(ctx, recordID, userID)
	if r, ok := args.Get(0).(*domain.DoseRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DoseRecordStore) FindByDose(
	ctx context.Context,
	userID, vaccineID int64,
	doseNumber int,
) (*domain.DoseRecord, error) {
	args := m.Called(ctx, userID, vaccineID, doseNumber)
	if r, ok := args.Get(0).(*domain.DoseRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DoseRecordStore) ListForUser(
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

func (m *DoseRecordStore) Update(ctx context.Context, record *domain.DoseRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *DoseRecordStore) DeleteForUser(ctx context.Context, recordID, userID int64) error {
	args := m.Called(ctx, recordID, userID)
	return args.Error(0)
}

// WithTx returns the mock itself.
func (m *DoseRecordStore) WithTx(*sql.Tx) store.DoseRecordStore {
	return m
}
