package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/events"
	"github.com/imunetrack/imunetrack-api/internal/mocks"
	"github.com/imunetrack/imunetrack-api/internal/service"
	"github.com/imunetrack/imunetrack-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type doseFixture struct {
	users    *mocks.UserStore
	vaccines *mocks.VaccineStore
	doses    *mocks.DoseRecordStore
	emitter  *mocks.EventEmitter
	svc      *service.DoseServiceImpl
}

func newDoseFixture() *doseFixture {
	return newDoseFixtureAt(fixedNow)
}

func newDoseFixtureAt(now time.Time) *doseFixture {
	f := &doseFixture{
		users:    new(mocks.UserStore),
		vaccines: new(mocks.VaccineStore),
		doses:    new(mocks.DoseRecordStore),
		emitter:  &mocks.EventEmitter{},
	}
	f.svc = service.NewDoseService(f.users, f.vaccines, f.doses, new(mocks.TxRunner), f.emitter,
		testLogger(), service.WithClock(func() time.Time { return now }))
	return f
}

// expectCreatable primes the stores for a successful create of dose 1 of
// Hepatite B for the existing user.
func (f *doseFixture) expectCreatable(dose int) {
	f.users.On("GetByID", mock.Anything, int64(1)).Return(existingUser(), nil)
	f.vaccines.On("GetByID", mock.Anything, int64(1)).Return(hepatitisB(), nil)
	f.doses.On("FindByDose", mock.Anything, int64(1), int64(1), dose).Return(nil, store.ErrDoseRecordNotFound)
	f.doses.On("Create", mock.Anything, mock.AnythingOfType("*domain.DoseRecord")).
		Run(func(args mock.Arguments) {
			rec := args.Get(1).(*domain.DoseRecord)
			rec.ID = 10
			rec.VaccineName = "Hepatite B"
			rec.VaccineDoseCount = 3
		}).
		Return(nil)
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func storedRecord(status domain.DoseStatus, applied *time.Time) *domain.DoseRecord {
	return &domain.DoseRecord{
		ID:               10,
		UserID:           1,
		VaccineID:        1,
		DoseNumber:       1,
		Status:           status,
		AppliedOn:        applied,
		VaccineName:      "Hepatite B",
		VaccineDoseCount: 3,
	}
}

func TestDoseService_CreateDoseRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to pending without event", func(t *testing.T) {
		f := newDoseFixture()
		f.expectCreatable(1)

		rec, err := f.svc.CreateDoseRecord(ctx, 1, service.NewDoseRecord{VaccineID: 1, DoseNumber: 1})

		require.NoError(t, err)
		assert.Equal(t, domain.DoseStatusPending, rec.Status)
		assert.Equal(t, int64(10), rec.ID)
		assert.True(t, rec.CreatedAt.Equal(fixedNow))
		assert.Empty(t, f.emitter.Events())
	})

	t.Run("applied dose emits event", func(t *testing.T) {
		f := newDoseFixture()
		f.expectCreatable(1)
		applied := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

		rec, err := f.svc.CreateDoseRecord(ctx, 1, service.NewDoseRecord{
			VaccineID:  1,
			DoseNumber: 1,
			Status:     domain.DoseStatusApplied,
			AppliedOn:  &applied,
			Lot:        "L123",
		})

		require.NoError(t, err)
		require.NotNil(t, rec.AppliedOn)
		assert.Equal(t, *day(2024, 3, 15), *rec.AppliedOn, "applied date truncated to the day")

		emitted := f.emitter.Events()
		require.Len(t, emitted, 1)
		assert.Equal(t, events.TypeDoseApplied, emitted[0].Type)

		var payload events.DoseAppliedPayload
		require.NoError(t, emitted[0].UnmarshalPayload(&payload))
		assert.Equal(t, "maria@test.com", payload.UserEmail)
		assert.Equal(t, "Hepatite B", payload.VaccineName)
		assert.Equal(t, "L123", payload.Lot)
		assert.Equal(t, 3, payload.DoseCount)
	})

	t.Run("emitter failure does not fail the create", func(t *testing.T) {
		f := newDoseFixture()
		f.expectCreatable(1)
		f.emitter.Err = errors.New("queue full")

		_, err := f.svc.CreateDoseRecord(ctx, 1, service.NewDoseRecord{
			VaccineID:  1,
			DoseNumber: 1,
			Status:     domain.DoseStatusApplied,
			AppliedOn:  day(2024, 3, 15),
		})

		require.NoError(t, err)
		assert.Len(t, f.emitter.Events(), 1)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newDoseFixture()
		f.users.On("GetByID", mock.Anything, int64(1)).Return(nil, store.ErrUserNotFound)

		_, err := f.svc.CreateDoseRecord(ctx, 1, service.NewDoseRecord{VaccineID: 1, DoseNumber: 1})

		assert.ErrorIs(t, err, store.ErrUserNotFound)
		f.vaccines.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown vaccine", func(t *testing.T) {
		f := newDoseFixture()
		f.users.On("GetByID", mock.Anything, int64(1)).Return(existingUser(), nil)
		f.vaccines.On("GetByID", mock.Anything, int64(7)).Return(nil, store.ErrVaccineNotFound)

		_, err := f.svc.CreateDoseRecord(ctx, 1, service.NewDoseRecord{VaccineID: 7, DoseNumber: 1})

		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("dose number beyond schedule", func(t *testing.T) {
		f := newDoseFixture()
		f.users.On("GetByID", mock.Anything, int64(1)).Return(existingUser(), nil)
		f.vaccines.On("GetByID", mock.Anything, int64(1)).Return(hepatitisB(), nil)

		_, err := f.svc.CreateDoseRecord(ctx, 1, service.NewDoseRecord{VaccineID: 1, DoseNumber: 4})

		assert.ErrorIs(t, err, domain.ErrValidation)
		f.doses.AssertNotCalled(t, "FindByDose", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("dose already recorded", func(t *testing.T) {
		f := newDoseFixture()
		f.users.On("GetByID", mock.Anything, int64(1)).Return(existingUser(), nil)
		f.vaccines.On("GetByID", mock.Anything, int64(1)).Return(hepatitisB(), nil)
		f.doses.On("FindByDose", mock.Anything, int64(1), int64(1), 2).
			Return(storedRecord(domain.DoseStatusPending, nil), nil)

		_, err := f.svc.CreateDoseRecord(ctx, 1, service.NewDoseRecord{VaccineID: 1, DoseNumber: 2})

		assert.ErrorIs(t, err, store.ErrDuplicateDose)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		f.doses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("applied date in the future", func(t *testing.T) {
		f := newDoseFixture()
		f.users.On("GetByID", mock.Anything, int64(1)).Return(existingUser(), nil)
		f.vaccines.On("GetByID", mock.Anything, int64(1)).Return(hepatitisB(), nil)
		f.doses.On("FindByDose", mock.Anything, int64(1), int64(1), 1).Return(nil, store.ErrDoseRecordNotFound)

		_, err := f.svc.CreateDoseRecord(ctx, 1, service.NewDoseRecord{
			VaccineID:  1,
			DoseNumber: 1,
			Status:     domain.DoseStatusApplied,
			AppliedOn:  day(2024, 6, 16),
		})

		assert.ErrorIs(t, err, domain.ErrFutureDate)
		assert.Empty(t, f.emitter.Events())
	})

	t.Run("tomorrow rejected when the clock is west of UTC", func(t *testing.T) {
		brt := time.FixedZone("BRT", -3*60*60)
		f := newDoseFixtureAt(time.Date(2024, 6, 15, 10, 0, 0, 0, brt))
		f.users.On("GetByID", mock.Anything, int64(1)).Return(existingUser(), nil)
		f.vaccines.On("GetByID", mock.Anything, int64(1)).Return(hepatitisB(), nil)
		f.doses.On("FindByDose", mock.Anything, int64(1), int64(1), 1).Return(nil, store.ErrDoseRecordNotFound)

		_, err := f.svc.CreateDoseRecord(ctx, 1, service.NewDoseRecord{
			VaccineID:  1,
			DoseNumber: 1,
			Status:     domain.DoseStatusApplied,
			AppliedOn:  day(2024, 6, 16),
		})

		assert.ErrorIs(t, err, domain.ErrFutureDate)
		f.doses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newDoseFixture()
		f.users.On("GetByID", mock.Anything, int64(1)).Return(existingUser(), nil)
		f.vaccines.On("GetByID", mock.Anything, int64(1)).Return(hepatitisB(), nil)
		f.doses.On("FindByDose", mock.Anything, int64(1), int64(1), 1).Return(nil, store.ErrDoseRecordNotFound)

		_, err := f.svc.CreateDoseRecord(ctx, 1, service.NewDoseRecord{
			VaccineID:  1,
			DoseNumber: 1,
			Status:     domain.DoseStatus("given"),
		})

		assert.ErrorIs(t, err, domain.ErrInvalidDoseStatus)
	})
}

func TestDoseService_ListDoseRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("passes filter through", func(t *testing.T) {
		f := newDoseFixture()
		year, month := 2024, 3
		filter := store.DoseRecordFilter{Year: &year, Month: &month}
		f.doses.On("ListForUser", mock.Anything, int64(1), filter).
			Return([]*domain.DoseRecord{storedRecord(domain.DoseStatusApplied, day(2024, 3, 15))}, nil)

		records, err := f.svc.ListDoseRecords(ctx, 1, filter)

		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("rejects bad filters", func(t *testing.T) {
		f := newDoseFixture()
		badYear, badMonth := 1800, 13
		bogus := domain.DoseStatus("given")

		for name, filter := range map[string]store.DoseRecordFilter{
			"year":   {Year: &badYear},
			"month":  {Month: &badMonth},
			"status": {Status: &bogus},
		} {
			_, err := f.svc.ListDoseRecords(ctx, 1, filter)
			assert.ErrorIs(t, err, domain.ErrValidation, name)
		}

		_, err := f.svc.ListDoseRecords(ctx, 1, store.DoseRecordFilter{Month: &badMonth})
		assert.ErrorIs(t, err, service.ErrInvalidFilter)
		f.doses.AssertNotCalled(t, "ListForUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDoseService_UpdateDoseRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("changes status and notes", func(t *testing.T) {
		f := newDoseFixture()
		f.doses.On("GetForUser", mock.Anything, int64(10), int64(1)).
			Return(storedRecord(domain.DoseStatusPending, nil), nil)
		f.doses.On("Update", mock.Anything, mock.AnythingOfType("*domain.DoseRecord")).Return(nil)

		late := domain.DoseStatusLate
		rec, err := f.svc.UpdateDoseRecord(ctx, 10, 1, service.DoseRecordUpdate{
			Status: &late,
			Notes:  strPtr("missed appointment"),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.DoseStatusLate, rec.Status)
		assert.Equal(t, "missed appointment", rec.Notes)
		assert.True(t, rec.UpdatedAt.Equal(fixedNow))
		assert.Empty(t, f.emitter.Events(), "plain updates never notify")
	})

	t.Run("new dose number already recorded", func(t *testing.T) {
		f := newDoseFixture()
		f.doses.On("GetForUser", mock.Anything, int64(10), int64(1)).
			Return(storedRecord(domain.DoseStatusPending, nil), nil)
		f.doses.On("FindByDose", mock.Anything, int64(1), int64(1), 2).
			Return(&domain.DoseRecord{ID: 11}, nil)

		_, err := f.svc.UpdateDoseRecord(ctx, 10, 1, service.DoseRecordUpdate{DoseNumber: intPtr(2)})

		assert.ErrorIs(t, err, store.ErrDuplicateDose)
		f.doses.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("dose number beyond schedule", func(t *testing.T) {
		f := newDoseFixture()
		f.doses.On("GetForUser", mock.Anything, int64(10), int64(1)).
			Return(storedRecord(domain.DoseStatusPending, nil), nil)

		_, err := f.svc.UpdateDoseRecord(ctx, 10, 1, service.DoseRecordUpdate{DoseNumber: intPtr(5)})

		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("record of another user", func(t *testing.T) {
		f := newDoseFixture()
		f.doses.On("GetForUser", mock.Anything, int64(10), int64(2)).Return(nil, store.ErrDoseRecordNotFound)

		_, err := f.svc.UpdateDoseRecord(ctx, 10, 2, service.DoseRecordUpdate{Notes: strPtr("x")})

		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestDoseService_MarkDoseApplied(t *testing.T) {
	ctx := context.Background()

	t.Run("applies and notifies", func(t *testing.T) {
		f := newDoseFixture()
		f.doses.On("GetForUser", mock.Anything, int64(10), int64(1)).
			Return(storedRecord(domain.DoseStatusPending, nil), nil)
		f.doses.On("Update", mock.Anything, mock.AnythingOfType("*domain.DoseRecord")).Return(nil)
		f.users.On("GetByID", mock.Anything, int64(1)).Return(existingUser(), nil)

		rec, err := f.svc.MarkDoseApplied(ctx, 10, 1, service.Application{
			AppliedOn:    *day(2024, 6, 10),
			Site:         strPtr("UBS Centro"),
			Professional: strPtr("Enf. Ana"),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.DoseStatusApplied, rec.Status)
		assert.Equal(t, "UBS Centro", rec.Site)

		emitted := f.emitter.Events()
		require.Len(t, emitted, 1)
		var payload events.DoseAppliedPayload
		require.NoError(t, emitted[0].UnmarshalPayload(&payload))
		assert.Equal(t, int64(10), payload.RecordID)
		assert.Equal(t, "Enf. Ana", payload.Professional)
	})

	t.Run("requires a date", func(t *testing.T) {
		f := newDoseFixture()

		_, err := f.svc.MarkDoseApplied(ctx, 10, 1, service.Application{})

		assert.ErrorIs(t, err, service.ErrMissingAppliedDate)
		assert.ErrorIs(t, err, domain.ErrValidation)
		f.doses.AssertNotCalled(t, "GetForUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("future date", func(t *testing.T) {
		f := newDoseFixture()
		f.doses.On("GetForUser", mock.Anything, int64(10), int64(1)).
			Return(storedRecord(domain.DoseStatusPending, nil), nil)

		_, err := f.svc.MarkDoseApplied(ctx, 10, 1, service.Application{AppliedOn: *day(2025, 1, 1)})

		assert.ErrorIs(t, err, domain.ErrFutureDate)
		assert.Empty(t, f.emitter.Events())
	})

	t.Run("tomorrow rejected when the clock is west of UTC", func(t *testing.T) {
		brt := time.FixedZone("BRT", -3*60*60)
		f := newDoseFixtureAt(time.Date(2024, 6, 15, 10, 0, 0, 0, brt))
		f.doses.On("GetForUser", mock.Anything, int64(10), int64(1)).
			Return(storedRecord(domain.DoseStatusPending, nil), nil)

		_, err := f.svc.MarkDoseApplied(ctx, 10, 1, service.Application{AppliedOn: *day(2024, 6, 16)})

		assert.ErrorIs(t, err, domain.ErrFutureDate)
		f.doses.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestDoseService_DeleteDoseRecord(t *testing.T) {
	f := newDoseFixture()
	f.doses.On("DeleteForUser", mock.Anything, int64(10), int64(1)).Return(nil)
	f.doses.On("DeleteForUser", mock.Anything, int64(10), int64(2)).Return(store.ErrDoseRecordNotFound)

	require.NoError(t, f.svc.DeleteDoseRecord(context.Background(), 10, 1))
	assert.ErrorIs(t, f.svc.DeleteDoseRecord(context.Background(), 10, 2), store.ErrNotFound)
}

func TestDoseService_Statistics(t *testing.T) {
	f := newDoseFixture()
	records := []*domain.DoseRecord{
		storedRecord(domain.DoseStatusApplied, day(2024, 1, 10)),
		{ID: 11, UserID: 1, VaccineID: 1, DoseNumber: 2, Status: domain.DoseStatusPending,
			ExpectedOn: day(2024, 7, 10), VaccineName: "Hepatite B", VaccineDoseCount: 3},
	}
	f.doses.On("ListForUser", mock.Anything, int64(1), store.DoseRecordFilter{}).Return(records, nil)
	f.doses.On("ListForUser", mock.Anything, int64(2), store.DoseRecordFilter{}).Return([]*domain.DoseRecord{}, nil)

	stats, err := f.svc.Statistics(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDoses)
	assert.Equal(t, 1, stats.AppliedDoses)
	assert.Equal(t, 1, stats.PendingDoses)
	assert.Equal(t, 1, stats.IncompleteVaccines)

	empty, err := f.svc.Statistics(context.Background(), 2)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalDoses)
}
