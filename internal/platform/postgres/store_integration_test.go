package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/platform/postgres"
	"github.com/imunetrack/imunetrack-api/internal/store"
	"github.com/imunetrack/imunetrack-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

type fixtures struct {
	users    *postgres.PostgresUserStore
	vaccines *postgres.PostgresVaccineStore
	records  *postgres.PostgresDoseRecordStore
}

func newFixtures(tx *sql.Tx) fixtures {
	return fixtures{
		users:    postgres.NewPostgresUserStore(tx, nil),
		vaccines: postgres.NewPostgresVaccineStore(tx, nil),
		records:  postgres.NewPostgresDoseRecordStore(tx, nil),
	}
}

func (f fixtures) user(t *testing.T, email string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{Name: "Test", Email: email, HashedPassword: "hash", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f fixtures) vaccine(t *testing.T, name string, doses int) *domain.Vaccine {
	t.Helper()
	now := time.Now().UTC()
	v := &domain.Vaccine{Name: name, DoseCount: doses, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.vaccines.Create(context.Background(), v))
	return v
}

func (f fixtures) record(t *testing.T, userID, vaccineID int64, dose int, status domain.DoseStatus, applied *time.Time) *domain.DoseRecord {
	t.Helper()
	now := time.Now().UTC()
	r := &domain.DoseRecord{
		UserID:     userID,
		VaccineID:  vaccineID,
		DoseNumber: dose,
		Status:     status,
		AppliedOn:  applied,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.records.Create(context.Background(), r))
	return r
}

// failing runs fn inside a savepoint so a constraint violation does not
// abort the surrounding test transaction.
func failing(t *testing.T, tx *sql.Tx, fn func() error) error {
	t.Helper()
	_, err := tx.Exec("SAVEPOINT expect_failure")
	require.NoError(t, err)
	fnErr := fn()
	_, err = tx.Exec("ROLLBACK TO SAVEPOINT expect_failure")
	require.NoError(t, err)
	return fnErr
}

func TestIntegration_UserStore(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		f := newFixtures(tx)
		ctx := context.Background()

		alice := f.user(t, "alice@test.com")
		assert.NotZero(t, alice.ID)

		got, err := f.users.GetByEmail(ctx, "alice@test.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)

		dup := &domain.User{Name: "Other", Email: "alice@test.com", HashedPassword: "hash"}
		err = failing(t, tx, func() error { return f.users.Create(ctx, dup) })
		assert.ErrorIs(t, err, store.ErrEmailExists)

		got.Name = "Alice Renamed"
		got.UpdatedAt = time.Now().UTC()
		require.NoError(t, f.users.Update(ctx, got))

		reloaded, err := f.users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice Renamed", reloaded.Name)

		require.NoError(t, f.users.Delete(ctx, alice.ID))
		_, err = f.users.GetByID(ctx, alice.ID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestIntegration_DoseRecordStore(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		f := newFixtures(tx)
		ctx := context.Background()

		alice := f.user(t, "alice@test.com")
		bob := f.user(t, "bob@test.com")
		hepB := f.vaccine(t, "Hepatitis B", 3)
		bcg := f.vaccine(t, "BCG", 1)

		first := f.record(t, alice.ID, hepB.ID, 1, domain.DoseStatusApplied, date(2023, 1, 10))
		f.record(t, alice.ID, hepB.ID, 2, domain.DoseStatusApplied, date(2024, 2, 10))
		f.record(t, alice.ID, hepB.ID, 3, domain.DoseStatusPending, nil)
		f.record(t, alice.ID, bcg.ID, 1, domain.DoseStatusApplied, date(2024, 5, 1))

		assert.Equal(t, "Hepatitis B", first.VaccineName)
		assert.Equal(t, 3, first.VaccineDoseCount)

		dup := &domain.DoseRecord{UserID: alice.ID, VaccineID: hepB.ID, DoseNumber: 1, Status: domain.DoseStatusPending}
		err := failing(t, tx, func() error { return f.records.Create(ctx, dup) })
		assert.ErrorIs(t, err, store.ErrDuplicateDose)

		dangling := &domain.DoseRecord{UserID: alice.ID, VaccineID: 999999, DoseNumber: 1, Status: domain.DoseStatusPending}
		err = failing(t, tx, func() error { return f.records.Create(ctx, dangling) })
		assert.ErrorIs(t, err, store.ErrVaccineNotFound)

		all, err := f.records.ListForUser(ctx, alice.ID, store.DoseRecordFilter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "BCG", all[0].VaccineName, "most recent applied date first")
		assert.Nil(t, all[3].AppliedOn, "records without applied date last")

		year := 2024
		in2024, err := f.records.ListForUser(ctx, alice.ID, store.DoseRecordFilter{Year: &year})
		require.NoError(t, err)
		assert.Len(t, in2024, 2)

		month := 2
		feb2024, err := f.records.ListForUser(ctx, alice.ID, store.DoseRecordFilter{Year: &year, Month: &month})
		require.NoError(t, err)
		require.Len(t, feb2024, 1)
		assert.Equal(t, 2, feb2024[0].DoseNumber)

		_, err = f.records.GetForUser(ctx, first.ID, bob.ID)
		assert.ErrorIs(t, err, store.ErrDoseRecordNotFound)

		require.NoError(t, f.vaccines.Delete(ctx, hepB.ID))
		remaining, err := f.records.ListForUser(ctx, alice.ID, store.DoseRecordFilter{})
		require.NoError(t, err)
		assert.Len(t, remaining, 1, "deleting a vaccine cascades to its records")

		require.NoError(t, f.users.Delete(ctx, alice.ID))
		remaining, err = f.records.ListForUser(ctx, alice.ID, store.DoseRecordFilter{})
		require.NoError(t, err)
		assert.Empty(t, remaining, "deleting a user cascades to their records")
	})
}
