package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func record(vaccineID int64, name string, doses, number int, status DoseStatus) *DoseRecord {
	return &DoseRecord{
		UserID:           1,
		VaccineID:        vaccineID,
		VaccineName:      name,
		VaccineDoseCount: doses,
		DoseNumber:       number,
		Status:           status,
	}
}

func TestComputeStatistics_Empty(t *testing.T) {
	stats := ComputeStatistics(nil)

	assert.Equal(t, 0, stats.TotalDoses)
	assert.Equal(t, 0, stats.AppliedDoses)
	assert.Equal(t, 0, stats.PendingDoses)
	assert.Equal(t, 0, stats.LateDoses)
	assert.Equal(t, 0, stats.CancelledDoses)
	assert.Equal(t, 0, stats.CompleteVaccines)
	assert.Equal(t, 0, stats.IncompleteVaccines)
	require.NotNil(t, stats.UpcomingDoses)
	assert.Empty(t, stats.UpcomingDoses)
}

func TestComputeStatistics_Completion(t *testing.T) {
	t.Run("three of three applied is complete", func(t *testing.T) {
		stats := ComputeStatistics([]*DoseRecord{
			record(1, "Hepatitis B", 3, 1, DoseStatusApplied),
			record(1, "Hepatitis B", 3, 2, DoseStatusApplied),
			record(1, "Hepatitis B", 3, 3, DoseStatusApplied),
		})
		assert.Equal(t, 1, stats.CompleteVaccines)
		assert.Equal(t, 0, stats.IncompleteVaccines)
		assert.Equal(t, 3, stats.AppliedDoses)
	})

	t.Run("two of three applied is incomplete", func(t *testing.T) {
		stats := ComputeStatistics([]*DoseRecord{
			record(1, "Hepatitis B", 3, 1, DoseStatusApplied),
			record(1, "Hepatitis B", 3, 2, DoseStatusApplied),
			record(1, "Hepatitis B", 3, 3, DoseStatusPending),
		})
		assert.Equal(t, 0, stats.CompleteVaccines)
		assert.Equal(t, 1, stats.IncompleteVaccines)
	})

	t.Run("only vaccines with records count", func(t *testing.T) {
		stats := ComputeStatistics([]*DoseRecord{
			record(1, "BCG", 1, 1, DoseStatusApplied),
			record(2, "Polio", 4, 1, DoseStatusCancelled),
		})
		assert.Equal(t, 1, stats.CompleteVaccines)
		assert.Equal(t, 1, stats.IncompleteVaccines)
		assert.Equal(t, 1, stats.CancelledDoses)
		assert.Equal(t, 2, stats.TotalDoses)
	})
}

func TestComputeStatistics_UpcomingDoses(t *testing.T) {
	var records []*DoseRecord
	for i := 7; i >= 1; i-- {
		r := record(int64(i), "V", 10, 1, DoseStatusPending)
		r.VaccineName = time.Month(i).String()
		r.ExpectedOn = day(2025, time.Month(i), 1)
		records = append(records, r)
	}

	noDate := record(20, "No date", 2, 1, DoseStatusPending)
	late := record(21, "Late", 2, 1, DoseStatusLate)
	late.ExpectedOn = day(2020, 1, 1)
	records = append(records, noDate, late)

	stats := ComputeStatistics(records)

	require.Len(t, stats.UpcomingDoses, MaxUpcomingDoses)
	for i, u := range stats.UpcomingDoses {
		assert.Equal(t, time.Month(i+1).String(), u.VaccineName)
		assert.Equal(t, *day(2025, time.Month(i+1), 1), u.ExpectedOn)
		assert.Equal(t, 1, u.DoseNumber)
	}
	assert.Equal(t, 8, stats.PendingDoses)
	assert.Equal(t, 1, stats.LateDoses)
}
