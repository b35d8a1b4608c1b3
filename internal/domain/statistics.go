package domain

import (
	"sort"
	"time"
)

// MaxUpcomingDoses caps the upcoming-doses list in DoseStatistics.
const MaxUpcomingDoses = 5

// UpcomingDose is a pending dose with a scheduled date.
type UpcomingDose struct {
	VaccineName string    `json:"vaccine_name"`
	DoseNumber  int       `json:"dose_number"`
	ExpectedOn  time.Time `json:"expected_on"`
}

// DoseStatistics summarizes a user's vaccination history.
type DoseStatistics struct {
	TotalDoses         int            `json:"total_doses"`
	AppliedDoses       int            `json:"applied_doses"`
	PendingDoses       int            `json:"pending_doses"`
	LateDoses          int            `json:"late_doses"`
	CancelledDoses     int            `json:"cancelled_doses"`
	CompleteVaccines   int            `json:"complete_vaccines"`
	IncompleteVaccines int            `json:"incomplete_vaccines"`
	UpcomingDoses      []UpcomingDose `json:"upcoming_doses"`
}

// ComputeStatistics aggregates records belonging to a single user. Records
// must carry VaccineName and VaccineDoseCount. Only vaccines with at least one
// record are considered for completion; a vaccine is complete when the number
// of applied records reaches its dose count.
func ComputeStatistics(records []*DoseRecord) *DoseStatistics {
	stats := &DoseStatistics{
		TotalDoses:    len(records),
		UpcomingDoses: []UpcomingDose{},
	}

	type progress struct {
		required int
		applied  int
	}
	byVaccine := make(map[int64]*progress)
	var upcoming []*DoseRecord

	for _, r := range records {
		switch r.Status {
		case DoseStatusApplied:
			stats.AppliedDoses++
		case DoseStatusPending:
			stats.PendingDoses++
		case DoseStatusLate:
			stats.LateDoses++
		case DoseStatusCancelled:
			stats.CancelledDoses++
		}

		p, ok := byVaccine[r.VaccineID]
		if !ok {
			p = &progress{required: r.VaccineDoseCount}
			byVaccine[r.VaccineID] = p
		}
		if r.Status == DoseStatusApplied {
			p.applied++
		}

		if r.Status == DoseStatusPending && r.ExpectedOn != nil {
			upcoming = append(upcoming, r)
		}
	}

	for _, p := range byVaccine {
		if p.applied >= p.required {
			stats.CompleteVaccines++
		} else {
			stats.IncompleteVaccines++
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].ExpectedOn.Before(*upcoming[j].ExpectedOn)
	})
	if len(upcoming) > MaxUpcomingDoses {
		upcoming = upcoming[:MaxUpcomingDoses]
	}
	for _, r := range upcoming {
		stats.UpcomingDoses = append(stats.UpcomingDoses, UpcomingDose{
			VaccineName: r.VaccineName,
			DoseNumber:  r.DoseNumber,
			ExpectedOn:  *r.ExpectedOn,
		})
	}

	return stats
}
