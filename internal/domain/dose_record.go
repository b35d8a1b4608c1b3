package domain

import (
	"time"
)

// DoseStatus represents where a dose stands in a user's schedule.
type DoseStatus string

// Possible dose status values. Any status may be overwritten by any other
// through a direct update; PENDING is only the initial default.
const (
	DoseStatusPending   DoseStatus = "pending"
	DoseStatusApplied   DoseStatus = "applied"
	DoseStatusLate      DoseStatus = "late"
	DoseStatusCancelled DoseStatus = "cancelled"
)

// DoseStatuses lists every valid status in display order.
var DoseStatuses = []DoseStatus{
	DoseStatusPending,
	DoseStatusApplied,
	DoseStatusLate,
	DoseStatusCancelled,
}

// IsValid reports whether s is a known status.
func (s DoseStatus) IsValid() bool {
	switch s {
	case DoseStatusPending, DoseStatusApplied, DoseStatusLate, DoseStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseDoseStatus converts a wire value into a DoseStatus.
func ParseDoseStatus(s string) (DoseStatus, error) {
	status := DoseStatus(s)
	if !status.IsValid() {
		return "", NewValidationError("status", "must be one of pending, applied, late, cancelled", ErrInvalidDoseStatus)
	}
	return status, nil
}

// DoseRecord is one row of a user's vaccination history.
//
// VaccineName and VaccineDoseCount are read-only projections of the linked
// vaccine, filled in by stores on reads.
type DoseRecord struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	VaccineID    int64      `json:"vaccine_id"`
	DoseNumber   int        `json:"dose_number"`
	Status       DoseStatus `json:"status"`
	AppliedOn    *time.Time `json:"applied_on,omitempty"`
	ExpectedOn   *time.Time `json:"expected_on,omitempty"`
	Lot          string     `json:"lot,omitempty"`
	Site         string     `json:"site,omitempty"`
	Professional string     `json:"professional,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	VaccineName      string `json:"vaccine_name,omitempty"`
	VaccineDoseCount int    `json:"vaccine_dose_count,omitempty"`
}

// Validate checks the fields a record can carry on its own. Cross-entity
// rules (dose number against the vaccine, duplicates) belong to the service.
func (r *DoseRecord) Validate(now time.Time) error {
	if err := ValidateID("user_id", r.UserID); err != nil {
		return err
	}
	if err := ValidateID("vaccine_id", r.VaccineID); err != nil {
		return err
	}
	if r.DoseNumber < 1 {
		return NewValidationError("dose_number", "must be a positive integer", nil)
	}
	if !r.Status.IsValid() {
		return NewValidationError("status", "must be one of pending, applied, late, cancelled", ErrInvalidDoseStatus)
	}
	if r.AppliedOn != nil {
		if err := ValidateNotFuture("applied_on", *r.AppliedOn, now); err != nil {
			return err
		}
	}
	if err := ValidateOptionalText("lot", r.Lot, MaxLotLength); err != nil {
		return err
	}
	if err := ValidateOptionalText("site", r.Site, MaxSiteLength); err != nil {
		return err
	}
	return ValidateOptionalText("professional", r.Professional, MaxProfessionalLength)
}

// Touch refreshes the modification timestamp.
func (r *DoseRecord) Touch(now time.Time) {
	r.UpdatedAt = now.UTC()
}

// ValidateStatus checks a raw status value.
func ValidateStatus(s string) error {
	_, err := ParseDoseStatus(s)
	return err
}
