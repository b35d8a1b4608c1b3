package domain

import (
	"strings"
	"time"
)

// Vaccine is a catalog entry describing how many doses complete a schedule.
type Vaccine struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DoseCount int       `json:"dose_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewVaccine validates and builds a Vaccine with a trimmed name.
func NewVaccine(name string, doseCount int) (*Vaccine, error) {
	v := &Vaccine{
		Name:      strings.TrimSpace(name),
		DoseCount: doseCount,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	return v, nil
}

// Validate checks the vaccine's name and dose count.
func (v *Vaccine) Validate() error {
	if err := ValidateName("name", v.Name); err != nil {
		return err
	}
	return ValidateDoseCount(v.DoseCount)
}
