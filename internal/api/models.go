package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/imunetrack/imunetrack-api/internal/domain"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day encoded as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate wraps t, dropping the time of day.
func NewDate(t time.Time) Date {
	return Date{Time: domain.DateOf(t.UTC())}
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDate parses a "YYYY-MM-DD" string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, domain.NewValidationError("date", "must use the YYYY-MM-DD format", nil)
	}
	return t, nil
}

func datePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := NewDate(*t)
	return &d
}

func timePtr(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// RegisterRequest defines the payload for registration and user creation.
// Name and email format are checked by the domain after trimming.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest carries the user fields to change.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password" validate:"omitempty,max=72"`
}

// UserResponse is the public view of a user. The password hash never
// leaves the service.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// VaccineRequest defines the payload for creating a vaccine.
type VaccineRequest struct {
	Name      string `json:"name"       validate:"required"`
	DoseCount int    `json:"dose_count" validate:"required"`
}

// UpdateVaccineRequest carries the vaccine fields to change.
type UpdateVaccineRequest struct {
	Name      *string `json:"name"`
	DoseCount *int    `json:"dose_count"`
}

// VaccineResponse is the public view of a vaccine.
type VaccineResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DoseCount int       `json:"dose_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func vaccineToResponse(v *domain.Vaccine) VaccineResponse {
	return VaccineResponse{
		ID:        v.ID,
		Name:      v.Name,
		DoseCount: v.DoseCount,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

// DoseRecordRequest defines the payload for adding a dose to a history.
type DoseRecordRequest struct {
	VaccineID    int64  `json:"vaccine_id"   validate:"required,gt=0"`
	DoseNumber   int    `json:"dose_number"  validate:"required,gt=0"`
	Status       string `json:"status"`
	AppliedOn    *Date  `json:"applied_on"`
	ExpectedOn   *Date  `json:"expected_on"`
	Lot          string `json:"lot"          validate:"max=50"`
	Site         string `json:"site"         validate:"max=200"`
	Professional string `json:"professional" validate:"max=100"`
	Notes        string `json:"notes"`
}

// UpdateDoseRecordRequest carries the record fields to change.
type UpdateDoseRecordRequest struct {
	DoseNumber   *int    `json:"dose_number"`
	Status       *string `json:"status"`
	AppliedOn    *Date   `json:"applied_on"`
	ExpectedOn   *Date   `json:"expected_on"`
	Lot          *string `json:"lot"          validate:"omitempty,max=50"`
	Site         *string `json:"site"         validate:"omitempty,max=200"`
	Professional *string `json:"professional" validate:"omitempty,max=100"`
	Notes        *string `json:"notes"`
}

// ApplyDoseRequest records the administration of a dose.
type ApplyDoseRequest struct {
	AppliedOn    *Date   `json:"applied_on"   validate:"required"`
	Lot          *string `json:"lot"          validate:"omitempty,max=50"`
	Site         *string `json:"site"         validate:"omitempty,max=200"`
	Professional *string `json:"professional" validate:"omitempty,max=100"`
}

// DoseRecordResponse is the public view of a history entry.
type DoseRecordResponse struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	VaccineID        int64     `json:"vaccine_id"`
	VaccineName      string    `json:"vaccine_name"`
	VaccineDoseCount int       `json:"vaccine_dose_count"`
	DoseNumber       int       `json:"dose_number"`
	Status           string    `json:"status"`
	AppliedOn        *Date     `json:"applied_on,omitempty"`
	ExpectedOn       *Date     `json:"expected_on,omitempty"`
	Lot              string    `json:"lot,omitempty"`
	Site             string    `json:"site,omitempty"`
	Professional     string    `json:"professional,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func doseRecordToResponse(r *domain.DoseRecord) DoseRecordResponse {
	return DoseRecordResponse{
		ID:               r.ID,
		UserID:           r.UserID,
		VaccineID:        r.VaccineID,
		VaccineName:      r.VaccineName,
		VaccineDoseCount: r.VaccineDoseCount,
		DoseNumber:       r.DoseNumber,
		Status:           string(r.Status),
		AppliedOn:        datePtr(r.AppliedOn),
		ExpectedOn:       datePtr(r.ExpectedOn),
		Lot:              r.Lot,
		Site:             r.Site,
		Professional:     r.Professional,
		Notes:            r.Notes,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// UpcomingDoseResponse is a pending dose with its scheduled date.
type UpcomingDoseResponse struct {
	VaccineName string `json:"vaccine_name"`
	DoseNumber  int    `json:"dose_number"`
	ExpectedOn  Date   `json:"expected_on"`
}

// StatisticsResponse summarizes a user's history.
type StatisticsResponse struct {
	TotalDoses         int                    `json:"total_doses"`
	AppliedDoses       int                    `json:"applied_doses"`
	PendingDoses       int                    `json:"pending_doses"`
	LateDoses          int                    `json:"late_doses"`
	CancelledDoses     int                    `json:"cancelled_doses"`
	CompleteVaccines   int                    `json:"complete_vaccines"`
	IncompleteVaccines int                    `json:"incomplete_vaccines"`
	UpcomingDoses      []UpcomingDoseResponse `json:"upcoming_doses"`
}

func statisticsToResponse(s *domain.DoseStatistics) StatisticsResponse {
	upcoming := make([]UpcomingDoseResponse, 0, len(s.UpcomingDoses))
	for _, u := range s.UpcomingDoses {
		upcoming = append(upcoming, UpcomingDoseResponse{
			VaccineName: u.VaccineName,
			DoseNumber:  u.DoseNumber,
			ExpectedOn:  NewDate(u.ExpectedOn),
		})
	}
	return StatisticsResponse{
		TotalDoses:         s.TotalDoses,
		AppliedDoses:       s.AppliedDoses,
		PendingDoses:       s.PendingDoses,
		LateDoses:          s.LateDoses,
		CancelledDoses:     s.CancelledDoses,
		CompleteVaccines:   s.CompleteVaccines,
		IncompleteVaccines: s.IncompleteVaccines,
		UpcomingDoses:      upcoming,
	}
}
