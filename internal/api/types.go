package api

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/medbook/appointment-booking/internal/availability"
	"github.com/medbook/appointment-booking/internal/doctor"
	"github.com/medbook/appointment-booking/internal/solicitation"
)

// clockPattern validates "HH:mm" request fields before they reach the core.
var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

var validDays = map[doctor.DayOfWeek]bool{
	doctor.Monday: true, doctor.Tuesday: true, doctor.Wednesday: true,
	doctor.Thursday: true, doctor.Friday: true, doctor.Saturday: true,
	doctor.Sunday: true,
}

type AvailabilityTemplateDTO struct {
	DayOfWeek string `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (t AvailabilityTemplateDTO) validate() error {
	if !validDays[doctor.DayOfWeek(t.DayOfWeek)] {
		return fmt.Errorf("invalid dayOfWeek %q", t.DayOfWeek)
	}
	if !clockPattern.MatchString(t.StartTime) {
		return fmt.Errorf("startTime must be HH:mm, got %q", t.StartTime)
	}
	if !clockPattern.MatchString(t.EndTime) {
		return fmt.Errorf("endTime must be HH:mm, got %q", t.EndTime)
	}
	return nil
}

type CreateDoctorRequest struct {
	Name      string                    `json:"name"`
	Specialty string                    `json:"specialty"`
	Schedule  []AvailabilityTemplateDTO `json:"availabilitySchedule"`
}

func (r CreateDoctorRequest) validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Specialty == "" {
		return fmt.Errorf("specialty is required")
	}
	if len(r.Schedule) == 0 {
		return fmt.Errorf("availabilitySchedule is required")
	}
	for _, t := range r.Schedule {
		if err := t.validate(); err != nil {
			return err
		}
	}
	return nil
}

type UpdateDoctorRequest struct {
	Name      *string                    `json:"name,omitempty"`
	Specialty *string                    `json:"specialty,omitempty"`
	Schedule  *[]AvailabilityTemplateDTO `json:"availabilitySchedule,omitempty"`
}

func (r UpdateDoctorRequest) validate() error {
	if r.Schedule == nil {
		return nil
	}
	for _, t := range *r.Schedule {
		if err := t.validate(); err != nil {
			return err
		}
	}
	return nil
}

type DoctorResponse struct {
	ID        uuid.UUID                 `json:"id"`
	Name      string                    `json:"name"`
	Specialty string                    `json:"specialty"`
	Schedule  []AvailabilityTemplateDTO `json:"availabilitySchedule"`
	CreatedAt int64                     `json:"createdAt"`
	UpdatedAt int64                     `json:"updatedAt"`
}

func toDoctorResponse(d *doctor.Doctor) DoctorResponse {
	schedule := make([]AvailabilityTemplateDTO, 0, len(d.Schedule))
	for _, t := range d.Schedule {
		schedule = append(schedule, AvailabilityTemplateDTO{
			DayOfWeek: string(t.DayOfWeek),
			StartTime: t.StartTime,
			EndTime:   t.EndTime,
		})
	}

	return DoctorResponse{
		ID:        d.ID,
		Name:      d.Name,
		Specialty: d.Specialty,
		Schedule:  schedule,
		CreatedAt: d.CreatedAt.UnixMilli(),
		UpdatedAt: d.UpdatedAt.UnixMilli(),
	}
}

type TimeSlotDTO struct {
	StartTime     string     `json:"startTime"`
	EndTime       string     `json:"endTime"`
	Available     bool       `json:"available"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
}

type AvailabilityResponse struct {
	ID        uuid.UUID     `json:"id"`
	DoctorID  uuid.UUID     `json:"doctorId"`
	Date      string        `json:"date"`
	TimeSlots []TimeSlotDTO `json:"timeSlots"`
	Version   int           `json:"version"`
	CreatedAt int64         `json:"createdAt"`
	UpdatedAt int64         `json:"updatedAt"`
}

func toAvailabilityResponse(a *availability.DoctorAvailability) AvailabilityResponse {
	slots := make([]TimeSlotDTO, 0, len(a.TimeSlots))
	for _, s := range a.TimeSlots {
		slots = append(slots, TimeSlotDTO{
			StartTime:     s.StartTime,
			EndTime:       s.EndTime,
			Available:     s.Available,
			AppointmentID: s.AppointmentID,
		})
	}

	return AvailabilityResponse{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		Date:      a.Date.Format(availability.DateFormat),
		TimeSlots: slots,
		Version:   a.Version,
		CreatedAt: a.CreatedAt.UnixMilli(),
		UpdatedAt: a.UpdatedAt.UnixMilli(),
	}
}

type NextSlotResponse struct {
	DoctorID  uuid.UUID `json:"doctorId"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
}

type CreateSolicitationRequest struct {
	PatientName   string `json:"patientName"`
	PatientAge    int    `json:"patientAge"`
	PatientPhone  string `json:"patientPhone"`
	PatientEmail  string `json:"patientEmail"`
	Specialty     string `json:"specialty"`
	RequestedDate string `json:"requestedDate"`
	RequestedTime string `json:"requestedTime"`
}

func (r CreateSolicitationRequest) validate() (time.Time, error) {
	if r.PatientName == "" {
		return time.Time{}, fmt.Errorf("patientName is required")
	}
	if r.PatientAge < 0 {
		return time.Time{}, fmt.Errorf("patientAge must not be negative")
	}
	if r.PatientPhone == "" {
		return time.Time{}, fmt.Errorf("patientPhone is required")
	}
	if r.PatientEmail == "" {
		return time.Time{}, fmt.Errorf("patientEmail is required")
	}
	if r.Specialty == "" {
		return time.Time{}, fmt.Errorf("specialty is required")
	}
	if !clockPattern.MatchString(r.RequestedTime) {
		return time.Time{}, fmt.Errorf("requestedTime must be HH:mm, got %q", r.RequestedTime)
	}

	date, err := time.Parse(availability.DateFormat, r.RequestedDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("requestedDate must be YYYY-MM-DD, got %q", r.RequestedDate)
	}

	return date, nil
}

type ConfirmSuggestionRequest struct {
	Accept *bool `json:"accept"`
}

type SolicitationResponse struct {
	ID            uuid.UUID  `json:"id"`
	PatientName   string     `json:"patientName"`
	PatientAge    int        `json:"patientAge"`
	PatientPhone  string     `json:"patientPhone"`
	PatientEmail  string     `json:"patientEmail"`
	Specialty     string     `json:"specialty"`
	RequestedDate string     `json:"requestedDate"`
	RequestedTime string     `json:"requestedTime"`
	Status        string     `json:"status"`
	DoctorID      *uuid.UUID `json:"doctorId,omitempty"`
	SuggestedDate *string    `json:"suggestedDate,omitempty"`
	SuggestedTime *string    `json:"suggestedTime,omitempty"`
	CreatedAt     int64      `json:"createdAt"`
	UpdatedAt     int64      `json:"updatedAt"`
}

func toSolicitationResponse(s *solicitation.Solicitation) SolicitationResponse {
	resp := SolicitationResponse{
		ID:            s.ID,
		PatientName:   s.PatientName,
		PatientAge:    s.PatientAge,
		PatientPhone:  s.PatientPhone,
		PatientEmail:  s.PatientEmail,
		Specialty:     s.Specialty,
		RequestedDate: s.RequestedDate.Format(availability.DateFormat),
		RequestedTime: s.RequestedTime,
		Status:        string(s.Status),
		DoctorID:      s.DoctorID,
		SuggestedTime: s.SuggestedTime,
		CreatedAt:     s.CreatedAt.UnixMilli(),
		UpdatedAt:     s.UpdatedAt.UnixMilli(),
	}

	if s.SuggestedDate != nil {
		d := s.SuggestedDate.Format(availability.DateFormat)
		resp.SuggestedDate = &d
	}

	return resp
}

type PagedSolicitationsResponse struct {
	Items  []SolicitationResponse `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}
