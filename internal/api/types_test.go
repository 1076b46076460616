package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medbook/appointment-booking/internal/solicitation"
)

func validCreateDoctor() CreateDoctorRequest {
	return CreateDoctorRequest{
		Name:      "Dr. Who",
		Specialty: "Cardiology",
		Schedule: []AvailabilityTemplateDTO{
			{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "12:00"},
		},
	}
}

func TestCreateDoctorRequestValidate(t *testing.T) {
	require.NoError(t, validCreateDoctor().validate())

	r := validCreateDoctor()
	r.Name = ""
	require.Error(t, r.validate())

	r = validCreateDoctor()
	r.Schedule = nil
	require.Error(t, r.validate())

	r = validCreateDoctor()
	r.Schedule[0].DayOfWeek = "SOMEDAY"
	require.Error(t, r.validate())

	r = validCreateDoctor()
	r.Schedule[0].StartTime = "25:00"
	require.Error(t, r.validate())
}

func validCreateSolicitation() CreateSolicitationRequest {
	return CreateSolicitationRequest{
		PatientName:   "Alice Brown",
		PatientAge:    34,
		PatientPhone:  "+1-555-0100",
		PatientEmail:  "alice@example.com",
		Specialty:     "Cardiology",
		RequestedDate: "2026-03-02",
		RequestedTime: "9:30",
	}
}

func TestCreateSolicitationRequestValidate(t *testing.T) {
	date, err := validCreateSolicitation().validate()
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), date)

	r := validCreateSolicitation()
	r.RequestedTime = "930"
	_, err = r.validate()
	require.Error(t, err)

	r = validCreateSolicitation()
	r.RequestedDate = "02-03-2026"
	_, err = r.validate()
	require.Error(t, err)

	r = validCreateSolicitation()
	r.PatientAge = -1
	_, err = r.validate()
	require.Error(t, err)

	r = validCreateSolicitation()
	r.PatientEmail = ""
	_, err = r.validate()
	require.Error(t, err)
}

func TestToSolicitationResponseFormatsDates(t *testing.T) {
	suggestedDate := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	suggestedTime := "10:30"
	s := &solicitation.Solicitation{
		RequestedDate: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		RequestedTime: "09:00",
		Status:        solicitation.StatusSuggested,
		SuggestedDate: &suggestedDate,
		SuggestedTime: &suggestedTime,
		CreatedAt:     time.UnixMilli(1767225600000).UTC(),
	}

	resp := toSolicitationResponse(s)
	require.Equal(t, "2026-03-02", resp.RequestedDate)
	require.Equal(t, "2026-03-04", *resp.SuggestedDate)
	require.Equal(t, "10:30", *resp.SuggestedTime)
	require.Equal(t, "SUGGESTED", resp.Status)
	require.Equal(t, int64(1767225600000), resp.CreatedAt)
}
