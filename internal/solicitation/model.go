package solicitation

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	// StatusPending awaits the asynchronous trigger.
	StatusPending Status = "PENDING"
	// StatusProcessing means the allocation worker owns the solicitation.
	StatusProcessing Status = "PROCESSING"
	// StatusConfirmed is terminal: the requested (or accepted) slot is booked.
	StatusConfirmed Status = "CONFIRMED"
	// StatusSuggested holds a provisionally booked alternative awaiting the
	// patient's decision.
	StatusSuggested Status = "SUGGESTED"
	// StatusRejected is terminal: nothing available, or the patient declined.
	StatusRejected Status = "REJECTED"
)

// Solicitation is a patient's appointment request, tracked through its own
// lifecycle independent of any doctor's calendar. DoctorID is set once a
// doctor is matched; the suggested fields only when an alternative slot was
// offered. Suggested fields survive acceptance as a record of what was
// offered.
type Solicitation struct {
	ID            uuid.UUID
	PatientName   string
	PatientAge    int
	PatientPhone  string
	PatientEmail  string
	Specialty     string
	RequestedDate time.Time
	RequestedTime string
	Status        Status
	DoctorID      *uuid.UUID
	SuggestedDate *time.Time
	SuggestedTime *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
