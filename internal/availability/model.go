package availability

import (
	"time"

	"github.com/google/uuid"
)

// DateFormat is the wire/storage layout for calendar dates. Dates carry no
// timezone; they are naive local days.
const DateFormat = "2006-01-02"

// TimeSlot is one bookable 30-minute unit of a doctor's day. Times are
// zero-padded "HH:mm" strings so the stored form matches the wire form.
type TimeSlot struct {
	StartTime     string     `json:"startTime"`
	EndTime       string     `json:"endTime"`
	Available     bool       `json:"available"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
}

// DoctorAvailability holds every slot of one doctor on one date. The
// (doctor, date) pair is unique. Version backs the conditional update that
// keeps concurrent bookings from overwriting each other.
type DoctorAvailability struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	TimeSlots []TimeSlot
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailableSlots returns the slots still open for booking, in stored order.
func (a *DoctorAvailability) AvailableSlots() []TimeSlot {
	var open []TimeSlot
	for _, s := range a.TimeSlots {
		if s.Available {
			open = append(open, s)
		}
	}
	return open
}

// SlotRef points at a concrete bookable slot found by the next-slot search.
type SlotRef struct {
	DoctorID  uuid.UUID
	Date      time.Time
	StartTime string
}
