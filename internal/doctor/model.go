package doctor

import (
	"time"

	"github.com/google/uuid"
)

type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

var weekdayNames = map[time.Weekday]DayOfWeek{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// DayOfWeekFor maps a calendar date's weekday onto the schedule's day names.
func DayOfWeekFor(date time.Time) DayOfWeek {
	return weekdayNames[date.Weekday()]
}

// AvailabilityTemplate is one recurring weekly window in a doctor's schedule.
// Times are naive local "HH:mm" strings; the input DTO layer validates the
// format but not that start precedes end. An inverted window generates no
// slots.
type AvailabilityTemplate struct {
	DayOfWeek DayOfWeek `json:"dayOfWeek"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty string
	Schedule  []AvailabilityTemplate
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplatesFor returns the schedule windows matching a day of week, in
// schedule order.
func (d *Doctor) TemplatesFor(day DayOfWeek) []AvailabilityTemplate {
	var out []AvailabilityTemplate
	for _, t := range d.Schedule {
		if t.DayOfWeek == day {
			out = append(out, t)
		}
	}
	return out
}
