package availability

import (
	"github.com/medbook/appointment-booking/internal/doctor"
)

// buildDaySlots expands weekly schedule windows into contiguous 30-minute
// slots, in template order then chronological order within each template.
// Windows shorter than one slot, inverted windows, and windows with malformed
// times all contribute nothing.
func buildDaySlots(templates []doctor.AvailabilityTemplate) []TimeSlot {
	var slots []TimeSlot

	for _, tpl := range templates {
		start, err := ParseClock(tpl.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(tpl.EndTime)
		if err != nil {
			continue
		}

		for cur := start; cur.Add(SlotMinutes) <= end; cur = cur.Add(SlotMinutes) {
			slots = append(slots, TimeSlot{
				StartTime: cur.String(),
				EndTime:   cur.Add(SlotMinutes).String(),
				Available: true,
			})
		}
	}

	return slots
}

// templatesCover reports whether [start, start+30m) fits entirely inside one
// of the windows. Used as the availability fallback when no generated record
// exists; it looks only at the schedule, not at bookings.
func templatesCover(templates []doctor.AvailabilityTemplate, start Clock) bool {
	for _, tpl := range templates {
		tplStart, err := ParseClock(tpl.StartTime)
		if err != nil {
			continue
		}
		tplEnd, err := ParseClock(tpl.EndTime)
		if err != nil {
			continue
		}

		if start >= tplStart && start.Add(SlotMinutes) <= tplEnd {
			return true
		}
	}
	return false
}
