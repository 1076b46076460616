package availability

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medbook/appointment-booking/internal/doctor"
)

func TestBuildDaySlotsExpandsWindow(t *testing.T) {
	slots := buildDaySlots([]doctor.AvailabilityTemplate{
		{DayOfWeek: doctor.Monday, StartTime: "09:00", EndTime: "11:00"},
	})

	require.Len(t, slots, 4)
	require.Equal(t, "09:00", slots[0].StartTime)
	require.Equal(t, "09:30", slots[0].EndTime)
	require.Equal(t, "10:30", slots[3].StartTime)
	require.Equal(t, "11:00", slots[3].EndTime)
	for _, s := range slots {
		require.True(t, s.Available)
		require.Nil(t, s.AppointmentID)
	}
}

func TestBuildDaySlotsDropsPartialTrailingSlot(t *testing.T) {
	slots := buildDaySlots([]doctor.AvailabilityTemplate{
		{DayOfWeek: doctor.Monday, StartTime: "09:00", EndTime: "09:40"},
	})

	require.Len(t, slots, 1)
	require.Equal(t, "09:00", slots[0].StartTime)
	require.Equal(t, "09:30", slots[0].EndTime)
}

func TestBuildDaySlotsSkipsBadWindows(t *testing.T) {
	slots := buildDaySlots([]doctor.AvailabilityTemplate{
		{DayOfWeek: doctor.Monday, StartTime: "11:00", EndTime: "09:00"},
		{DayOfWeek: doctor.Monday, StartTime: "bogus", EndTime: "10:00"},
		{DayOfWeek: doctor.Monday, StartTime: "09:00", EndTime: "09:15"},
	})

	require.Empty(t, slots)
}

func TestBuildDaySlotsKeepsTemplateOrder(t *testing.T) {
	slots := buildDaySlots([]doctor.AvailabilityTemplate{
		{DayOfWeek: doctor.Monday, StartTime: "14:00", EndTime: "15:00"},
		{DayOfWeek: doctor.Monday, StartTime: "09:00", EndTime: "10:00"},
	})

	require.Len(t, slots, 4)
	require.Equal(t, "14:00", slots[0].StartTime)
	require.Equal(t, "09:00", slots[2].StartTime)
}

func TestTemplatesCover(t *testing.T) {
	templates := []doctor.AvailabilityTemplate{
		{DayOfWeek: doctor.Monday, StartTime: "09:00", EndTime: "12:00"},
	}

	for start, want := range map[string]bool{
		"09:00": true,
		"11:30": true,
		"11:45": false, // slot would run past the window
		"12:00": false,
		"08:30": false,
	} {
		c, err := ParseClock(start)
		require.NoError(t, err)
		require.Equal(t, want, templatesCover(templates, c), start)
	}
}
