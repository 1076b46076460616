package availability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want Clock
	}{
		{"00:00", 0},
		{"09:30", 9*60 + 30},
		{"9:30", 9*60 + 30},
		{"23:59", 23*60 + 59},
	}

	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseClockRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{"", "24:00", "12:60", "9:5", "nine", "09:30:00", "-1:00"} {
		_, err := ParseClock(in)
		require.Error(t, err, in)
	}
}

func TestClockStringNormalizesPadding(t *testing.T) {
	c, err := ParseClock("9:05")
	require.NoError(t, err)
	require.Equal(t, "09:05", c.String())
}

func TestClockAdd(t *testing.T) {
	c, err := ParseClock("09:45")
	require.NoError(t, err)
	require.Equal(t, "10:15", c.Add(SlotMinutes).String())
}
