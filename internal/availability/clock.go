package availability

import (
	"fmt"
	"regexp"
	"strconv"
)

// SlotMinutes is the fixed appointment length. Every generated slot covers
// exactly this many minutes.
const SlotMinutes = 30

// clockPattern accepts 24-hour "HH:mm" with an optional leading zero on the
// hour, e.g. "9:30" and "09:30" both parse.
var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// Clock is a time of day in minutes since midnight. Clock values exist only
// inside slot arithmetic; everything crossing a boundary is an "HH:mm" string.
type Clock int

func ParseClock(s string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid time %q, want HH:mm", s)
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return Clock(hours*60 + minutes), nil
}

// String renders the canonical zero-padded form, so parse-then-format
// normalizes inputs like "9:30" to "09:30".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}
