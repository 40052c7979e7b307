package units

import (
	"fmt"
	"time"
)

// LoadTimezone resolves the timezone used to decide where a training day
// starts. An empty name means the host's local zone.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", name, err)
	}
	return loc, nil
}

// DayBounds returns the half-open interval [start, end) of the calendar day
// containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// WeekStart returns midnight on the Monday of the week containing t in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	start, _ := DayBounds(t, loc)
	offset := (int(start.Weekday()) + 6) % 7
	return start.AddDate(0, 0, -offset)
}
