package models

import (
	"fmt"
	"time"
)

// TimeSlot is a recurring weekly slot, unique on (day, start, end).
// Days use Mon=0..Sun=6; start and end are minutes from midnight with start < end.
type TimeSlot struct {
	ID          string    `db:"id" json:"id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartMinute int       `db:"start_minute" json:"start_minute"`
	EndMinute   int       `db:"end_minute" json:"end_minute"`
	Priority    int       `db:"priority" json:"priority"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DurationHours returns the slot length in hours.
func (ts *TimeSlot) DurationHours() float64 {
	return float64(ts.EndMinute-ts.StartMinute) / 60.0
}

// Overlaps reports whether two slots intersect on the same day, half-open.
func (ts *TimeSlot) Overlaps(other *TimeSlot) bool {
	if ts.DayOfWeek != other.DayOfWeek {
		return false
	}
	return ts.StartMinute < other.EndMinute && other.StartMinute < ts.EndMinute
}

// Label renders the slot as "Mon 08:00-09:30" for diagnostics.
func (ts *TimeSlot) Label() string {
	return fmt.Sprintf("%s %s-%s", dayNames[ts.DayOfWeek%7], MinuteClock(ts.StartMinute), MinuteClock(ts.EndMinute))
}

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// MinuteClock formats minutes-from-midnight as HH:MM.
func MinuteClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseClock converts an HH:MM string into minutes from midnight.
func ParseClock(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", clock)
	}
	return h*60 + m, nil
}
