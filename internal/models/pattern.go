package models

// SlotPattern masks a recurring weekly window, used for teacher unavailability
// and preference rules. Minutes are counted from midnight; days use Mon=0.
type SlotPattern struct {
	DayOfWeek   int `json:"day_of_week"`
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// Covers reports whether the half-open interval [start, end) on the given day
// falls entirely inside the pattern window.
func (p SlotPattern) Covers(day, start, end int) bool {
	return p.DayOfWeek == day && start >= p.StartMinute && end <= p.EndMinute
}

// Overlaps reports whether the pattern intersects the half-open interval
// [start, end) on the given day.
func (p SlotPattern) Overlaps(day, start, end int) bool {
	return p.DayOfWeek == day && start < p.EndMinute && p.StartMinute < end
}
