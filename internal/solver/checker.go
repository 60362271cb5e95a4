package solver

import (
	"github.com/univops/timetable-api/internal/models"
)

// Checker hosts the pure constraint predicates evaluated against a (partial)
// assignment set. All predicates treat slot intervals as half-open.
type Checker struct {
	idx *Index
}

// NewChecker builds a checker over the run's immutable index.
func NewChecker(idx *Index) *Checker {
	return &Checker{idx: idx}
}

// overlapping reports whether two assignments collide in time: same week,
// same day of week, intersecting intervals.
func overlapping(a, b *SessionAssignment) bool {
	if a.Week != b.Week {
		return false
	}
	return a.Slot.Overlaps(b.Slot)
}

// RoomConflict reports whether another assignment occupies a's room at an
// overlapping time.
func (c *Checker) RoomConflict(a *SessionAssignment, set []SessionAssignment) bool {
	for i := range set {
		other := &set[i]
		if other == a {
			continue
		}
		if other.Room.ID == a.Room.ID && overlapping(a, other) {
			return true
		}
	}
	return false
}

// TeacherConflict reports whether a's teacher is double-booked.
func (c *Checker) TeacherConflict(a *SessionAssignment, set []SessionAssignment) bool {
	for i := range set {
		other := &set[i]
		if other == a {
			continue
		}
		if other.Teacher.ID == a.Teacher.ID && overlapping(a, other) {
			return true
		}
	}
	return false
}

// CapacityOK reports whether the enrolled head count fits the room.
func (c *Checker) CapacityOK(a *SessionAssignment) bool {
	return a.Capacity() <= a.Room.Capacity
}

// TeacherAvailable reports whether the teacher may teach in a's slot at all.
func (c *Checker) TeacherAvailable(a *SessionAssignment) bool {
	if !a.Teacher.Available {
		return false
	}
	for _, pattern := range a.Teacher.UnavailablePatterns() {
		if pattern.Overlaps(a.Slot.DayOfWeek, a.Slot.StartMinute, a.Slot.EndMinute) {
			return false
		}
	}
	return true
}

// DailyLoadOK sums the teacher's hours on a's (week, day) including a itself.
func (c *Checker) DailyLoadOK(a *SessionAssignment, set []SessionAssignment) bool {
	if a.Teacher.MaxHoursPerDay <= 0 {
		return false
	}
	total := a.Slot.DurationHours()
	for i := range set {
		other := &set[i]
		if other == a {
			continue
		}
		if other.Teacher.ID == a.Teacher.ID && other.Week == a.Week && other.Slot.DayOfWeek == a.Slot.DayOfWeek {
			total += other.Slot.DurationHours()
		}
	}
	return total <= a.Teacher.MaxHoursPerDay+1e-9
}

// WeeklyLoadOK sums the teacher's hours in a's week including a itself.
func (c *Checker) WeeklyLoadOK(a *SessionAssignment, set []SessionAssignment) bool {
	if a.Teacher.MaxHoursPerWeek <= 0 {
		return false
	}
	total := a.Slot.DurationHours()
	for i := range set {
		other := &set[i]
		if other == a {
			continue
		}
		if other.Teacher.ID == a.Teacher.ID && other.Week == a.Week {
			total += other.Slot.DurationHours()
		}
	}
	return total <= a.Teacher.MaxHoursPerWeek+1e-9
}

// Admissible runs every predicate over the candidate against the partial set.
// It returns the failed kinds in the fixed reporting order: room before
// teacher before capacity before unavailability before daily before weekly.
func (c *Checker) Admissible(a *SessionAssignment, set []SessionAssignment) []models.ConflictKind {
	var failed []models.ConflictKind
	if c.RoomConflict(a, set) {
		failed = append(failed, models.ConflictRoom)
	}
	if c.TeacherConflict(a, set) {
		failed = append(failed, models.ConflictTeacher)
	}
	if !c.CapacityOK(a) {
		failed = append(failed, models.ConflictCapacity)
	}
	if !c.TeacherAvailable(a) {
		failed = append(failed, models.ConflictUnavailability)
	}
	if !c.DailyLoadOK(a, set) {
		failed = append(failed, models.ConflictDailyLoad)
	}
	if !c.WeeklyLoadOK(a, set) {
		failed = append(failed, models.ConflictWeeklyLoad)
	}
	return failed
}
