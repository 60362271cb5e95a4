package solver

import (
	"fmt"
	"time"

	"github.com/univops/timetable-api/internal/models"
)

// Status reports the outcome of a solver run.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusTimeout    Status = "timeout"
	StatusCancelled  Status = "cancelled"
)

// Horizon is the closed date range sessions are planned over, divided into
// whole weeks indexed from 0.
type Horizon struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days covered, inclusive.
func (h Horizon) Days() int {
	return int(h.End.Sub(h.Start).Hours()/24) + 1
}

// Weeks returns ceil(days/7), the number of week indexes available.
func (h Horizon) Weeks() int {
	days := h.Days()
	if days <= 0 {
		return 0
	}
	return (days + 6) / 7
}

// Contains reports whether the date falls inside the horizon.
func (h Horizon) Contains(date time.Time) bool {
	return !date.Before(h.Start) && !date.After(h.End)
}

// AssignmentUnit is the granularity the solver places: n sessions of a subject
// taught by a teacher for a set of programs.
type AssignmentUnit struct {
	Subject          *models.Subject
	Teacher          *models.Teacher
	Programs         []*models.Program
	SessionsRequired int
	HoursPerSession  float64
}

// Capacity sums the enrolled head counts of the unit's programs.
func (u *AssignmentUnit) Capacity() int {
	total := 0
	for _, p := range u.Programs {
		total += p.EnrolledCount
	}
	return total
}

// SessionAssignment is one placed session: the solver's output unit.
type SessionAssignment struct {
	Subject  *models.Subject
	Teacher  *models.Teacher
	Room     *models.Room
	Slot     *models.TimeSlot
	Week     int
	Programs []*models.Program
	Date     time.Time
}

// Capacity sums the enrolled head counts of the assignment's programs.
func (a *SessionAssignment) Capacity() int {
	total := 0
	for _, p := range a.Programs {
		total += p.EnrolledCount
	}
	return total
}

// Key identifies the placement for set comparisons in idempotence checks.
func (a *SessionAssignment) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d", a.Subject.ID, a.Teacher.ID, a.Room.ID, a.Slot.ID, a.Week)
}

// Diagnostic codes surfaced alongside a result without aborting the run.
const (
	DiagNoQualifiedTeacher = "NO_QUALIFIED_TEACHER"
	DiagNoSuitableRoom     = "NO_SUITABLE_ROOM"
	DiagTeacherUnavailable = "TEACHER_UNAVAIL"
	DiagUnmetUnit          = "UNMET_UNIT"
)

// Diagnostic reports a per-subject planning failure; the run continues.
type Diagnostic struct {
	Code      string `json:"code"`
	SubjectID string `json:"subject_id,omitempty"`
	ProgramID string `json:"program_id,omitempty"`
	TeacherID string `json:"teacher_id,omitempty"`
	Message   string `json:"message"`
}

// Result is a solver outcome: the placed assignments plus diagnostics for
// anything that could not be placed.
type Result struct {
	Status      Status
	Assignments []SessionAssignment
	Diagnostics []Diagnostic
	Objective   int64
}
