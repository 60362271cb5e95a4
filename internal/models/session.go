package models

import (
	"time"

	"github.com/lib/pq"
)

// Session is a materialised scheduled session: a (subject, teacher, room, slot)
// binding recurring weekly within [start_date, end_date].
type Session struct {
	ID         string         `db:"id" json:"id"`
	SubjectID  string         `db:"subject_id" json:"subject_id"`
	TeacherID  string         `db:"teacher_id" json:"teacher_id"`
	RoomID     string         `db:"room_id" json:"room_id"`
	TimeSlotID string         `db:"time_slot_id" json:"time_slot_id"`
	ProgramIDs pq.StringArray `db:"program_ids" json:"program_ids"`
	StartDate  time.Time      `db:"start_date" json:"start_date"`
	EndDate    time.Time      `db:"end_date" json:"end_date"`
	Active     bool           `db:"active" json:"active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// SessionFilter captures filtering options for listing sessions.
type SessionFilter struct {
	ProgramID string
	TeacherID string
	RoomID    string
	From      *time.Time
	To        *time.Time
	Active    *bool
}

// DateRangesOverlap reports whether two sessions' recurrence windows intersect.
func (s *Session) DateRangesOverlap(other *Session) bool {
	return !s.StartDate.After(other.EndDate) && !other.StartDate.After(s.EndDate)
}
