package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Teacher represents an instructor record with workload and availability rules.
type Teacher struct {
	ID              string         `db:"id" json:"id"`
	FullName        string         `db:"full_name" json:"full_name"`
	Email           string         `db:"email" json:"email"`
	MaxHoursPerWeek float64        `db:"max_hours_per_week" json:"max_hours_per_week"`
	MaxHoursPerDay  float64        `db:"max_hours_per_day" json:"max_hours_per_day"`
	Available       bool           `db:"available" json:"available"`
	Unavailable     types.JSONText `db:"unavailable" json:"unavailable"`
	Preferred       types.JSONText `db:"preferred" json:"preferred"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// UnavailablePatterns decodes the stored unavailability mask. Malformed
// payloads yield an empty mask rather than an error.
func (t *Teacher) UnavailablePatterns() []SlotPattern {
	return decodePatterns(t.Unavailable)
}

// PreferredPatterns decodes the stored preference windows.
func (t *Teacher) PreferredPatterns() []SlotPattern {
	return decodePatterns(t.Preferred)
}

func decodePatterns(raw types.JSONText) []SlotPattern {
	if len(raw) == 0 {
		return nil
	}
	var patterns []SlotPattern
	_ = json.Unmarshal(raw, &patterns)
	return patterns
}

// TeacherDepartment links a teacher to a department they serve.
type TeacherDepartment struct {
	TeacherID    string `db:"teacher_id" json:"teacher_id"`
	DepartmentID string `db:"department_id" json:"department_id"`
}
