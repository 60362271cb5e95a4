package models

import "time"

// Program represents a student cohort following a shared curriculum.
type Program struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	Level        string    `db:"level" json:"level"`
	Capacity     int       `db:"capacity" json:"capacity"`
	// EnrolledCount counts students with active=true only; repeating or
	// suspended students are excluded from room capacity checks.
	EnrolledCount int       `db:"enrolled_count" json:"enrolled_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectProgram links a subject to a program taking it.
type SubjectProgram struct {
	SubjectID string `db:"subject_id" json:"subject_id"`
	ProgramID string `db:"program_id" json:"program_id"`
}
