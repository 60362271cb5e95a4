package models

import "time"

// SubjectKind categorises the teaching format of a subject.
type SubjectKind string

const (
	SubjectKindLecture SubjectKind = "lecture"
	SubjectKindTD      SubjectKind = "td"
	SubjectKindLab     SubjectKind = "lab"
	SubjectKindExam    SubjectKind = "exam"
	SubjectKindOther   SubjectKind = "other"
)

// Subject represents a course offering.
type Subject struct {
	ID              string      `db:"id" json:"id"`
	DepartmentID    string      `db:"department_id" json:"department_id"`
	Code            string      `db:"code" json:"code"`
	Name            string      `db:"name" json:"name"`
	Kind            SubjectKind `db:"kind" json:"kind"`
	HoursPerWeek    float64     `db:"hours_per_week" json:"hours_per_week"`
	Semester        int         `db:"semester" json:"semester"`
	MinRoomCapacity int         `db:"min_room_capacity" json:"min_room_capacity"`
	Coefficient     float64     `db:"coefficient" json:"coefficient"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// SubjectTeacher links a subject to a teacher qualified to teach it.
type SubjectTeacher struct {
	SubjectID string `db:"subject_id" json:"subject_id"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`
}
