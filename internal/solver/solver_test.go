package solver

import (
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/univops/timetable-api/internal/models"
)

// baseData is the smallest satisfiable world: one program of 30 students, one
// two-hour lecture subject, one qualified teacher and one fitting room, with a
// single Monday morning slot.
func baseData() IndexData {
	return IndexData{
		Departments: []models.Department{
			{ID: "dep-sci", Name: "Science"},
		},
		Programs: []models.Program{
			{ID: "prog-cs1", DepartmentID: "dep-sci", Name: "CS L1", Capacity: 30, EnrolledCount: 30},
		},
		Subjects: []models.Subject{
			{ID: "sub-alg", DepartmentID: "dep-sci", Code: "ALG1", Name: "Algebra", Kind: models.SubjectKindLecture, HoursPerWeek: 2, Coefficient: 1},
		},
		Teachers: []models.Teacher{
			{ID: "tch-saidi", FullName: "Nadia Saidi", MaxHoursPerWeek: 4, MaxHoursPerDay: 4, Available: true},
		},
		Rooms: []models.Room{
			{ID: "room-a1", DepartmentID: "dep-sci", Name: "A1", Kind: models.RoomKindLecture, Capacity: 30, Priority: 5, Available: true},
		},
		TimeSlots: []models.TimeSlot{
			{ID: "slot-mon-0800", DayOfWeek: 0, StartMinute: 8 * 60, EndMinute: 10 * 60, Priority: 5, Active: true},
		},
		SubjectTeachers: []models.SubjectTeacher{
			{SubjectID: "sub-alg", TeacherID: "tch-saidi"},
		},
		SubjectPrograms: []models.SubjectProgram{
			{SubjectID: "sub-alg", ProgramID: "prog-cs1"},
		},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.TimeLimit = 10 * time.Second
	return cfg
}

// weekHorizon starts on a Monday and spans exactly one week.
func weekHorizon() Horizon {
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	return Horizon{Start: start, End: start.AddDate(0, 0, 6)}
}

func patternsJSON(raw string) types.JSONText {
	return types.JSONText(raw)
}
