package solver

import (
	"sort"

	"github.com/samber/lo"

	"github.com/univops/timetable-api/internal/models"
)

// IndexData is the raw entity snapshot loaded from the store for one run.
type IndexData struct {
	Departments     []models.Department
	Programs        []models.Program
	Subjects        []models.Subject
	Teachers        []models.Teacher
	Rooms           []models.Room
	TimeSlots       []models.TimeSlot
	SubjectTeachers []models.SubjectTeacher
	SubjectPrograms []models.SubjectProgram
}

// Index precomputes the joins the solver reads. It is immutable during a run;
// all lookups are map-backed.
type Index struct {
	departments map[string]*models.Department
	programs    map[string]*models.Program
	subjects    map[string]*models.Subject
	teachers    map[string]*models.Teacher
	rooms       map[string]*models.Room
	slots       []*models.TimeSlot
	slotsByID   map[string]*models.TimeSlot

	teachersOf map[string][]*models.Teacher
	programsOf map[string][]*models.Program
	roomsOf    map[string][]*models.Room
}

// NewIndex builds the lookup structure from a loaded snapshot.
func NewIndex(data IndexData) *Index {
	idx := &Index{
		departments: make(map[string]*models.Department, len(data.Departments)),
		programs:    make(map[string]*models.Program, len(data.Programs)),
		subjects:    make(map[string]*models.Subject, len(data.Subjects)),
		teachers:    make(map[string]*models.Teacher, len(data.Teachers)),
		rooms:       make(map[string]*models.Room, len(data.Rooms)),
		slotsByID:   make(map[string]*models.TimeSlot, len(data.TimeSlots)),
		teachersOf:  make(map[string][]*models.Teacher),
		programsOf:  make(map[string][]*models.Program),
		roomsOf:     make(map[string][]*models.Room),
	}

	for i := range data.Departments {
		d := &data.Departments[i]
		idx.departments[d.ID] = d
	}
	for i := range data.Programs {
		p := &data.Programs[i]
		idx.programs[p.ID] = p
	}
	for i := range data.Subjects {
		s := &data.Subjects[i]
		idx.subjects[s.ID] = s
	}
	for i := range data.Teachers {
		t := &data.Teachers[i]
		idx.teachers[t.ID] = t
	}
	for i := range data.Rooms {
		r := &data.Rooms[i]
		idx.rooms[r.ID] = r
		idx.roomsOf[r.DepartmentID] = append(idx.roomsOf[r.DepartmentID], r)
	}
	for i := range data.TimeSlots {
		ts := &data.TimeSlots[i]
		idx.slotsByID[ts.ID] = ts
		if ts.Active {
			idx.slots = append(idx.slots, ts)
		}
	}

	for _, link := range data.SubjectTeachers {
		if t, ok := idx.teachers[link.TeacherID]; ok {
			idx.teachersOf[link.SubjectID] = append(idx.teachersOf[link.SubjectID], t)
		}
	}
	for _, link := range data.SubjectPrograms {
		if p, ok := idx.programs[link.ProgramID]; ok {
			idx.programsOf[link.SubjectID] = append(idx.programsOf[link.SubjectID], p)
		}
	}

	for _, teachers := range idx.teachersOf {
		sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })
	}
	for _, programs := range idx.programsOf {
		sort.Slice(programs, func(i, j int) bool { return programs[i].ID < programs[j].ID })
	}
	for _, rooms := range idx.roomsOf {
		sortRooms(rooms)
	}
	sort.Slice(idx.slots, func(i, j int) bool {
		a, b := idx.slots[i], idx.slots[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartMinute != b.StartMinute {
			return a.StartMinute < b.StartMinute
		}
		return a.EndMinute < b.EndMinute
	})

	return idx
}

func sortRooms(rooms []*models.Room) {
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Priority != rooms[j].Priority {
			return rooms[i].Priority > rooms[j].Priority
		}
		if rooms[i].Capacity != rooms[j].Capacity {
			return rooms[i].Capacity > rooms[j].Capacity
		}
		return rooms[i].ID < rooms[j].ID
	})
}

// TeachersOf returns the qualified teachers for a subject, ID ascending.
func (idx *Index) TeachersOf(subjectID string) []*models.Teacher {
	return idx.teachersOf[subjectID]
}

// ProgramsOf returns the programs taking a subject, ID ascending.
func (idx *Index) ProgramsOf(subjectID string) []*models.Program {
	return idx.programsOf[subjectID]
}

// RoomsOf returns a department's rooms ordered by priority desc, capacity desc.
func (idx *Index) RoomsOf(departmentID string) []*models.Room {
	return idx.roomsOf[departmentID]
}

// AllRooms returns every room ordered by priority desc, capacity desc.
func (idx *Index) AllRooms() []*models.Room {
	rooms := lo.Values(idx.rooms)
	sortRooms(rooms)
	return rooms
}

// Slots returns the active time slots ordered by (day, start, end).
func (idx *Index) Slots() []*models.TimeSlot {
	return idx.slots
}

// Slot resolves a time-slot ID, inactive slots included; nil when absent.
func (idx *Index) Slot(id string) *models.TimeSlot {
	return idx.slotsByID[id]
}

// Subject resolves a subject ID.
func (idx *Index) Subject(id string) *models.Subject {
	return idx.subjects[id]
}

// Teacher resolves a teacher ID.
func (idx *Index) Teacher(id string) *models.Teacher {
	return idx.teachers[id]
}

// Room resolves a room ID.
func (idx *Index) Room(id string) *models.Room {
	return idx.rooms[id]
}

// Program resolves a program ID.
func (idx *Index) Program(id string) *models.Program {
	return idx.programs[id]
}

// Programs resolves a set of program IDs, dropping unknown entries.
func (idx *Index) ResolvePrograms(ids []string) []*models.Program {
	programs := lo.FilterMap(ids, func(id string, _ int) (*models.Program, bool) {
		p, ok := idx.programs[id]
		return p, ok
	})
	sort.Slice(programs, func(i, j int) bool { return programs[i].ID < programs[j].ID })
	return programs
}

// Enrolled returns the active student count of a program.
func (idx *Index) Enrolled(programID string) int {
	if p, ok := idx.programs[programID]; ok {
		return p.EnrolledCount
	}
	return 0
}

// HasLabRoom reports whether a department owns at least one available lab room.
func (idx *Index) HasLabRoom(departmentID string) bool {
	return lo.SomeBy(idx.roomsOf[departmentID], func(r *models.Room) bool {
		return r.Kind == models.RoomKindLab && r.Available
	})
}
