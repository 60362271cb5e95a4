package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/univops/timetable-api/internal/solver"
)

// IndexRepository loads the read-only entity snapshot a planning run works on.
type IndexRepository struct {
	db *sqlx.DB
}

// NewIndexRepository creates a new index repository.
func NewIndexRepository(db *sqlx.DB) *IndexRepository {
	return &IndexRepository{db: db}
}

// LoadIndex reads every entity the solver consults in one pass. With a
// non-empty programIDs only those programs are loaded; subjects, teachers and
// rooms are always loaded whole since cross-department teaching is allowed.
// Unavailable rooms and inactive slots load too: sessions pinned to them must
// still resolve when auditing, and the planners exclude them from candidates.
func (r *IndexRepository) LoadIndex(ctx context.Context, programIDs []string) (solver.IndexData, error) {
	var data solver.IndexData

	const departmentsQuery = `SELECT id, name, created_at, updated_at FROM departments`
	if err := r.db.SelectContext(ctx, &data.Departments, departmentsQuery); err != nil {
		return data, fmt.Errorf("load departments: %w", err)
	}

	programsQuery := `SELECT id, department_id, name, level, capacity, enrolled_count, created_at, updated_at FROM programs`
	var args []interface{}
	if len(programIDs) > 0 {
		programsQuery += ` WHERE id = ANY($1)`
		args = append(args, pq.Array(programIDs))
	}
	if err := r.db.SelectContext(ctx, &data.Programs, programsQuery, args...); err != nil {
		return data, fmt.Errorf("load programs: %w", err)
	}

	const subjectsQuery = `SELECT id, department_id, code, name, kind, hours_per_week, semester, min_room_capacity, coefficient, created_at, updated_at FROM subjects`
	if err := r.db.SelectContext(ctx, &data.Subjects, subjectsQuery); err != nil {
		return data, fmt.Errorf("load subjects: %w", err)
	}

	const teachersQuery = `SELECT id, full_name, email, max_hours_per_week, max_hours_per_day, available, unavailable, preferred, created_at, updated_at FROM teachers`
	if err := r.db.SelectContext(ctx, &data.Teachers, teachersQuery); err != nil {
		return data, fmt.Errorf("load teachers: %w", err)
	}

	const roomsQuery = `SELECT id, department_id, name, kind, capacity, priority, available, created_at, updated_at FROM rooms`
	if err := r.db.SelectContext(ctx, &data.Rooms, roomsQuery); err != nil {
		return data, fmt.Errorf("load rooms: %w", err)
	}

	const slotsQuery = `SELECT id, day_of_week, start_minute, end_minute, priority, active, created_at, updated_at FROM time_slots ORDER BY day_of_week, start_minute`
	if err := r.db.SelectContext(ctx, &data.TimeSlots, slotsQuery); err != nil {
		return data, fmt.Errorf("load time slots: %w", err)
	}

	const subjectTeachersQuery = `SELECT subject_id, teacher_id FROM subject_teachers`
	if err := r.db.SelectContext(ctx, &data.SubjectTeachers, subjectTeachersQuery); err != nil {
		return data, fmt.Errorf("load subject teachers: %w", err)
	}

	const subjectProgramsQuery = `SELECT subject_id, program_id FROM subject_programs`
	if err := r.db.SelectContext(ctx, &data.SubjectPrograms, subjectProgramsQuery); err != nil {
		return data, fmt.Errorf("load subject programs: %w", err)
	}

	return data, nil
}

// ProgramsExist verifies every requested ID resolves to a program row.
func (r *IndexRepository) ProgramsExist(ctx context.Context, programIDs []string) ([]string, error) {
	if len(programIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id FROM programs WHERE id = ANY($1)`
	var found []string
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(programIDs)); err != nil {
		return nil, fmt.Errorf("check programs: %w", err)
	}
	foundSet := make(map[string]bool, len(found))
	for _, id := range found {
		foundSet[id] = true
	}
	var missing []string
	for _, id := range programIDs {
		if !foundSet[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
