package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/univops/timetable-api/internal/models"
	apperrors "github.com/univops/timetable-api/pkg/errors"
)

const sessionColumns = `id, subject_id, teacher_id, room_id, time_slot_id, program_ids, start_date, end_date, active, created_at, updated_at`

// SessionRepository provides persistence for scheduled sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// LoadHorizon returns every active session whose recurrence window intersects
// [from, to].
func (r *SessionRepository) LoadHorizon(ctx context.Context, from, to time.Time) ([]models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE active = true AND start_date <= $1 AND end_date >= $2 ORDER BY start_date, id`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, to, from); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return sessions, nil
}

// List returns sessions matching the filter.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	base := "FROM sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(program_ids)", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("end_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_date, id", sessionColumns, base)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// FindByID loads a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// Create inserts one session row.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO sessions (id, subject_id, teacher_id, room_id, time_slot_id, program_ids, start_date, end_date, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.SubjectID, session.TeacherID, session.RoomID,
		session.TimeSlotID, session.ProgramIDs, session.StartDate, session.EndDate, session.Active)
	if err != nil {
		return wrapSessionWriteErr(err, "create session")
	}
	return nil
}

// Update rewrites the mutable fields of one session row.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	const query = `
		UPDATE sessions
		SET teacher_id = $2, room_id = $3, time_slot_id = $4, program_ids = $5,
		    start_date = $6, end_date = $7, active = $8, updated_at = NOW()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		session.ID, session.TeacherID, session.RoomID, session.TimeSlotID,
		session.ProgramIDs, session.StartDate, session.EndDate, session.Active)
	if err != nil {
		return wrapSessionWriteErr(err, "update session")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a session row.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Commit applies a planning result in one transaction: replaced sessions go
// out, new ones come in, or neither happens. A uniqueness violation from a
// concurrent commit surfaces as STORE_CONFLICT with the store untouched.
func (r *SessionRepository) Commit(ctx context.Context, toDelete []string, toInsert []models.Session) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if len(toDelete) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ANY($1)`, pq.Array(toDelete)); err != nil {
			return fmt.Errorf("delete replaced sessions: %w", err)
		}
	}

	const insertQuery = `
		INSERT INTO sessions (id, subject_id, teacher_id, room_id, time_slot_id, program_ids, start_date, end_date, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, NOW(), NOW())`
	for i := range toInsert {
		s := &toInsert[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, insertQuery,
			s.ID, s.SubjectID, s.TeacherID, s.RoomID, s.TimeSlotID,
			s.ProgramIDs, s.StartDate, s.EndDate); err != nil {
			return wrapSessionWriteErr(err, "insert session")
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapSessionWriteErr(err, "commit sessions")
	}
	return nil
}

// wrapSessionWriteErr maps unique-constraint violations onto the typed
// STORE_CONFLICT error; everything else stays an internal failure.
func wrapSessionWriteErr(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperrors.WrapAs(apperrors.ErrStoreConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
