package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/univops/timetable-api/internal/models"
	apperrors "github.com/univops/timetable-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "subject_id", "teacher_id", "room_id", "time_slot_id", "program_ids", "start_date", "end_date", "active", "created_at", "updated_at"})
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	for _, id := range ids {
		rows.AddRow(id, "sub-alg", "tch-saidi", "room-a1", "slot-mon-0800",
			pq.StringArray{"prog-cs1"}, start, start.AddDate(0, 0, 6), true, time.Now(), time.Now())
	}
	return rows
}

func TestSessionRepositoryLoadHorizon(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subject_id, teacher_id, room_id, time_slot_id, program_ids, start_date, end_date, active, created_at, updated_at FROM sessions WHERE active = true")).
		WithArgs(to, from).
		WillReturnRows(sessionRows("ses-1", "ses-2"))

	sessions, err := repo.LoadHorizon(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "ses-1", sessions[0].ID)
	require.Equal(t, pq.StringArray{"prog-cs1"}, sessions[0].ProgramIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	active := true
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("= ANY(program_ids)")).
		WithArgs("prog-cs1", "tch-saidi", from, active).
		WillReturnRows(sessionRows("ses-1"))

	sessions, err := repo.List(context.Background(), models.SessionFilter{
		ProgramID: "prog-cs1",
		TeacherID: "tch-saidi",
		From:      &from,
		Active:    &active,
	})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id = $1")).
		WithArgs("ses-ghost").
		WillReturnRows(sessionRows())

	_, err := repo.FindByID(context.Background(), "ses-ghost")
	require.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Session{ID: "ses-ghost"})
	require.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCommit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = ANY($1)")).
		WithArgs(pq.Array([]string{"ses-old"})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Commit(context.Background(), []string{"ses-old"}, []models.Session{{
		SubjectID:  "sub-alg",
		TeacherID:  "tch-saidi",
		RoomID:     "room-a1",
		TimeSlotID: "slot-mon-0800",
		ProgramIDs: pq.StringArray{"prog-cs1"},
		StartDate:  start,
		EndDate:    start,
	}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCommitRollsBackOnDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Commit(context.Background(), nil, []models.Session{{
		SubjectID:  "sub-alg",
		TeacherID:  "tch-saidi",
		RoomID:     "room-a1",
		TimeSlotID: "slot-mon-0800",
		ProgramIDs: pq.StringArray{"prog-cs1"},
		StartDate:  start,
		EndDate:    start,
	}})
	require.True(t, apperrors.HasCode(err, apperrors.ErrStoreConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCommitEmptyStillCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, repo.Commit(context.Background(), nil, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
