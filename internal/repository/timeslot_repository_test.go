package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/univops/timetable-api/internal/models"
)

func slotRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "day_of_week", "start_minute", "end_minute", "priority", "active", "created_at", "updated_at"})
	for i, id := range ids {
		rows.AddRow(id, i%5, 8*60, 10*60, 5, true, time.Now(), time.Now())
	}
	return rows
}

func TestTimeSlotRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimeSlotRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_slots ORDER BY active DESC")).
		WillReturnRows(slotRows("slot-1", "slot-2"))

	slots, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositorySeedGridCountsCreated(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimeSlotRepository(db)
	mock.ExpectBegin()
	// First cell inserts, second hits the (day, start, end) key and is skipped.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_slots")).
		WithArgs("grid-0-0480", 0, 8*60, 9*60+30, 5).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_slots")).
		WithArgs("grid-0-0585", 0, 9*60+45, 11*60+15, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	created, err := repo.SeedGrid(context.Background(), []models.TimeSlot{
		{ID: "grid-0-0480", DayOfWeek: 0, StartMinute: 8 * 60, EndMinute: 9*60 + 30, Priority: 5},
		{ID: "grid-0-0585", DayOfWeek: 0, StartMinute: 9*60 + 45, EndMinute: 11*60 + 15, Priority: 5},
	})
	require.NoError(t, err)
	require.Equal(t, 1, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositorySeedGridRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimeSlotRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_slots")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	_, err := repo.SeedGrid(context.Background(), []models.TimeSlot{
		{ID: "grid-0-0480", DayOfWeek: 0, StartMinute: 8 * 60, EndMinute: 9*60 + 30, Priority: 5},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
