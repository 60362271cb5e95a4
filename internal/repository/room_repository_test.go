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

func TestRoomRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRoomRepository(db)
	available := true
	rows := sqlmock.NewRows([]string{"id", "department_id", "name", "kind", "capacity", "priority", "available", "created_at", "updated_at"}).
		AddRow("room-lab1", "dep-sci", "Lab 1", "lab", 20, 3, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE 1=1 AND department_id = $1 AND kind = $2 AND available = $3 AND capacity >= $4")).
		WithArgs("dep-sci", models.RoomKindLab, available, 15).
		WillReturnRows(rows)

	rooms, err := repo.List(context.Background(), models.RoomFilter{
		DepartmentID: "dep-sci",
		Kind:         models.RoomKindLab,
		Available:    &available,
		MinCapacity:  15,
	})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Equal(t, "room-lab1", rooms[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryListNoFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRoomRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE 1=1 ORDER BY priority DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "department_id", "name", "kind", "capacity", "priority", "available", "created_at", "updated_at"}))

	rooms, err := repo.List(context.Background(), models.RoomFilter{})
	require.NoError(t, err)
	require.Empty(t, rooms)
	require.NoError(t, mock.ExpectationsWereMet())
}
