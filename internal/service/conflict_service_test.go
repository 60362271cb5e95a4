package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/univops/timetable-api/internal/models"
	appErrors "github.com/univops/timetable-api/pkg/errors"
)

func conflictServiceData() *planningIndexStub {
	data := planningData()
	data.TimeSlots = append(data.TimeSlots, models.TimeSlot{
		ID: "slot-mon-0900", DayOfWeek: 0, StartMinute: 9 * 60, EndMinute: 11 * 60, Priority: 4, Active: true,
	})
	data.Rooms = append(data.Rooms, models.Room{
		ID: "room-a2", DepartmentID: "dep-sci", Name: "A2",
		Kind: models.RoomKindLecture, Capacity: 30, Priority: 4, Available: true,
	})
	return &planningIndexStub{data: data}
}

func conflictRow(id, slotID, roomID string, from, to time.Time) models.Session {
	return models.Session{
		ID:         id,
		SubjectID:  "sub-alg",
		TeacherID:  "tch-saidi",
		RoomID:     roomID,
		TimeSlotID: slotID,
		ProgramIDs: pq.StringArray{"prog-cs1"},
		StartDate:  from,
		EndDate:    to,
		Active:     true,
	}
}

func TestConflictDetectReportsTeacherClash(t *testing.T) {
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)
	sessionRepo := &planningSessionStub{rows: []models.Session{
		conflictRow("ses-1", "slot-mon-0800", "room-a1", from, to),
		conflictRow("ses-2", "slot-mon-0900", "room-a2", from, to),
	}}
	svc := NewConflictService(conflictServiceData(), sessionRepo, nil, time.Minute, nil, nil)

	report, err := svc.Detect(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1, report.Count)
	require.Equal(t, models.ConflictTeacher, report.Conflicts[0].Kind)
	require.Equal(t, []string{"ses-1", "ses-2"}, report.Conflicts[0].SessionIDs)
	require.Equal(t, from, report.HorizonStart)
	require.Equal(t, to, report.HorizonEnd)
}

func TestConflictDetectCleanSchedule(t *testing.T) {
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)
	sessionRepo := &planningSessionStub{rows: []models.Session{
		conflictRow("ses-1", "slot-mon-0800", "room-a1", from, to),
	}}
	svc := NewConflictService(conflictServiceData(), sessionRepo, nil, time.Minute, nil, nil)

	report, err := svc.Detect(context.Background(), from, to)
	require.NoError(t, err)
	require.Zero(t, report.Count)
	require.NotNil(t, report.Conflicts)
	require.Empty(t, report.Conflicts)
}

func TestConflictDetectRejectsInvertedRange(t *testing.T) {
	svc := NewConflictService(conflictServiceData(), &planningSessionStub{}, nil, time.Minute, nil, nil)

	from := time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)
	_, err := svc.Detect(context.Background(), from, from.AddDate(0, 0, -6))
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
