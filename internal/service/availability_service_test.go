package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/univops/timetable-api/internal/dto"
	"github.com/univops/timetable-api/internal/models"
	appErrors "github.com/univops/timetable-api/pkg/errors"
)

func availabilityRequest() dto.AvailabilityRequest {
	return dto.AvailabilityRequest{
		DayOfWeek: 0,
		Start:     "08:00",
		End:       "10:00",
		From:      "2026-09-07",
		To:        "2026-09-13",
	}
}

func TestAvailabilityFreeRooms(t *testing.T) {
	data := planningData()
	data.Rooms = append(data.Rooms, models.Room{
		ID: "room-b1", DepartmentID: "dep-sci", Name: "B1",
		Kind: models.RoomKindLecture, Capacity: 60, Priority: 5, Available: true,
	})
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	sessionRepo := &planningSessionStub{rows: []models.Session{
		conflictRow("ses-1", "slot-mon-0800", "room-a1", from, from.AddDate(0, 0, 6)),
	}}
	svc := NewAvailabilityService(&planningIndexStub{data: data}, sessionRepo, nil)

	resp, err := svc.FreeRooms(context.Background(), availabilityRequest())
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	require.Equal(t, "room-b1", resp.Rooms[0].ID)
	require.Equal(t, "08:00-10:00", resp.Window)
}

func TestAvailabilityEmptyResultIsNotNil(t *testing.T) {
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	sessionRepo := &planningSessionStub{rows: []models.Session{
		conflictRow("ses-1", "slot-mon-0800", "room-a1", from, from.AddDate(0, 0, 6)),
	}}
	svc := NewAvailabilityService(&planningIndexStub{data: planningData()}, sessionRepo, nil)

	resp, err := svc.FreeRooms(context.Background(), availabilityRequest())
	require.NoError(t, err)
	require.Zero(t, resp.Count)
	require.NotNil(t, resp.Rooms)
}

func TestAvailabilityValidation(t *testing.T) {
	svc := NewAvailabilityService(&planningIndexStub{data: planningData()}, &planningSessionStub{}, nil)

	req := availabilityRequest()
	req.Start, req.End = req.End, req.Start
	_, err := svc.FreeRooms(context.Background(), req)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	req = availabilityRequest()
	req.Start = "8am"
	_, err = svc.FreeRooms(context.Background(), req)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	req = availabilityRequest()
	req.From, req.To = req.To, req.From
	_, err = svc.FreeRooms(context.Background(), req)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
