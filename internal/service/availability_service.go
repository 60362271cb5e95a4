package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/univops/timetable-api/internal/dto"
	"github.com/univops/timetable-api/internal/models"
	"github.com/univops/timetable-api/internal/solver"
	appErrors "github.com/univops/timetable-api/pkg/errors"
)

// AvailabilityService answers which rooms are free in a weekly window over a
// date range.
type AvailabilityService struct {
	indexRepo   planningIndexRepository
	sessionRepo planningSessionRepository
	logger      *zap.Logger
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(indexRepo planningIndexRepository, sessionRepo planningSessionRepository, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{indexRepo: indexRepo, sessionRepo: sessionRepo, logger: logger}
}

// FreeRooms resolves the request against a consistent snapshot of the store.
func (s *AvailabilityService) FreeRooms(ctx context.Context, req dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	start, err := models.ParseClock(req.Start)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
	}
	end, err := models.ParseClock(req.End)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
	}
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "window start must precede end on the same day")
	}
	from, err := time.Parse(time.DateOnly, req.From)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
	}
	to, err := time.Parse(time.DateOnly, req.To)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err)
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end precedes range start")
	}

	data, err := s.indexRepo.LoadIndex(ctx, nil)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	idx := solver.NewIndex(data)

	rows, err := s.sessionRepo.LoadHorizon(ctx, from, to)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	sessions := make([]*models.Session, len(rows))
	for i := range rows {
		sessions[i] = &rows[i]
	}

	rooms := solver.FreeRooms(idx, sessions, solver.AvailabilityQuery{
		DayOfWeek:    req.DayOfWeek,
		StartMinute:  start,
		EndMinute:    end,
		From:         from,
		To:           to,
		RoomKind:     req.RoomKind,
		DepartmentID: req.DepartmentID,
	})
	if rooms == nil {
		rooms = []*models.Room{}
	}

	return &dto.AvailabilityResponse{
		DayOfWeek: req.DayOfWeek,
		Window:    fmt.Sprintf("%s-%s", models.MinuteClock(start), models.MinuteClock(end)),
		Count:     len(rooms),
		Rooms:     rooms,
	}, nil
}
