package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/univops/timetable-api/internal/models"
	"github.com/univops/timetable-api/internal/solver"
	appErrors "github.com/univops/timetable-api/pkg/errors"
)

type timeSlotRepository interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
	SeedGrid(ctx context.Context, slots []models.TimeSlot) (int, error)
}

// TimeSlotService manages the weekly slot grid.
type TimeSlotService struct {
	repo     timeSlotRepository
	defaults solver.Config
	logger   *zap.Logger
}

// NewTimeSlotService instantiates TimeSlotService.
func NewTimeSlotService(repo timeSlotRepository, defaults solver.Config, logger *zap.Logger) *TimeSlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotService{repo: repo, defaults: defaults, logger: logger}
}

// List returns every persisted slot.
func (s *TimeSlotService) List(ctx context.Context) ([]models.TimeSlot, error) {
	slots, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	return slots, nil
}

// SeedGrid persists the generated day grid, skipping slots that already
// exist. Request-level overrides reshape the grid the same way a planning
// run would.
func (s *TimeSlotService) SeedGrid(ctx context.Context, overrides map[string]any) ([]models.TimeSlot, int, error) {
	cfg := s.defaults
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return nil, 0, appErrors.WrapAs(appErrors.ErrValidation, err)
	}

	grid := solver.BuildDayGrid(cfg)
	created, err := s.repo.SeedGrid(ctx, grid)
	if err != nil {
		return nil, 0, appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	s.logger.Info("day grid seeded", zap.Int("slots", len(grid)), zap.Int("created", created))
	return grid, created, nil
}
