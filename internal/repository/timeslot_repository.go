package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/univops/timetable-api/internal/models"
)

// TimeSlotRepository provides persistence for the weekly slot grid.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository creates a new time slot repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// List returns every slot, active ones first in grid order.
func (r *TimeSlotRepository) List(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT id, day_of_week, start_minute, end_minute, priority, active, created_at, updated_at FROM time_slots ORDER BY active DESC, day_of_week, start_minute`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// SeedGrid upserts the generated day grid. Existing slots on the same
// (day, start, end) key keep their row and priority; only new grid cells are
// inserted. Returns the number of rows created.
func (r *TimeSlotRepository) SeedGrid(ctx context.Context, slots []models.TimeSlot) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin grid seed: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
		INSERT INTO time_slots (id, day_of_week, start_minute, end_minute, priority, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, NOW(), NOW())
		ON CONFLICT (day_of_week, start_minute, end_minute) DO NOTHING`
	created := 0
	for i := range slots {
		s := &slots[i]
		result, err := tx.ExecContext(ctx, query, s.ID, s.DayOfWeek, s.StartMinute, s.EndMinute, s.Priority)
		if err != nil {
			return 0, fmt.Errorf("seed time slot: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("seed time slot: %w", err)
		}
		created += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit grid seed: %w", err)
	}
	return created, nil
}
