package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/univops/timetable-api/internal/models"
)

// RoomRepository provides persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms matching the filter, highest priority first.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, error) {
	base := "FROM rooms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if filter.Available != nil {
		conditions = append(conditions, fmt.Sprintf("available = $%d", len(args)+1))
		args = append(args, *filter.Available)
	}
	if filter.MinCapacity > 0 {
		conditions = append(conditions, fmt.Sprintf("capacity >= $%d", len(args)+1))
		args = append(args, filter.MinCapacity)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT id, department_id, name, kind, capacity, priority, available, created_at, updated_at %s ORDER BY priority DESC, capacity DESC, id", base)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
