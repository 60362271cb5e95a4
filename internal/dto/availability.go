package dto

import "github.com/univops/timetable-api/internal/models"

// AvailabilityRequest captures query parameters for GET /rooms/available.
// Times come in as HH:MM wall clocks, dates as YYYY-MM-DD.
type AvailabilityRequest struct {
	DayOfWeek    int             `form:"day" binding:"min=0,max=6"`
	Start        string          `form:"start" binding:"required"`
	End          string          `form:"end" binding:"required"`
	From         string          `form:"from" binding:"required,datetime=2006-01-02"`
	To           string          `form:"to" binding:"required,datetime=2006-01-02"`
	RoomKind     models.RoomKind `form:"kind" binding:"omitempty,oneof=amphitheater lecture td lab other"`
	DepartmentID string          `form:"department_id"`
}

// AvailabilityResponse lists the free rooms for the queried window.
type AvailabilityResponse struct {
	DayOfWeek int            `json:"day_of_week"`
	Window    string         `json:"window"`
	Count     int            `json:"count"`
	Rooms     []*models.Room `json:"rooms"`
}
