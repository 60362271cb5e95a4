package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univops/timetable-api/internal/dto"
	"github.com/univops/timetable-api/internal/service"
	appErrors "github.com/univops/timetable-api/pkg/errors"
	"github.com/univops/timetable-api/pkg/response"
)

type availabilityService interface {
	FreeRooms(ctx context.Context, req dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)
}

// AvailabilityHandler exposes the free-room query.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// FreeRooms godoc
// @Summary List rooms free in a weekly window over a date range
// @Tags Rooms
// @Produce json
// @Param day query int true "Day of week, Mon=0"
// @Param start query string true "Window start (HH:MM)"
// @Param end query string true "Window end (HH:MM)"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Param kind query string false "Room kind filter"
// @Param department_id query string false "Department filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /rooms/available [get]
func (h *AvailabilityHandler) FreeRooms(c *gin.Context) {
	var req dto.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.WrapAs(appErrors.ErrValidation, err))
		return
	}

	rooms, err := h.service.FreeRooms(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms)
}
