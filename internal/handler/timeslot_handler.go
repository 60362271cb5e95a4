package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univops/timetable-api/internal/models"
	"github.com/univops/timetable-api/internal/service"
	appErrors "github.com/univops/timetable-api/pkg/errors"
	"github.com/univops/timetable-api/pkg/response"
)

type timeSlotService interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
	SeedGrid(ctx context.Context, overrides map[string]any) ([]models.TimeSlot, int, error)
}

// TimeSlotHandler manages the weekly slot grid endpoints.
type TimeSlotHandler struct {
	service timeSlotService
}

// NewTimeSlotHandler constructs the handler.
func NewTimeSlotHandler(svc *service.TimeSlotService) *TimeSlotHandler {
	return &TimeSlotHandler{service: svc}
}

// List godoc
// @Summary List time slots
// @Tags TimeSlots
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /time-slots [get]
func (h *TimeSlotHandler) List(c *gin.Context) {
	slots, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// SeedGrid godoc
// @Summary Seed the generated day grid
// @Description Generates the configured day grid and inserts the slots that do not exist yet. The body accepts the same grid knobs as a planning request.
// @Tags TimeSlots
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /time-slots/seed-grid [post]
func (h *TimeSlotHandler) SeedGrid(c *gin.Context) {
	overrides := map[string]any{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&overrides); err != nil {
			response.Error(c, appErrors.WrapAs(appErrors.ErrValidation, err))
			return
		}
	}
	slots, created, err := h.service.SeedGrid(c.Request.Context(), overrides)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"slots": slots, "created": created})
}
