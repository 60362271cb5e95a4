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

type planningService interface {
	Generate(ctx context.Context, req dto.PlanningRequest) (*dto.PlanningResult, error)
}

// PlanningHandler exposes the timetable generation endpoint.
type PlanningHandler struct {
	service planningService
}

// NewPlanningHandler constructs the handler.
func NewPlanningHandler(svc *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{service: svc}
}

// Generate godoc
// @Summary Generate a timetable for a program set over a horizon
// @Description Runs the CP solver (or the greedy generator) and commits the outcome atomically. Infeasible, timeout and cancelled runs commit nothing and return their diagnostics alongside the error.
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body dto.PlanningRequest true "Planning request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /planning/generate [post]
func (h *PlanningHandler) Generate(c *gin.Context) {
	var req dto.PlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(appErrors.ErrValidation, err))
		return
	}

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			response.ErrorWithData(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
