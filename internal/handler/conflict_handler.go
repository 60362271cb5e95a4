package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/univops/timetable-api/internal/dto"
	"github.com/univops/timetable-api/internal/service"
	appErrors "github.com/univops/timetable-api/pkg/errors"
	"github.com/univops/timetable-api/pkg/response"
)

type conflictService interface {
	Detect(ctx context.Context, from, to time.Time) (*dto.ConflictReportResponse, error)
}

// ConflictHandler exposes the schedule audit endpoint.
type ConflictHandler struct {
	service conflictService
}

// NewConflictHandler constructs the handler.
func NewConflictHandler(svc *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{service: svc}
}

// Detect godoc
// @Summary Detect conflicts among persisted sessions
// @Tags Conflicts
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /conflicts [get]
func (h *ConflictHandler) Detect(c *gin.Context) {
	from, err := time.Parse(time.DateOnly, c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
		return
	}
	to, err := time.Parse(time.DateOnly, c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
		return
	}

	report, err := h.service.Detect(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}
