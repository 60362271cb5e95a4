package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univops/timetable-api/internal/dto"
	"github.com/univops/timetable-api/internal/models"
	"github.com/univops/timetable-api/internal/service"
	appErrors "github.com/univops/timetable-api/pkg/errors"
	"github.com/univops/timetable-api/pkg/response"
)

type sessionService interface {
	List(ctx context.Context, filter dto.SessionFilter) ([]models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Create(ctx context.Context, req dto.CreateSessionRequest) (*models.Session, error)
	Update(ctx context.Context, id string, req dto.UpdateSessionRequest) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionHandler manages session endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// List godoc
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param program_id query string false "Filter by program"
// @Param teacher_id query string false "Filter by teacher"
// @Param room_id query string false "Filter by room"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Param active query bool false "Filter by active flag"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	var filter dto.SessionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.WrapAs(appErrors.ErrValidation, err))
		return
	}
	sessions, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions)
}

// Get godoc
// @Summary Get one session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// Create godoc
// @Summary Insert a session manually
// @Description Re-checks every scheduling invariant before committing the row.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(appErrors.ErrValidation, err))
		return
	}
	session, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Update a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id} [patch]
func (h *SessionHandler) Update(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(appErrors.ErrValidation, err))
		return
	}
	session, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// Delete godoc
// @Summary Delete a session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
