package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/errors"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/middleware"
	formservice "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/form/service"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/models"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/service"
)

type SessionHandler struct {
	service service.SessionService
}

func NewSessionHandler(service service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.POST("", middleware.InitData(), h.open)
		sessions.GET("/:id", h.get)
		sessions.GET("/:id/events", h.events)
		sessions.PATCH("/:id/fields", h.updateField)
		sessions.PUT("/:id/establishment", h.updateSelection)
		sessions.POST("/:id/submit", h.submit)
	}
}

// @Summary Open form session
// @Description Detects the Telegram host from init data, starts profile hydration and returns the initial form with host commands. Without init data the session runs in browser mode.
// @Tags sessions
// @Produce json
// @Param X-Telegram-Init-Data header string false "Raw Telegram init data"
// @Success 201 {object} models.OpenResponse
// @Router /sessions [post]
func (h *SessionHandler) open(c *gin.Context) {
	res, err := h.service.Open(c.Request.Context(), middleware.GetInitData(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// @Summary Get form session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(mapError(err, c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{Session: *view})
}

// @Summary Stream form state
// @Description Server-sent events; every event "state" carries a full FormState snapshot.
// @Tags sessions
// @Produce text/event-stream
// @Param id path string true "Session ID"
// @Success 200 {object} models.StateResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id}/events [get]
func (h *SessionHandler) events(c *gin.Context) {
	updates, cancel, err := h.service.Subscribe(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(mapError(err, c.Param("id")))
		return
	}
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case state, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("state", state)
			return true
		}
	})
}

// @Summary Update a text field
// @Description Replaces "order" or "comment". Rejected while the form is loading.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param field body models.FieldUpdate true "Field name and value"
// @Success 200 {object} models.StateResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/fields [patch]
func (h *SessionHandler) updateField(c *gin.Context) {
	var input models.FieldUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("invalid json").WithDetail("reason", err.Error()))
		return
	}

	state, err := h.service.UpdateField(c.Request.Context(), c.Param("id"), input.Name, input.Value)
	if err != nil {
		_ = c.Error(mapError(err, c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, models.StateResponse{State: state})
}

// @Summary Select establishment
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param selection body models.SelectionUpdate true "Establishment"
// @Success 200 {object} models.StateResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/establishment [put]
func (h *SessionHandler) updateSelection(c *gin.Context) {
	var input models.SelectionUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("invalid json").WithDetail("reason", err.Error()))
		return
	}

	state, err := h.service.UpdateSelection(c.Request.Context(), c.Param("id"), input.Value)
	if err != nil {
		_ = c.Error(mapError(err, c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, models.StateResponse{State: state})
}

// @Summary Submit order
// @Description Validates and posts the order once. Every business outcome (submitted, failed, invalid) answers 200 with the commands the page must run.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SubmitResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) submit(c *gin.Context) {
	res, err := h.service.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(mapError(err, c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, res)
}

func mapError(err error, sessionID string) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return apperrors.NewSessionNotFoundError(sessionID)
	case errors.Is(err, service.ErrSubmissionInFlight):
		return apperrors.Wrap(err, apperrors.ErrCodeSubmitInProgress, "Submission already in progress")
	case errors.Is(err, formservice.ErrLoading):
		return apperrors.Wrap(err, apperrors.ErrCodeFormLoading, "Form is still loading")
	case errors.Is(err, formservice.ErrUnknownField):
		return apperrors.Wrap(err, apperrors.ErrCodeUnknownField, "Unknown form field")
	default:
		return err
	}
}
