package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-agenda-api/internal/dto"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	"github.com/noah-isme/portal-agenda-api/pkg/response"
)

type scheduleAdminService interface {
	ListWindows(ctx context.Context) ([]models.AvailabilityWindow, error)
	CreateWindow(ctx context.Context, actor dto.Actor, req dto.WindowRequest) (*models.AvailabilityWindow, error)
	UpdateWindow(ctx context.Context, actor dto.Actor, id string, req dto.WindowRequest) (*models.AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, actor dto.Actor, id string) error
	ListBlackouts(ctx context.Context, q dto.BlackoutQuery) ([]models.Blackout, error)
	CreateBlackout(ctx context.Context, actor dto.Actor, req dto.BlackoutRequest) (*models.Blackout, error)
	DeleteBlackout(ctx context.Context, actor dto.Actor, id string) error
}

// ScheduleAdminHandler manages weekly windows and blackouts.
type ScheduleAdminHandler struct {
	service scheduleAdminService
}

// NewScheduleAdminHandler constructs a ScheduleAdminHandler.
func NewScheduleAdminHandler(svc scheduleAdminService) *ScheduleAdminHandler {
	return &ScheduleAdminHandler{service: svc}
}

// ListWindows godoc
// @Summary List availability windows
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/janelas [get]
func (h *ScheduleAdminHandler) ListWindows(c *gin.Context) {
	items, err := h.service.ListWindows(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []models.AvailabilityWindow{}
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateWindow godoc
// @Summary Create availability window
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.WindowRequest true "Window"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/janelas [post]
func (h *ScheduleAdminHandler) CreateWindow(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.WindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "payload de janela inválido"))
		return
	}
	window, err := h.service.CreateWindow(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// UpdateWindow godoc
// @Summary Replace availability window
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Window ID"
// @Param payload body dto.WindowRequest true "Window"
// @Success 200 {object} response.Envelope
// @Router /admin/janelas/{id} [put]
func (h *ScheduleAdminHandler) UpdateWindow(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.WindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "payload de janela inválido"))
		return
	}
	window, err := h.service.UpdateWindow(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// DeleteWindow godoc
// @Summary Delete availability window
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Window ID"
// @Success 204
// @Router /admin/janelas/{id} [delete]
func (h *ScheduleAdminHandler) DeleteWindow(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.DeleteWindow(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListBlackouts godoc
// @Summary List blackouts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param data_inicio query string false "First day"
// @Param data_fim query string false "Last day"
// @Success 200 {object} response.Envelope
// @Router /admin/bloqueios [get]
func (h *ScheduleAdminHandler) ListBlackouts(c *gin.Context) {
	var q dto.BlackoutQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, bindError(err, "parâmetros de consulta inválidos"))
		return
	}
	items, err := h.service.ListBlackouts(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []models.Blackout{}
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateBlackout godoc
// @Summary Block an interval
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BlackoutRequest true "Blackout"
// @Success 201 {object} response.Envelope
// @Router /admin/bloqueios [post]
func (h *ScheduleAdminHandler) CreateBlackout(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.BlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "payload de bloqueio inválido"))
		return
	}
	blackout, err := h.service.CreateBlackout(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, blackout)
}

// DeleteBlackout godoc
// @Summary Remove a blackout
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Blackout ID"
// @Success 204
// @Router /admin/bloqueios/{id} [delete]
func (h *ScheduleAdminHandler) DeleteBlackout(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBlackout(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
