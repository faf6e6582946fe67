package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-agenda-api/internal/dto"
	"github.com/noah-isme/portal-agenda-api/internal/middleware"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	"github.com/noah-isme/portal-agenda-api/internal/service"
	"github.com/noah-isme/portal-agenda-api/pkg/response"
)

type availabilityService interface {
	GetSlots(ctx context.Context, q dto.AvailabilityQuery) (*service.AvailabilityResult, error)
	ListServices(ctx context.Context) ([]models.ClinicService, error)
}

// AvailabilityHandler serves the public slot and service catalog endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(svc availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Slots godoc
// @Summary List free slots
// @Description Free slots between data_inicio and data_fim (YYYY-MM-DD, clinic timezone). Past slots are never returned.
// @Tags Disponibilidade
// @Produce json
// @Param data_inicio query string true "First day"
// @Param data_fim query string false "Last day, defaults to data_inicio"
// @Param servico_id query string false "Only starts that fit the service duration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /disponibilidade [get]
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	var q dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, bindError(err, "parâmetros de consulta inválidos"))
		return
	}
	res, err := h.service.GetSlots(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, res.CacheHit)
	slots := res.Slots
	if slots == nil {
		slots = []models.Slot{}
	}
	response.JSON(c, http.StatusOK, slots, nil, middleware.ResponseMeta(c, map[string]interface{}{"total": len(slots)}))
}

// Services godoc
// @Summary List bookable services
// @Tags Disponibilidade
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /servicos [get]
func (h *AvailabilityHandler) Services(c *gin.Context) {
	items, err := h.service.ListServices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []models.ClinicService{}
	}
	response.JSON(c, http.StatusOK, items, nil)
}
