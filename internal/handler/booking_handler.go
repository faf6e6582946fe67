package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-agenda-api/internal/dto"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	"github.com/noah-isme/portal-agenda-api/internal/service"
	"github.com/noah-isme/portal-agenda-api/pkg/response"
)

type bookingService interface {
	Create(ctx context.Context, actor dto.Actor, req dto.CreateBookingRequest) (*models.Booking, error)
	Reschedule(ctx context.Context, actor dto.Actor, id string, req dto.RescheduleBookingRequest) (*models.Booking, error)
	Cancel(ctx context.Context, actor dto.Actor, id string, req dto.CancelBookingRequest) (*models.Booking, error)
	Confirm(ctx context.Context, actor dto.Actor, id string) (*models.Booking, error)
	ConfirmByToken(ctx context.Context, token string) (*models.Booking, error)
	MarkAttendance(ctx context.Context, actor dto.Actor, id string, status models.BookingStatus) (*models.Booking, error)
	Get(ctx context.Context, actor dto.Actor, id string) (*models.BookingDetail, error)
	List(ctx context.Context, actor dto.Actor, q dto.ListBookingsQuery) ([]models.BookingDetail, *models.Pagination, error)
}

type agendaExporter interface {
	Agenda(ctx context.Context, actor dto.Actor, q dto.ExportBookingsQuery) (*service.ExportResult, error)
}

// BookingHandler exposes booking endpoints.
type BookingHandler struct {
	service  bookingService
	exporter agendaExporter
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc bookingService, exporter agendaExporter) *BookingHandler {
	return &BookingHandler{service: svc, exporter: exporter}
}

// Create godoc
// @Summary Book a slot
// @Tags Agendamentos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateBookingRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /agendamentos [post]
func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "payload de agendamento inválido"))
		return
	}
	booking, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// List godoc
// @Summary List bookings
// @Tags Agendamentos
// @Produce json
// @Security BearerAuth
// @Param data_inicio query string false "First day"
// @Param data_fim query string false "Last day"
// @Param paciente_id query string false "Patient"
// @Param status query string false "Comma separated statuses"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /agendamentos [get]
func (h *BookingHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var q dto.ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, bindError(err, "parâmetros de consulta inválidos"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), actor, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []models.BookingDetail{}
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get booking
// @Tags Agendamentos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /agendamentos/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	booking, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Reschedule godoc
// @Summary Move a booking
// @Tags Agendamentos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body dto.RescheduleBookingRequest true "New start"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /agendamentos/{id}/reagendar [put]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.RescheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "payload de reagendamento inválido"))
		return
	}
	booking, err := h.service.Reschedule(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Cancel godoc
// @Summary Cancel a future booking
// @Tags Agendamentos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body dto.CancelBookingRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /agendamentos/{id}/cancelar [put]
func (h *BookingHandler) Cancel(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "informe o motivo do cancelamento"))
		return
	}
	booking, err := h.service.Cancel(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Confirm godoc
// @Summary Confirm attendance intent
// @Tags Agendamentos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /agendamentos/{id}/confirmar [put]
func (h *BookingHandler) Confirm(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	booking, err := h.service.Confirm(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// ConfirmByToken godoc
// @Summary Confirm through a signed link
// @Tags Agendamentos
// @Produce json
// @Param token path string true "Signed token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /agendamentos/confirmar-presenca/{token} [put]
func (h *BookingHandler) ConfirmByToken(c *gin.Context) {
	booking, err := h.service.ConfirmByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// MarkDone godoc
// @Summary Mark booking as attended
// @Tags Agendamentos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /agendamentos/{id}/realizado [put]
func (h *BookingHandler) MarkDone(c *gin.Context) {
	h.markAttendance(c, models.BookingRealizado)
}

// MarkNoShow godoc
// @Summary Mark booking as missed
// @Tags Agendamentos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /agendamentos/{id}/faltou [put]
func (h *BookingHandler) MarkNoShow(c *gin.Context) {
	h.markAttendance(c, models.BookingFaltou)
}

func (h *BookingHandler) markAttendance(c *gin.Context, status models.BookingStatus) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	booking, err := h.service.MarkAttendance(c.Request.Context(), actor, c.Param("id"), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Export godoc
// @Summary Export the agenda
// @Tags Agendamentos
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param data_inicio query string true "First day"
// @Param data_fim query string true "Last day"
// @Param formato query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /agendamentos/exportar [get]
func (h *BookingHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var q dto.ExportBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, bindError(err, "parâmetros de exportação inválidos"))
		return
	}
	res, err := h.exporter.Agenda(c.Request.Context(), actor, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, res.Filename, res.ContentType, res.Body)
}
