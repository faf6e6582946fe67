// Package router mounts the HTTP routes of the agenda API.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/handler"
	"github.com/noah-isme/portal-agenda-api/internal/middleware"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	"github.com/noah-isme/portal-agenda-api/internal/service"
)

// Deps are the handlers and cross-cutting collaborators the routes need.
type Deps struct {
	APIPrefix     string
	EnableDocs    bool
	Auth          middleware.TokenValidator
	Audit         middleware.AuditWriter
	RateLimiter   *middleware.RateLimiter
	Metrics       *service.MetricsService
	Logger        *zap.Logger
	AuthH         *handler.AuthHandler
	AvailabilityH *handler.AvailabilityHandler
	BookingH      *handler.BookingHandler
	ScheduleH     *handler.ScheduleAdminHandler
	MetricsH      *handler.MetricsHandler
}

// Register mounts ops endpoints at the root and the API under APIPrefix.
func Register(r *gin.Engine, d Deps) {
	r.Use(middleware.Metrics(d.Metrics))

	r.GET("/health", d.MetricsH.Health)
	r.GET("/ready", d.MetricsH.Ready)
	r.GET("/metrics", d.MetricsH.Prometheus)
	if d.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := d.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	jwt := middleware.JWT(d.Auth)
	staff := middleware.RequireStaff()
	admin := middleware.RequireRoles(models.RoleAdmin)
	limited := func(c *gin.Context) { c.Next() }
	if d.RateLimiter != nil {
		limited = d.RateLimiter.Middleware()
	}

	api.POST("/auth/login", limited, d.AuthH.Login)
	api.GET("/auth/me", jwt, d.AuthH.Me)

	api.GET("/disponibilidade", d.AvailabilityH.Slots)
	api.GET("/servicos", d.AvailabilityH.Services)

	bookings := api.Group("/agendamentos")
	bookings.PUT("/confirmar-presenca/:token", limited, d.BookingH.ConfirmByToken)
	bookings.Use(jwt)
	bookings.POST("", limited, d.BookingH.Create)
	bookings.GET("", staff, middleware.Audit(d.Audit, d.Logger, models.AuditActionAgendaView, "agendamentos"), d.BookingH.List)
	bookings.GET("/exportar", staff, d.BookingH.Export)
	bookings.GET("/:id", d.BookingH.Get)
	bookings.PUT("/:id/reagendar", d.BookingH.Reschedule)
	bookings.PUT("/:id/cancelar", d.BookingH.Cancel)
	bookings.PUT("/:id/confirmar", d.BookingH.Confirm)
	bookings.PUT("/:id/realizado", staff, d.BookingH.MarkDone)
	bookings.PUT("/:id/faltou", staff, d.BookingH.MarkNoShow)

	adminGroup := api.Group("/admin", jwt, admin)
	adminGroup.GET("/janelas", d.ScheduleH.ListWindows)
	adminGroup.POST("/janelas", d.ScheduleH.CreateWindow)
	adminGroup.PUT("/janelas/:id", d.ScheduleH.UpdateWindow)
	adminGroup.DELETE("/janelas/:id", d.ScheduleH.DeleteWindow)
	adminGroup.GET("/bloqueios", d.ScheduleH.ListBlackouts)
	adminGroup.POST("/bloqueios", d.ScheduleH.CreateBlackout)
	adminGroup.DELETE("/bloqueios/:id", d.ScheduleH.DeleteBlackout)
	adminGroup.GET("/metricas", d.MetricsH.Snapshot)
}
