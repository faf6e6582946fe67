package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/portal-agenda-api/internal/handler"
	"github.com/noah-isme/portal-agenda-api/internal/middleware"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, Deps{
		Auth: tokenStub{
			"paciente":    {UserID: "pac-1", Role: models.RolePaciente},
			"funcionario": {UserID: "func-1", Role: models.RoleFuncionario},
		},
		RateLimiter:   middleware.NewRateLimiter(middleware.RateLimitConfig{RequestsPerMinute: 60, Burst: 5}),
		AuthH:         handler.NewAuthHandler(nil),
		AvailabilityH: handler.NewAvailabilityHandler(nil),
		BookingH:      handler.NewBookingHandler(nil, nil),
		ScheduleH:     handler.NewScheduleAdminHandler(nil),
		MetricsH:      handler.NewMetricsHandler(nil, nil),
	})
	return r
}

func call(r *gin.Engine, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRegisterMountsRoutes(t *testing.T) {
	r := newTestRouter()
	mounted := map[string]bool{}
	for _, route := range r.Routes() {
		mounted[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/disponibilidade",
		"GET /api/v1/servicos",
		"POST /api/v1/agendamentos",
		"GET /api/v1/agendamentos",
		"GET /api/v1/agendamentos/exportar",
		"GET /api/v1/agendamentos/:id",
		"PUT /api/v1/agendamentos/:id/reagendar",
		"PUT /api/v1/agendamentos/:id/cancelar",
		"PUT /api/v1/agendamentos/:id/confirmar",
		"PUT /api/v1/agendamentos/:id/realizado",
		"PUT /api/v1/agendamentos/:id/faltou",
		"PUT /api/v1/agendamentos/confirmar-presenca/:token",
		"POST /api/v1/admin/janelas",
		"DELETE /api/v1/admin/bloqueios/:id",
		"POST /api/v1/auth/login",
		"GET /health",
		"GET /ready",
		"GET /metrics",
	} {
		assert.True(t, mounted[want], want)
	}
}

func TestRegisterGuardsRoutes(t *testing.T) {
	r := newTestRouter()

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/api/v1/agendamentos", ""))
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v1/agendamentos", "paciente"))
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v1/agendamentos/exportar", "paciente"))
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPut, "/api/v1/agendamentos/bk-1/realizado", "paciente"))
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v1/admin/janelas", "funcionario"))
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodDelete, "/api/v1/admin/bloqueios/b-1", ""))
}
