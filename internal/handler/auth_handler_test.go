package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-agenda-api/internal/middleware"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
)

type authServiceMock struct {
	loginErr error
	last     models.LoginRequest
}

func (m *authServiceMock) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.last = req
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &models.LoginResponse{AccessToken: "token", ExpiresIn: 3600}, nil
}

func (m *authServiceMock) Me(_ context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID, FullName: "Ana"}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceMock{}
	h := NewAuthHandler(svc)
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := do(r, http.MethodPost, "/auth/login", `{"email":"ana@clinica.com","password":"senha123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"token"`)
	assert.Equal(t, "handler-test", svc.last.UserAgent)

	svc.loginErr = appErrors.ErrPendingAuthorization
	w = do(r, http.MethodPost, "/auth/login", `{"email":"ana@clinica.com","password":"senha123"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/auth/login", `{"email":`).Code)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&authServiceMock{})
	r := gin.New()
	r.GET("/anon", h.Me)
	r.GET("/me", func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1"})
		c.Next()
	}, h.Me)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/anon", "").Code)
	w := do(r, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)
}
