package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-agenda-api/internal/dto"
	"github.com/noah-isme/portal-agenda-api/internal/middleware"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
	"github.com/noah-isme/portal-agenda-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext builds the service actor from JWT claims. It writes 401 and returns false when absent.
func actorFromContext(c *gin.Context) (dto.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return dto.Actor{}, false
	}
	return dto.Actor{
		UserID:    claims.UserID,
		Role:      string(claims.Role),
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}, true
}

func bindError(err error, message string) error {
	return appErrors.Validation(err, message)
}
