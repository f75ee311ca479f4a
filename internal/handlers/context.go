package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/ferrohaus/dwelling/backend/internal/models"
)

// claimsFromContext returns the JWT claims the auth middleware stored,
// or nil for an unauthenticated request.
func claimsFromContext(c echo.Context) *models.JwtCustomClaims {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}
