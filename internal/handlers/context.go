package handlers

import (
	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/models"
	"github.com/labstack/echo/v4"
)

// currentClaims returns the JWT claims stored by the auth middleware, or nil
// for unauthenticated requests.
func currentClaims(c echo.Context) *models.JwtCustomClaims {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// getUserIDFromContext returns the authenticated user's relational id, or 0
func getUserIDFromContext(c echo.Context) uint {
	if claims := currentClaims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

// getFirebaseUIDFromContext returns the authenticated user's Firebase UID, or ""
func getFirebaseUIDFromContext(c echo.Context) string {
	if claims := currentClaims(c); claims != nil {
		return claims.FirebaseUID
	}
	return ""
}
