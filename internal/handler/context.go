package handler

import (
	"net/http"

	"agentceo/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

// currentUser pulls the authenticated claims set by the auth middleware.
// Returns a ready-to-send error response when the claims are missing.
func currentUser(c echo.Context) (*jwtutil.UserClaims, error) {
	claims, ok := c.Get("user").(*jwtutil.UserClaims)
	if !ok {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if claims.WorkspaceID == 0 {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "workspace context required"})
	}
	return claims, nil
}
