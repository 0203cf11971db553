package handler

import (
	"net/http"

	"agentceo/pkg/database"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports service and database health
func HealthCheck(c echo.Context) error {
	dbStatus := "up"
	sqlDB, err := database.GetDB().DB()
	if err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}

	status := http.StatusOK
	if dbStatus == "down" {
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, echo.Map{
		"status":   "ok",
		"database": dbStatus,
	})
}
