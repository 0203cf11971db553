package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"agentceo/internal/model"
	"agentceo/pkg/database"
	"agentceo/pkg/logger"
	"agentceo/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// businessRequest holds the fields accepted on create and update
type businessRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Website        string  `json:"website"`
	OrgNumber      string  `json:"org_number"`
	Notes          string  `json:"notes"`
	PotentialValue float64 `json:"potential_value"`
	Stage          string  `json:"stage"`
}

// ListBusinesses retrieves workspace businesses, optionally filtered by stage
func ListBusinesses(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	query := database.GetDB().Where("workspace_id = ?", claims.WorkspaceID)
	if stage := c.QueryParam("stage"); stage != "" {
		query = query.Where("stage = ?", stage)
	}

	var businesses []model.Business
	if result := query.Order("created_at DESC").Find(&businesses); result.Error != nil {
		log.Error("Failed to retrieve businesses", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve businesses"})
	}

	return c.JSON(http.StatusOK, businesses)
}

// GetBusiness retrieves one business with its contacts
func GetBusiness(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid business ID"})
	}

	var business model.Business
	result := database.GetDB().Preload("Contacts").
		Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).
		First(&business)
	if result.Error != nil {
		log.Warn("Business not found in workspace",
			zap.Uint64("id", id),
			zap.Uint("workspace_id", claims.WorkspaceID))
		prometheus.RecordCrossWorkspaceDenied("business")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "business not found"})
	}

	return c.JSON(http.StatusOK, business)
}

// CreateBusiness creates a business record in the caller's workspace
func CreateBusiness(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var req businessRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse business creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	stage := model.CustomerStage(req.Stage)
	if stage == "" {
		stage = model.StageLead
	}

	business := model.Business{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Website:        req.Website,
		OrgNumber:      req.OrgNumber,
		Notes:          req.Notes,
		PotentialValue: req.PotentialValue,
		Stage:          stage,
		WorkspaceID:    claims.WorkspaceID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&business); result.Error != nil {
		log.Error("Failed to create business", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "business creation failed"})
	}

	log.Info("Business created",
		zap.String("name", business.Name),
		zap.Uint("id", business.ID),
		zap.Uint("workspace_id", business.WorkspaceID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "business created successfully",
		"business": business,
	})
}

// UpdateBusiness patches a business record after workspace verification
func UpdateBusiness(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid business ID"})
	}

	var business model.Business
	result := database.GetDB().Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&business)
	if result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("business")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "business not found"})
	}

	var req map[string]interface{}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse business update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Field names arrive in JSON form; workspace and identity stay fixed
	updates := map[string]interface{}{}
	for key, value := range req {
		switch key {
		case "name", "email", "phone", "website", "org_number", "notes", "potential_value", "stage":
			updates[key] = value
		}
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no updatable fields provided"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(&business).Updates(updates); result.Error != nil {
		log.Error("Failed to update business", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "business update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "business updated successfully",
		"business": business,
	})
}

// ConvertToCustomer moves a lead to the customer stage
func ConvertToCustomer(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid business ID"})
	}

	var business model.Business
	result := database.GetDB().Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&business)
	if result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("business")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "business not found"})
	}

	var req struct {
		Notes          string  `json:"notes"`
		PotentialValue float64 `json:"potential_value"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{"stage": model.StageCustomer}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if req.PotentialValue > 0 {
		updates["potential_value"] = req.PotentialValue
	}

	if result := database.GetDB().Model(&business).Updates(updates); result.Error != nil {
		log.Error("Failed to convert lead", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "conversion failed"})
	}

	log.Info("Lead converted to customer",
		zap.Uint("business_id", business.ID),
		zap.Uint("workspace_id", claims.WorkspaceID))

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "lead converted to customer",
		"business": business,
	})
}

// DeleteBusiness removes a business after workspace verification
func DeleteBusiness(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid business ID"})
	}

	var business model.Business
	result := database.GetDB().Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&business)
	if result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("business")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "business not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().Delete(&business); result.Error != nil {
		log.Error("Failed to delete business", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "business deletion failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "business deleted successfully"})
}

// BulkDeleteBusinesses removes several businesses, skipping any outside the workspace
func BulkDeleteBusinesses(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.Bind(&req); err != nil || len(req.IDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ids are required"})
	}

	result := database.GetDB().
		Where("id IN ? AND workspace_id = ?", req.IDs, claims.WorkspaceID).
		Delete(&model.Business{})
	if result.Error != nil {
		log.Error("Failed to bulk delete businesses", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bulk deletion failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "businesses deleted",
		"count":   result.RowsAffected,
	})
}

// SearchBusinesses finds workspace businesses matching a name or email query
func SearchBusinesses(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	query := strings.TrimSpace(c.QueryParam("q"))
	if len(query) < 2 {
		return c.JSON(http.StatusOK, []model.Business{})
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var businesses []model.Business
	result := database.GetDB().
		Select("id", "name", "email", "org_number").
		Where("workspace_id = ?", claims.WorkspaceID).
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Limit(10).
		Find(&businesses)
	if result.Error != nil {
		log.Error("Business search failed", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}

	return c.JSON(http.StatusOK, businesses)
}
