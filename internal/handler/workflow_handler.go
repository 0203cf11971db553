package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"agentceo/internal/model"
	"agentceo/pkg/database"
	"agentceo/pkg/logger"
	"agentceo/pkg/n8n"
	"agentceo/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var n8nClient *n8n.Client

// InitWorkflowHandler wires the n8n automation client
func InitWorkflowHandler(client *n8n.Client) {
	n8nClient = client
}

// CreateWorkflow registers an automation hook
func CreateWorkflow(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var req struct {
		Name          string `json:"name"`
		Description   string `json:"description"`
		Type          string `json:"type"`
		N8NWorkflowID string `json:"n8n_workflow_id"`
		WebhookPath   string `json:"webhook_path"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.N8NWorkflowID == "" && req.WebhookPath == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "n8n_workflow_id or webhook_path is required"})
	}

	workflow := model.Workflow{
		Name:          req.Name,
		Description:   req.Description,
		Type:          req.Type,
		Status:        "active",
		N8NWorkflowID: req.N8NWorkflowID,
		WebhookPath:   req.WebhookPath,
		WorkspaceID:   claims.WorkspaceID,
	}
	if result := database.GetDB().Create(&workflow); result.Error != nil {
		log.Error("Failed to create workflow", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "workflow creation failed"})
	}

	log.Info("Workflow created",
		zap.String("name", workflow.Name),
		zap.Uint("workspace_id", claims.WorkspaceID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "workflow created successfully",
		"workflow": workflow,
	})
}

// ListWorkflows retrieves workspace workflows
func ListWorkflows(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var workflows []model.Workflow
	result := database.GetDB().
		Where("workspace_id = ?", claims.WorkspaceID).
		Order("created_at DESC").
		Find(&workflows)
	if result.Error != nil {
		log.Error("Failed to retrieve workflows", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve workflows"})
	}

	return c.JSON(http.StatusOK, workflows)
}

// GetWorkflow retrieves one workflow
func GetWorkflow(c echo.Context) error {
	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workflow ID"})
	}

	var workflow model.Workflow
	result := database.GetDB().Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&workflow)
	if result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("workflow")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workflow not found"})
	}

	return c.JSON(http.StatusOK, workflow)
}

// DeleteWorkflow removes a workflow after workspace verification
func DeleteWorkflow(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workflow ID"})
	}

	db := database.GetDB()

	var workflow model.Workflow
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&workflow); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("workflow")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workflow not found"})
	}

	if result := db.Delete(&workflow); result.Error != nil {
		log.Error("Failed to delete workflow", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "workflow deletion failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "workflow deleted successfully"})
}

// ExecuteWorkflow fires the workflow's n8n hook. The call is best effort: a
// failed n8n round trip is recorded and reported inside a 200 envelope, never
// as a request failure.
func ExecuteWorkflow(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workflow ID"})
	}

	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		payload = map[string]interface{}{}
	}

	db := database.GetDB()

	var workflow model.Workflow
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&workflow); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("workflow")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workflow not found"})
	}

	triggerData, _ := json.Marshal(payload)
	execution := model.WorkflowExecution{
		WorkflowID:  workflow.ID,
		WorkspaceID: claims.WorkspaceID,
		Status:      model.ExecutionRunning,
		TriggerData: string(triggerData),
		StartedAt:   time.Now(),
	}
	if result := db.Create(&execution); result.Error != nil {
		log.Error("Failed to create workflow execution", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "execution failed"})
	}

	var callResult *n8n.WebhookResult
	var url string
	if workflow.WebhookPath != "" {
		url = n8nClient.WebhookURL(workflow.WebhookPath)
		callResult = n8nClient.TriggerWebhook(workflow.WebhookPath, payload)
	} else {
		url = workflow.N8NWorkflowID
		callResult = n8nClient.ExecuteWorkflow(workflow.N8NWorkflowID, payload)
	}
	prometheus.RecordWebhookCall(callResult.Success, callResult.Duration)

	webhookLog := model.WebhookLog{
		WorkflowID:     workflow.ID,
		WorkspaceID:    claims.WorkspaceID,
		URL:            url,
		Payload:        string(triggerData),
		ResponseStatus: callResult.StatusCode,
		ResponseBody:   callResult.ResponseBody,
		Error:          callResult.Error,
		DurationMs:     callResult.Duration.Milliseconds(),
	}
	if err := db.Create(&webhookLog).Error; err != nil {
		log.Warn("Failed to record webhook log", zap.Error(err))
	}

	now := time.Now()
	executionUpdates := map[string]interface{}{"completed_at": &now}
	workflowUpdates := map[string]interface{}{"trigger_count": gorm.Expr("trigger_count + 1")}
	if callResult.Success {
		executionUpdates["status"] = model.ExecutionCompleted
		executionUpdates["result"] = callResult.ResponseBody
		executionUpdates["n8n_execution_id"] = callResult.ExecutionID
		workflowUpdates["success_count"] = gorm.Expr("success_count + 1")
	} else {
		executionUpdates["status"] = model.ExecutionFailed
		executionUpdates["error"] = callResult.Error
		workflowUpdates["failure_count"] = gorm.Expr("failure_count + 1")
		log.Warn("Workflow call failed",
			zap.Uint("workflow_id", workflow.ID),
			zap.String("reason", callResult.Error))
	}
	if err := db.Model(&execution).Updates(executionUpdates).Error; err != nil {
		log.Error("Failed to finalize execution", zap.Error(err))
	}
	if err := db.Model(&workflow).Updates(workflowUpdates).Error; err != nil {
		log.Error("Failed to update workflow counters", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":      callResult.Success,
		"execution_id": execution.ID,
		"error":        callResult.Error,
	})
}

// ListWorkflowExecutions retrieves recent executions for one workflow
func ListWorkflowExecutions(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workflow ID"})
	}

	var count int64
	database.GetDB().Model(&model.Workflow{}).
		Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).
		Count(&count)
	if count == 0 {
		prometheus.RecordCrossWorkspaceDenied("workflow")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workflow not found"})
	}

	var executions []model.WorkflowExecution
	result := database.GetDB().
		Where("workflow_id = ?", id).
		Order("started_at DESC").
		Limit(20).
		Find(&executions)
	if result.Error != nil {
		log.Error("Failed to retrieve executions", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve executions"})
	}

	return c.JSON(http.StatusOK, executions)
}

// WorkflowStats summarizes automation activity for the workspace
func WorkflowStats(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	db := database.GetDB()

	var totalWorkflows, totalExecutions, completed, failed int64
	db.Model(&model.Workflow{}).Where("workspace_id = ?", claims.WorkspaceID).Count(&totalWorkflows)

	execBase := func() *gorm.DB {
		return db.Model(&model.WorkflowExecution{}).Where("workspace_id = ?", claims.WorkspaceID)
	}
	execBase().Count(&totalExecutions)
	execBase().Where("status = ?", model.ExecutionCompleted).Count(&completed)
	execBase().Where("status = ?", model.ExecutionFailed).Count(&failed)

	var successRate float64
	if completed+failed > 0 {
		successRate = roundTo(float64(completed)/float64(completed+failed)*100, 2)
	}

	type avgRow struct {
		Avg float64
	}
	var dur avgRow
	err = db.Model(&model.WebhookLog{}).
		Select("COALESCE(AVG(duration_ms), 0) AS avg").
		Where("workspace_id = ?", claims.WorkspaceID).
		Scan(&dur).Error
	if err != nil {
		log.Error("Failed to compute webhook durations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_workflows":      totalWorkflows,
		"total_executions":     totalExecutions,
		"completed_executions": completed,
		"failed_executions":    failed,
		"success_rate":         successRate,
		"avg_duration_ms":      roundTo(dur.Avg, 0),
	})
}
