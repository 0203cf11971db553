package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"agentceo/internal/model"
	"agentceo/internal/service"
	"agentceo/pkg/database"
	"agentceo/pkg/logger"
	"agentceo/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var taskQueue *service.TaskQueue

// InitTaskHandler wires the queue gate used by the task endpoints
func InitTaskHandler(q *service.TaskQueue) {
	taskQueue = q
}

// taskListOrder matches the promotion ranking so listings show the queue the
// way the gate will drain it
const taskListOrder = "CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC, created_at DESC"

// CreateTask submits a task through the capacity gate
func CreateTask(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var req struct {
		Title             string     `json:"title"`
		Description       string     `json:"description"`
		Type              string     `json:"type"`
		Priority          string     `json:"priority"`
		AgentID           uint       `json:"agent_id"`
		BusinessID        *uint      `json:"business_id"`
		ContactID         *uint      `json:"contact_id"`
		ScheduledFor      *time.Time `json:"scheduled_for"`
		DueDate           *time.Time `json:"due_date"`
		EstimatedDuration *int       `json:"estimated_duration"`
		Tags              string     `json:"tags"`
		Input             string     `json:"input"`
		Context           string     `json:"context"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse task creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Title == "" || req.Type == "" || req.AgentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, type and agent_id are required"})
	}

	task, err := taskQueue.CreateTask(service.CreateTaskInput{
		Title:             req.Title,
		Description:       req.Description,
		Type:              req.Type,
		Priority:          model.TicketPriority(req.Priority),
		AgentID:           req.AgentID,
		WorkspaceID:       claims.WorkspaceID,
		BusinessID:        req.BusinessID,
		ContactID:         req.ContactID,
		ScheduledFor:      req.ScheduledFor,
		DueDate:           req.DueDate,
		EstimatedDuration: req.EstimatedDuration,
		Tags:              req.Tags,
		Input:             req.Input,
		Context:           req.Context,
	})
	if err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			prometheus.RecordCrossWorkspaceDenied("agent")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "agent not found"})
		}
		log.Error("Failed to create task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "task creation failed"})
	}

	prometheus.RecordTaskOperation("create")
	if task.Status == model.TaskQueued {
		prometheus.TaskQueuedCounter.Inc()
	}

	log.Info("Task created",
		zap.Uint("id", task.ID),
		zap.Uint("agent_id", task.AgentID),
		zap.String("status", string(task.Status)),
		zap.Uint("workspace_id", claims.WorkspaceID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "task created successfully",
		"task":    task,
	})
}

// ListTasks retrieves workspace tasks in promotion order with paging
func ListTasks(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	query := database.GetDB().Where("workspace_id = ?", claims.WorkspaceID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if taskType := c.QueryParam("type"); taskType != "" {
		query = query.Where("type = ?", taskType)
	}
	if priority := c.QueryParam("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if agentID := c.QueryParam("agent_id"); agentID != "" {
		query = query.Where("agent_id = ?", agentID)
	}

	limit := 50
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o > 0 {
		offset = o
	}

	var tasks []model.AgentTask
	result := query.Preload("Agent").
		Order(taskListOrder).
		Limit(limit).
		Offset(offset).
		Find(&tasks)
	if result.Error != nil {
		log.Error("Failed to retrieve tasks", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tasks"})
	}

	return c.JSON(http.StatusOK, tasks)
}

// GetTask retrieves one task with its most recent execution
func GetTask(c echo.Context) error {
	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	var task model.AgentTask
	result := database.GetDB().
		Preload("Agent").
		Preload("Business").
		Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).
		First(&task)
	if result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("task")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	var latest model.TaskExecution
	execErr := database.GetDB().
		Where("task_id = ?", task.ID).
		Order("started_at DESC").
		First(&latest).Error

	response := echo.Map{"task": task}
	if execErr == nil {
		response["latest_execution"] = latest
	}

	return c.JSON(http.StatusOK, response)
}

// transitionTask runs a queue-gate status change and maps its errors
func transitionTask(c echo.Context, status model.TaskStatus, opts *service.StatusUpdate) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	task, err := taskQueue.UpdateTaskStatus(uint(id), claims.WorkspaceID, status, opts)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			prometheus.RecordCrossWorkspaceDenied("task")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		log.Error("Failed to update task status",
			zap.Uint64("task_id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "task status update failed"})
	}

	prometheus.RecordTaskOperation(string(status))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "task status updated",
		"task":    task,
	})
}

// UpdateTaskStatus changes a task's status with optional progress and output
func UpdateTaskStatus(c echo.Context) error {
	var req struct {
		Status   string `json:"status"`
		Progress *int   `json:"progress"`
		Output   string `json:"output"`
		Error    string `json:"error"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	return transitionTask(c, model.TaskStatus(req.Status), &service.StatusUpdate{
		Progress: req.Progress,
		Output:   req.Output,
		Error:    req.Error,
	})
}

// StartTask moves a task to in_progress
func StartTask(c echo.Context) error {
	return transitionTask(c, model.TaskInProgress, nil)
}

// PauseTask moves a task to paused
func PauseTask(c echo.Context) error {
	return transitionTask(c, model.TaskPaused, nil)
}

// CompleteTask finishes a task, recording its output when provided
func CompleteTask(c echo.Context) error {
	var req struct {
		Output string `json:"output"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	return transitionTask(c, model.TaskCompleted, &service.StatusUpdate{Output: req.Output})
}

// CancelTask cancels a task
func CancelTask(c echo.Context) error {
	return transitionTask(c, model.TaskCancelled, nil)
}

// DeleteTask removes a task after workspace verification
func DeleteTask(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	db := database.GetDB()

	var task model.AgentTask
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&task); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("task")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	if result := db.Delete(&task); result.Error != nil {
		log.Error("Failed to delete task", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "task deletion failed"})
	}
	prometheus.RecordTaskOperation("delete")

	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted successfully"})
}

// BulkDeleteTasks removes several tasks scoped to the workspace
func BulkDeleteTasks(c echo.Context) error {
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
		Delete(&model.AgentTask{})
	if result.Error != nil {
		log.Error("Failed to bulk delete tasks", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bulk deletion failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "tasks deleted",
		"count":   result.RowsAffected,
	})
}

// TaskStats summarizes workspace task volumes and outcomes
func TaskStats(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	db := database.GetDB()
	base := func() *gorm.DB {
		return db.Model(&model.AgentTask{}).Where("workspace_id = ?", claims.WorkspaceID)
	}

	var total, active, completed, failed int64
	base().Count(&total)
	base().Where("status IN ?", model.ActiveTaskStatuses).Count(&active)
	base().Where("status = ?", model.TaskCompleted).Count(&completed)
	base().Where("status = ?", model.TaskFailed).Count(&failed)

	var successRate float64
	if completed+failed > 0 {
		successRate = roundTo(float64(completed)/float64(completed+failed)*100, 2)
	}

	type avgRow struct {
		Avg float64
	}
	var dur avgRow
	base().Select("COALESCE(AVG(actual_duration), 0) AS avg").
		Where("actual_duration IS NOT NULL").
		Scan(&dur)

	type agentRow struct {
		AgentID uint
		Name    string
		Count   int64
	}
	var top agentRow
	err = db.Model(&model.AgentTask{}).
		Select("agent_tasks.agent_id, agents.name, COUNT(*) AS count").
		Joins("JOIN agents ON agents.id = agent_tasks.agent_id").
		Where("agent_tasks.workspace_id = ? AND agent_tasks.status = ?", claims.WorkspaceID, model.TaskCompleted).
		Group("agent_tasks.agent_id, agents.name").
		Order("count DESC").
		Limit(1).
		Scan(&top).Error
	if err != nil {
		log.Error("Failed to compute top agent", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats query failed"})
	}

	response := echo.Map{
		"total_tasks":            total,
		"active_tasks":           active,
		"completed_tasks":        completed,
		"failed_tasks":           failed,
		"success_rate":           successRate,
		"avg_completion_minutes": roundTo(dur.Avg, 2),
	}
	if top.AgentID != 0 {
		response["top_agent"] = echo.Map{
			"agent_id":        top.AgentID,
			"name":            top.Name,
			"completed_tasks": top.Count,
		}
	}

	return c.JSON(http.StatusOK, response)
}

// StartTaskExecution opens an execution record and moves the task to
// in_progress
func StartTaskExecution(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	var req struct {
		Input string `json:"input"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	db := database.GetDB()

	var task model.AgentTask
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&task); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("task")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	if _, err := taskQueue.UpdateTaskStatus(task.ID, claims.WorkspaceID, model.TaskInProgress, nil); err != nil {
		log.Error("Failed to start task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "execution start failed"})
	}

	execution := model.TaskExecution{
		TaskID:      task.ID,
		AgentID:     task.AgentID,
		WorkspaceID: claims.WorkspaceID,
		Status:      model.TaskInProgress,
		Input:       req.Input,
		StartedAt:   time.Now(),
	}
	if result := db.Create(&execution); result.Error != nil {
		log.Error("Failed to create execution", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "execution start failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "execution started",
		"execution": execution,
	})
}

// FinishTaskExecution closes an execution, mirrors the outcome onto the task
// and refreshes the agent's rolling metrics
func FinishTaskExecution(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid execution ID"})
	}

	var req struct {
		Status     string  `json:"status"`
		Output     string  `json:"output"`
		Error      string  `json:"error"`
		TokensUsed int     `json:"tokens_used"`
		Cost       float64 `json:"cost"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	status := model.TaskStatus(req.Status)
	if status != model.TaskCompleted && status != model.TaskFailed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be completed or failed"})
	}

	db := database.GetDB()

	var execution model.TaskExecution
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&execution); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("execution")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "execution not found"})
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       status,
		"output":       req.Output,
		"error":        req.Error,
		"tokens_used":  req.TokensUsed,
		"cost":         req.Cost,
		"completed_at": &now,
		"duration_ms":  now.Sub(execution.StartedAt).Milliseconds(),
	}
	if result := db.Model(&execution).Updates(updates); result.Error != nil {
		log.Error("Failed to finish execution", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "execution update failed"})
	}

	opts := &service.StatusUpdate{Output: req.Output, Error: req.Error}
	if _, err := taskQueue.UpdateTaskStatus(execution.TaskID, claims.WorkspaceID, status, opts); err != nil &&
		!errors.Is(err, service.ErrTaskNotFound) {
		log.Error("Failed to mirror execution outcome onto task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "execution update failed"})
	}

	if err := service.RefreshAgentMetrics(db, execution.AgentID); err != nil {
		log.Warn("Failed to refresh agent metrics", zap.Uint("agent_id", execution.AgentID), zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":   "execution finished",
		"execution": execution,
	})
}
