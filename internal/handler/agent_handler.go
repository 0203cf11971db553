package handler

import (
	"net/http"
	"strconv"
	"time"

	"agentceo/internal/model"
	"agentceo/pkg/database"
	"agentceo/pkg/logger"
	"agentceo/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListAgents retrieves workspace agents with their active task counts
func ListAgents(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	db := database.GetDB()

	var agents []model.Agent
	if result := db.Where("workspace_id = ?", claims.WorkspaceID).Find(&agents); result.Error != nil {
		log.Error("Failed to retrieve agents", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve agents"})
	}

	type agentCount struct {
		AgentID uint
		Count   int64
	}
	var counts []agentCount
	db.Model(&model.AgentTask{}).
		Select("agent_id, COUNT(*) AS count").
		Where("workspace_id = ? AND status IN ?", claims.WorkspaceID, model.ActiveTaskStatuses).
		Group("agent_id").
		Scan(&counts)

	countsByAgent := make(map[uint]int64, len(counts))
	for _, ac := range counts {
		countsByAgent[ac.AgentID] = ac.Count
	}

	// The gauge tracks queued work only, not everything counting against
	// the concurrency cap
	var queuedCounts []agentCount
	db.Model(&model.AgentTask{}).
		Select("agent_id, COUNT(*) AS count").
		Where("workspace_id = ? AND status = ?", claims.WorkspaceID, model.TaskQueued).
		Group("agent_id").
		Scan(&queuedCounts)
	queuedByAgent := make(map[uint]int64, len(queuedCounts))
	for _, ac := range queuedCounts {
		queuedByAgent[ac.AgentID] = ac.Count
	}

	out := make([]echo.Map, 0, len(agents))
	for _, agent := range agents {
		prometheus.UpdateQueueDepth(agent.ID, int(queuedByAgent[agent.ID]))
		out = append(out, echo.Map{
			"agent":        agent,
			"active_tasks": countsByAgent[agent.ID],
		})
	}

	return c.JSON(http.StatusOK, out)
}

// GetAgent retrieves one agent
func GetAgent(c echo.Context) error {
	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent ID"})
	}

	var agent model.Agent
	result := database.GetDB().Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&agent)
	if result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("agent")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "agent not found"})
	}

	return c.JSON(http.StatusOK, agent)
}

// CreateAgent registers a new AI worker in the workspace
func CreateAgent(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var req struct {
		Name               string `json:"name"`
		Type               string `json:"type"`
		Specialization     string `json:"specialization"`
		Model              string `json:"model"`
		Avatar             string `json:"avatar"`
		MaxConcurrentTasks int    `json:"max_concurrent_tasks"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse agent creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Type == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and type are required"})
	}
	agentType := model.AgentType(req.Type)
	if _, ok := model.AgentCapabilities[agentType]; !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown agent type"})
	}

	maxTasks := req.MaxConcurrentTasks
	if maxTasks <= 0 {
		maxTasks = 3
	}

	agent := model.Agent{
		Name:               req.Name,
		Type:               agentType,
		Specialization:     req.Specialization,
		Model:              req.Model,
		Avatar:             req.Avatar,
		MaxConcurrentTasks: maxTasks,
		Status:             model.AgentIdle,
		WorkspaceID:        claims.WorkspaceID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&agent); result.Error != nil {
		log.Error("Failed to create agent", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "agent creation failed"})
	}

	log.Info("Agent created",
		zap.String("name", agent.Name),
		zap.String("type", string(agent.Type)),
		zap.Uint("workspace_id", agent.WorkspaceID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "agent created successfully",
		"agent":   agent,
	})
}

// UpdateAgent patches agent fields after workspace verification
func UpdateAgent(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent ID"})
	}

	var agent model.Agent
	result := database.GetDB().Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&agent)
	if result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("agent")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "agent not found"})
	}

	var req map[string]interface{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	for key, value := range req {
		switch key {
		case "name", "specialization", "model", "avatar", "max_concurrent_tasks":
			updates[key] = value
		}
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no updatable fields provided"})
	}

	if result := database.GetDB().Model(&agent).Updates(updates); result.Error != nil {
		log.Error("Failed to update agent", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "agent update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "agent updated successfully",
		"agent":   agent,
	})
}

// UpdateAgentStatus sets the agent availability state
func UpdateAgentStatus(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	var agent model.Agent
	db := database.GetDB()
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&agent); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("agent")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "agent not found"})
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":         model.AgentStatus(req.Status),
		"last_active_at": &now,
	}
	if result := db.Model(&agent).Updates(updates); result.Error != nil {
		log.Error("Failed to update agent status", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "agent status updated",
		"agent":   agent,
	})
}

// DeleteAgent removes an agent, cancelling its unfinished tasks first
func DeleteAgent(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent ID"})
	}

	db := database.GetDB()

	var agent model.Agent
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&agent); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("agent")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "agent not found"})
	}

	result := db.Model(&model.AgentTask{}).
		Where("agent_id = ? AND status NOT IN ?", agent.ID,
			[]model.TaskStatus{model.TaskCompleted, model.TaskFailed, model.TaskCancelled}).
		Update("status", model.TaskCancelled)
	if result.Error != nil {
		log.Error("Failed to cancel agent tasks", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "agent deletion failed"})
	}

	if result := db.Delete(&agent); result.Error != nil {
		log.Error("Failed to delete agent", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "agent deletion failed"})
	}

	log.Info("Agent deleted",
		zap.Uint("agent_id", agent.ID),
		zap.Int64("cancelled_tasks", result.RowsAffected))

	return c.JSON(http.StatusOK, echo.Map{"message": "agent deleted successfully"})
}

// AgentPerformance summarizes recent task outcomes for one agent.
// Timeframe is day, week or month; week is the default.
func AgentPerformance(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent ID"})
	}

	db := database.GetDB()

	var agent model.Agent
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&agent); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("agent")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "agent not found"})
	}

	since := time.Now()
	switch c.QueryParam("timeframe") {
	case "day":
		since = since.AddDate(0, 0, -1)
	case "month":
		since = since.AddDate(0, -1, 0)
	default:
		since = since.AddDate(0, 0, -7)
	}

	base := func() *gorm.DB {
		return db.Model(&model.AgentTask{}).
			Where("agent_id = ? AND created_at >= ?", agent.ID, since)
	}

	var total, completed, failed int64
	base().Count(&total)
	base().Where("status = ?", model.TaskCompleted).Count(&completed)
	base().Where("status = ?", model.TaskFailed).Count(&failed)

	var successRate, failureRate float64
	finished := completed + failed
	if finished > 0 {
		successRate = roundTo(float64(completed)/float64(finished)*100, 2)
		failureRate = roundTo(float64(failed)/float64(finished)*100, 2)
	}

	type durationRow struct {
		Avg float64
	}
	var dur durationRow
	base().Select("COALESCE(AVG(actual_duration), 0) AS avg").
		Where("actual_duration IS NOT NULL").
		Scan(&dur)

	var recentExecutions []model.TaskExecution
	result := db.Where("agent_id = ? AND started_at >= ?", agent.ID, since).
		Order("started_at DESC").
		Limit(10).
		Find(&recentExecutions)
	if result.Error != nil {
		log.Error("Failed to load recent executions", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "performance query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"agent_id":             agent.ID,
		"timeframe_start":      since,
		"total_tasks":          total,
		"completed_tasks":      completed,
		"failed_tasks":         failed,
		"success_rate":         successRate,
		"failure_rate":         failureRate,
		"avg_duration_minutes": roundTo(dur.Avg, 2),
		"recent_executions":    recentExecutions,
	})
}

// AgentCapabilityList returns the skill catalogue per agent type
func AgentCapabilityList(c echo.Context) error {
	if claims, err := currentUser(c); claims == nil {
		return err
	}

	return c.JSON(http.StatusOK, model.AgentCapabilities)
}
