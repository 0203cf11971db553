package service

import (
	"errors"
	"math"
	"time"

	"agentceo/internal/model"
	"agentceo/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// promotionOrder picks the next queued task: priority wins, age breaks ties
const promotionOrder = "CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC, created_at ASC"

// TaskQueue gates task creation against each agent's concurrency cap and
// promotes queued tasks when a slot frees up. All mutations run inside a
// transaction holding the agent row so concurrent creates and completions
// against the same agent serialize instead of racing the capacity check.
type TaskQueue struct {
	db *gorm.DB
}

// NewTaskQueue creates a queue gate bound to a database handle
func NewTaskQueue(db *gorm.DB) *TaskQueue {
	return &TaskQueue{db: db}
}

// CreateTaskInput carries the fields accepted at task creation
type CreateTaskInput struct {
	Title             string
	Description       string
	Type              string
	Priority          model.TicketPriority
	AgentID           uint
	WorkspaceID       uint
	BusinessID        *uint
	ContactID         *uint
	ScheduledFor      *time.Time
	DueDate           *time.Time
	EstimatedDuration *int
	Tags              string
	Input             string
	Context           string
}

// StatusUpdate carries the optional fields of a status transition
type StatusUpdate struct {
	Progress *int
	Output   string
	Error    string
}

// CreateTask inserts a task for the agent, deciding its initial status from
// the agent's capacity. Tasks in queued, pending or in_progress all count as
// active for the check, so a backed-up queue keeps newcomers out of pending.
// When capacity was available the promotion step runs as well; it is inert
// for the task just created (already pending) but will surface an older
// queued task if one exists.
func (q *TaskQueue) CreateTask(in CreateTaskInput) (*model.AgentTask, error) {
	var task model.AgentTask

	err := q.db.Transaction(func(tx *gorm.DB) error {
		var agent model.Agent
		if err := lockAgentRow(tx).
			Where("id = ? AND workspace_id = ?", in.AgentID, in.WorkspaceID).
			First(&agent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAgentNotFound
			}
			return err
		}

		var active int64
		if err := tx.Model(&model.AgentTask{}).
			Where("agent_id = ? AND status IN ?", agent.ID, model.ActiveTaskStatuses).
			Count(&active).Error; err != nil {
			return err
		}

		status := model.TaskPending
		if int(active) >= agent.MaxConcurrentTasks {
			status = model.TaskQueued
		}

		priority := in.Priority
		if priority == "" {
			priority = model.PriorityMedium
		}

		task = model.AgentTask{
			Title:             in.Title,
			Description:       in.Description,
			Type:              in.Type,
			Priority:          priority,
			Status:            status,
			Input:             in.Input,
			Context:           in.Context,
			Tags:              in.Tags,
			ScheduledFor:      in.ScheduledFor,
			DueDate:           in.DueDate,
			EstimatedDuration: in.EstimatedDuration,
			AgentID:           in.AgentID,
			WorkspaceID:       in.WorkspaceID,
			BusinessID:        in.BusinessID,
			ContactID:         in.ContactID,
		}
		if err := tx.Create(&task).Error; err != nil {
			return err
		}

		if status == model.TaskPending {
			return q.promoteNext(tx, agent.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// UpdateTaskStatus moves a task through its lifecycle. StartedAt is stamped on
// the first transition into in_progress; CompletedAt and the rounded
// ActualDuration on completed/failed. Any terminal transition triggers
// promotion for the task's agent inside the same transaction.
func (q *TaskQueue) UpdateTaskStatus(taskID, workspaceID uint, status model.TaskStatus, opts *StatusUpdate) (*model.AgentTask, error) {
	var task model.AgentTask

	err := q.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND workspace_id = ?", taskID, workspaceID).
			First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		// Serialize against creates and other completions for this agent
		var agent model.Agent
		if err := lockAgentRow(tx).First(&agent, task.AgentID).Error; err != nil &&
			!errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		updates := map[string]interface{}{"status": status}

		if status == model.TaskInProgress && task.StartedAt == nil {
			updates["started_at"] = now
		}
		if status == model.TaskCompleted || status == model.TaskFailed {
			updates["completed_at"] = now
			if task.StartedAt != nil {
				updates["actual_duration"] = int(math.Round(now.Sub(*task.StartedAt).Minutes()))
			}
		}
		if opts != nil {
			if opts.Progress != nil {
				updates["progress"] = *opts.Progress
			}
			if opts.Output != "" {
				updates["output"] = opts.Output
			}
			if opts.Error != "" {
				updates["error"] = opts.Error
			}
		}
		if status == model.TaskCompleted && (opts == nil || opts.Progress == nil) {
			updates["progress"] = 100
		}

		if err := tx.Model(&task).Updates(updates).Error; err != nil {
			return err
		}

		if status == model.TaskInProgress {
			if err := tx.Model(&model.Agent{}).Where("id = ?", task.AgentID).
				Updates(map[string]interface{}{"status": model.AgentActive, "last_active_at": now}).Error; err != nil {
				return err
			}
		}

		if status == model.TaskCompleted {
			if err := tx.Model(&model.Agent{}).Where("id = ?", task.AgentID).
				UpdateColumn("tasks_completed", gorm.Expr("tasks_completed + 1")).Error; err != nil {
				return err
			}
		}

		if status.IsTerminal() {
			return q.promoteNext(tx, task.AgentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := q.db.First(&task, task.ID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// promoteNext flips the next eligible queued task to pending. It does not
// re-check capacity: it only runs when a slot has just freed. With nothing
// queued the agent goes idle.
func (q *TaskQueue) promoteNext(tx *gorm.DB, agentID uint) error {
	var next model.AgentTask
	err := tx.Where("agent_id = ? AND status = ?", agentID, model.TaskQueued).
		Order(promotionOrder).
		First(&next).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := time.Now()
			return tx.Model(&model.Agent{}).Where("id = ?", agentID).
				Updates(map[string]interface{}{"status": model.AgentIdle, "last_active_at": now}).Error
		}
		return err
	}

	if err := tx.Model(&next).Update("status", model.TaskPending).Error; err != nil {
		return err
	}
	prometheus.TaskPromotedCounter.Inc()
	return nil
}

// RefreshAgentMetrics recomputes an agent's rolling success rate and average
// response time from its last 100 executions.
func RefreshAgentMetrics(db *gorm.DB, agentID uint) error {
	var executions []model.TaskExecution
	if err := db.Where("agent_id = ?", agentID).
		Order("started_at DESC").
		Limit(100).
		Find(&executions).Error; err != nil {
		return err
	}
	if len(executions) == 0 {
		return nil
	}

	completed := 0
	var totalDurationMs int64
	for _, e := range executions {
		if e.Status == model.TaskCompleted {
			completed++
		}
		totalDurationMs += e.DurationMs
	}

	successRate := float64(completed) / float64(len(executions)) * 100
	avgResponseTime := float64(totalDurationMs) / float64(len(executions)) / 1000

	now := time.Now()
	return db.Model(&model.Agent{}).Where("id = ?", agentID).
		Updates(map[string]interface{}{
			"success_rate":      math.Round(successRate*100) / 100,
			"avg_response_time": math.Round(avgResponseTime*100) / 100,
			"last_active_at":    now,
		}).Error
}

// lockAgentRow adds a row lock where the dialect supports it. SQLite runs a
// single writer per database, so the bare transaction is enough there.
func lockAgentRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
