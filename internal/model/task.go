package model

import (
	"time"

	"gorm.io/gorm"
)

// TaskStatus enumerates the task lifecycle.
// queued = waiting for agent capacity, pending = eligible to start immediately.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskPaused     TaskStatus = "paused"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskCancelled  TaskStatus = "cancelled"
)

// TaskPriorityWeight orders priorities for promotion; higher wins
var TaskPriorityWeight = map[TicketPriority]int{
	PriorityUrgent: 4,
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}

// ActiveTaskStatuses are the statuses that count against an agent's
// concurrency cap. Queued tasks count too: a full queue keeps new tasks
// from jumping straight to pending.
var ActiveTaskStatuses = []TaskStatus{TaskQueued, TaskPending, TaskInProgress}

// AgentTask is one unit of work assigned to an agent
type AgentTask struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	Title             string         `json:"title" gorm:"type:varchar(255);not null"`
	Description       string         `json:"description" gorm:"type:text"`
	Type              string         `json:"type" gorm:"type:varchar(50);not null"`
	Priority          TicketPriority `json:"priority" gorm:"type:varchar(20);not null;default:'medium';index"`
	Status            TaskStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Progress          int            `json:"progress" gorm:"default:0"` // 0-100
	Input             string         `json:"input" gorm:"type:jsonb"`
	Context           string         `json:"context" gorm:"type:jsonb"`
	Output            string         `json:"output" gorm:"type:jsonb"`
	Error             string         `json:"error" gorm:"type:text"`
	Tags              string         `json:"tags" gorm:"type:varchar(500)"` // comma-separated
	ScheduledFor      *time.Time     `json:"scheduled_for,omitempty"`
	DueDate           *time.Time     `json:"due_date,omitempty"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	EstimatedDuration *int           `json:"estimated_duration,omitempty"` // minutes
	ActualDuration    *int           `json:"actual_duration,omitempty"`    // minutes, rounded
	AgentID           uint           `json:"agent_id" gorm:"index;not null"`
	WorkspaceID       uint           `json:"workspace_id" gorm:"index;not null"`
	BusinessID        *uint          `json:"business_id,omitempty" gorm:"index"`
	ContactID         *uint          `json:"contact_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Agent      *Agent          `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	Business   *Business       `json:"business,omitempty" gorm:"foreignKey:BusinessID"`
	Executions []TaskExecution `json:"executions,omitempty" gorm:"foreignKey:TaskID"`
}

// IsTerminal reports whether the task has reached a final status
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// TaskExecution logs one run attempt of a task
type TaskExecution struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TaskID      uint           `json:"task_id" gorm:"index;not null"`
	AgentID     uint           `json:"agent_id" gorm:"index;not null"`
	WorkspaceID uint           `json:"workspace_id" gorm:"index;not null"`
	Status      TaskStatus     `json:"status" gorm:"type:varchar(20);not null;default:'in_progress'"`
	Input       string         `json:"input" gorm:"type:jsonb"`
	Output      string         `json:"output" gorm:"type:jsonb"`
	Error       string         `json:"error" gorm:"type:text"`
	TokensUsed  int            `json:"tokens_used" gorm:"default:0"`
	Cost        float64        `json:"cost" gorm:"default:0"`
	DurationMs  int64          `json:"duration_ms" gorm:"default:0"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
