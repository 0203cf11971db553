package model

import (
	"time"

	"gorm.io/gorm"
)

// WorkflowExecutionStatus enumerates execution outcomes
type WorkflowExecutionStatus string

const (
	ExecutionRunning   WorkflowExecutionStatus = "running"
	ExecutionCompleted WorkflowExecutionStatus = "completed"
	ExecutionFailed    WorkflowExecutionStatus = "failed"
)

// Workflow is an automation hook backed by an n8n workflow or webhook
type Workflow struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"type:varchar(255);not null"`
	Description   string         `json:"description" gorm:"type:text"`
	Type          string         `json:"type" gorm:"type:varchar(50)"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	N8NWorkflowID string         `json:"n8n_workflow_id" gorm:"type:varchar(100)"`
	WebhookPath   string         `json:"webhook_path" gorm:"type:varchar(255)"`
	TriggerCount  int            `json:"trigger_count" gorm:"default:0"`
	SuccessCount  int            `json:"success_count" gorm:"default:0"`
	FailureCount  int            `json:"failure_count" gorm:"default:0"`
	WorkspaceID   uint           `json:"workspace_id" gorm:"index;not null"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// WorkflowExecution records one attempt to run a workflow
type WorkflowExecution struct {
	ID             uint                    `json:"id" gorm:"primaryKey"`
	WorkflowID     uint                    `json:"workflow_id" gorm:"index;not null"`
	WorkspaceID    uint                    `json:"workspace_id" gorm:"index;not null"`
	Status         WorkflowExecutionStatus `json:"status" gorm:"type:varchar(20);not null;default:'running'"`
	TriggerData    string                  `json:"trigger_data" gorm:"type:jsonb"`
	Result         string                  `json:"result" gorm:"type:jsonb"`
	Error          string                  `json:"error" gorm:"type:text"`
	N8NExecutionID string                  `json:"n8n_execution_id" gorm:"type:varchar(100)"`
	StartedAt      time.Time               `json:"started_at"`
	CompletedAt    *time.Time              `json:"completed_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	DeletedAt      gorm.DeletedAt          `json:"-" gorm:"index"`
}

// WebhookLog records one outbound call to the automation service
type WebhookLog struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	WorkflowID     uint           `json:"workflow_id" gorm:"index;not null"`
	WorkspaceID    uint           `json:"workspace_id" gorm:"index;not null"`
	URL            string         `json:"url" gorm:"type:varchar(500)"`
	Payload        string         `json:"payload" gorm:"type:jsonb"`
	ResponseStatus int            `json:"response_status"`
	ResponseBody   string         `json:"response_body" gorm:"type:text"`
	Error          string         `json:"error" gorm:"type:text"`
	DurationMs     int64          `json:"duration_ms" gorm:"default:0"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}
