package model

import (
	"time"

	"gorm.io/gorm"
)

// AgentType enumerates the AI worker specializations
type AgentType string

const (
	AgentCEO        AgentType = "ceo"
	AgentSales      AgentType = "sales"
	AgentMarketing  AgentType = "marketing"
	AgentOperations AgentType = "operations"
	AgentAnalytics  AgentType = "analytics"
)

// AgentStatus enumerates agent availability states
type AgentStatus string

const (
	AgentIdle        AgentStatus = "idle"
	AgentActive      AgentStatus = "active"
	AgentBusy        AgentStatus = "busy"
	AgentMaintenance AgentStatus = "maintenance"
	AgentOffline     AgentStatus = "offline"
)

// Agent represents an AI worker definition. Performance fields are rolling
// metrics recomputed from recent executions.
type Agent struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Name               string         `json:"name" gorm:"type:varchar(100);not null"`
	Type               AgentType      `json:"type" gorm:"type:varchar(20);not null"`
	Specialization     string         `json:"specialization" gorm:"type:text"`
	Model              string         `json:"model" gorm:"type:varchar(100)"`
	Avatar             string         `json:"avatar" gorm:"type:varchar(50)"`
	MaxConcurrentTasks int            `json:"max_concurrent_tasks" gorm:"not null;default:3"`
	Status             AgentStatus    `json:"status" gorm:"type:varchar(20);not null;default:'idle';index"`
	TasksCompleted     int            `json:"tasks_completed" gorm:"default:0"`
	SuccessRate        float64        `json:"success_rate" gorm:"default:0"`
	AvgResponseTime    float64        `json:"avg_response_time" gorm:"default:0"` // seconds
	LastActiveAt       *time.Time     `json:"last_active_at,omitempty"`
	WorkspaceID        uint           `json:"workspace_id" gorm:"index;not null"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Tasks []AgentTask `json:"tasks,omitempty" gorm:"foreignKey:AgentID"`
}

// AgentCapabilities lists the skills offered per agent type
var AgentCapabilities = map[AgentType][]string{
	AgentCEO: {
		"Strategic Planning & Roadmapping",
		"Market Analysis & Competitive Intelligence",
		"Business Model Innovation",
		"Investment & Growth Strategy",
		"Risk Assessment & Management",
		"Executive Decision Support",
	},
	AgentSales: {
		"Lead Generation & Qualification",
		"Sales Process Optimization",
		"Revenue Forecasting & Analytics",
		"Pipeline Management",
		"Customer Relationship Building",
	},
	AgentMarketing: {
		"Content Strategy & Creation",
		"Brand Positioning & Messaging",
		"Digital Marketing Campaigns",
		"Customer Segmentation",
		"Campaign Optimization",
	},
	AgentOperations: {
		"Process Automation & Optimization",
		"Resource Allocation & Planning",
		"Cost Reduction Strategies",
		"Workflow Optimization",
		"System Integration",
	},
	AgentAnalytics: {
		"Data Processing & Analysis",
		"Business Intelligence Reporting",
		"Predictive Analytics",
		"Trend Analysis & Forecasting",
		"Insight Generation",
	},
}
