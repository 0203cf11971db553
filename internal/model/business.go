package model

import (
	"time"

	"gorm.io/gorm"
)

// CustomerStage tracks where a business sits in the sales lifecycle
type CustomerStage string

const (
	StageLead     CustomerStage = "lead"
	StageProspect CustomerStage = "prospect"
	StageCustomer CustomerStage = "customer"
)

// Business represents a CRM lead or customer record.
// Created via intake forms or ticket reconciliation; never hard-deleted in the
// normal flows, only moved through lifecycle stages.
type Business struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"type:varchar(255);not null;index"`
	Email          string         `json:"email" gorm:"type:varchar(255);index"`
	Phone          string         `json:"phone" gorm:"type:varchar(50)"`
	Website        string         `json:"website" gorm:"type:varchar(255)"`
	OrgNumber      string         `json:"org_number" gorm:"type:varchar(50)"`
	Notes          string         `json:"notes" gorm:"type:text"`
	PotentialValue float64        `json:"potential_value" gorm:"default:0"`
	Stage          CustomerStage  `json:"stage" gorm:"type:varchar(20);not null;default:'lead';index"`
	WorkspaceID    uint           `json:"workspace_id" gorm:"index;not null"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Contacts []Contact `json:"contacts,omitempty" gorm:"foreignKey:BusinessID"`
}

// Contact represents a person at a business
type Contact struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Email       string         `json:"email" gorm:"type:varchar(255)"`
	Phone       string         `json:"phone" gorm:"type:varchar(50)"`
	BusinessID  uint           `json:"business_id" gorm:"index;not null"`
	WorkspaceID uint           `json:"workspace_id" gorm:"index;not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
