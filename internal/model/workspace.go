package model

import (
	"time"

	"gorm.io/gorm"
)

// Workspace represents the tenant boundary.
// Every record in the platform belongs to exactly one workspace.
type Workspace struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Plan      string         `json:"plan" gorm:"type:varchar(50);default:'free'"`
	MaxUsers  int            `json:"max_users" gorm:"default:5"`
	Active    bool           `json:"active" gorm:"default:true"`
	Settings  string         `json:"settings" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
