package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents the user model stored in the database
type User struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Email         string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password      string         `json:"-" gorm:"type:varchar(255)"`
	Name          string         `json:"name" gorm:"type:varchar(100)"`
	WorkspaceID   uint           `json:"workspace_id" gorm:"index;not null"`
	WorkspaceRole string         `json:"workspace_role" gorm:"type:varchar(50);not null;default:'member'"` // 'owner', 'admin', 'member'
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Workspace Workspace `json:"workspace,omitempty" gorm:"foreignKey:WorkspaceID"`
}
