package model

import (
	"time"

	"gorm.io/gorm"
)

// EmailProvider stores one user's connected email account. Tokens come from
// the external mail auth collaborator; the platform only keeps them.
type EmailProvider struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Provider     string         `json:"provider" gorm:"type:varchar(20);not null"` // 'google' or 'microsoft'
	Email        string         `json:"email" gorm:"type:varchar(255);not null"`
	AccessToken  string         `json:"-" gorm:"type:text"`
	RefreshToken string         `json:"-" gorm:"type:text"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
	UserID       uint           `json:"user_id" gorm:"uniqueIndex;not null"` // one provider per user
	WorkspaceID  uint           `json:"workspace_id" gorm:"index;not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsExpired checks if the stored access token is past its expiry
func (p *EmailProvider) IsExpired() bool {
	return p.ExpiresAt != nil && time.Now().After(*p.ExpiresAt)
}
