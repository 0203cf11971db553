package model

import (
	"time"

	"gorm.io/gorm"
)

// TicketStatus enumerates the ticket lifecycle
type TicketStatus string

const (
	TicketUnassigned TicketStatus = "unassigned"
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// TicketPriority enumerates ticket urgency levels
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// Ticket represents a support/request record. The submitter fields keep the
// raw intake data even after the ticket is linked to a business.
type Ticket struct {
	ID                   uint           `json:"id" gorm:"primaryKey"`
	Title                string         `json:"title" gorm:"type:varchar(255);not null"`
	Description          string         `json:"description" gorm:"type:text"`
	Status               TicketStatus   `json:"status" gorm:"type:varchar(20);not null;default:'unassigned';index"`
	Priority             TicketPriority `json:"priority" gorm:"type:varchar(20);not null;default:'medium';index"`
	SubmitterName        string         `json:"submitter_name" gorm:"type:varchar(100)"`
	SubmitterEmail       string         `json:"submitter_email" gorm:"type:varchar(255)"`
	SubmittedCompanyName string         `json:"submitted_company_name" gorm:"type:varchar(255)"`
	BusinessID           *uint          `json:"business_id,omitempty" gorm:"index"`
	ContactID            *uint          `json:"contact_id,omitempty" gorm:"index"`
	AssigneeID           *uint          `json:"assignee_id,omitempty" gorm:"index"`
	CreatorID            uint           `json:"creator_id" gorm:"index"`
	WorkspaceID          uint           `json:"workspace_id" gorm:"index;not null"`
	DueDate              *time.Time     `json:"due_date,omitempty"`
	EstimatedTime        *int           `json:"estimated_time,omitempty"` // minutes
	ResolvedAt           *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Business *Business       `json:"business,omitempty" gorm:"foreignKey:BusinessID"`
	Contact  *Contact        `json:"contact,omitempty" gorm:"foreignKey:ContactID"`
	Comments []TicketComment `json:"comments,omitempty" gorm:"foreignKey:TicketID"`
}

// TicketComment is an append-only comment on a ticket, ordered by CreatedAt
type TicketComment struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Content    string         `json:"content" gorm:"type:text;not null"`
	IsInternal bool           `json:"is_internal" gorm:"default:false"`
	AuthorID   uint           `json:"author_id" gorm:"index;not null"`
	TicketID   uint           `json:"ticket_id" gorm:"index;not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsTerminal reports whether the ticket status counts as closed out
func (s TicketStatus) IsTerminal() bool {
	return s == TicketResolved || s == TicketClosed
}
