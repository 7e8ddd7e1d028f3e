package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a named container of ordered messages belonging to one user.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	CreatedAt time.Time `json:"created_at"`

	// Messages are cascade-deleted with the session.
	Messages []Message `gorm:"constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}
