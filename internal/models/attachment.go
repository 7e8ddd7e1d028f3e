package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is a file uploaded with a message. ParsedContent caches the
// extracted text so context building never re-runs extraction.
type Attachment struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	MessageID     uuid.UUID `gorm:"type:uuid;index" json:"message_id"`
	FileName      string    `gorm:"type:varchar(255)" json:"file_name"`
	StoredPath    string    `gorm:"type:varchar(512)" json:"-"`
	ParsedContent string    `gorm:"type:text" json:"parsed_content,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
