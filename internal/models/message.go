package models

import (
	"time"

	"github.com/google/uuid"
)

// Message senders.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Message content types.
const (
	ContentTypeText     = "text"
	ContentTypeMarkdown = "markdown"
	ContentTypeImageURL = "image_url"
	ContentTypeFile     = "file"
)

// Message statuses. A message is mutable only while it is generating;
// every stream leaves its message in exactly one of the terminal statuses.
const (
	StatusCompleted   = "completed"
	StatusGenerating  = "generating"
	StatusInterrupted = "interrupted"
	StatusError       = "error"
)

// Message is one turn in a conversation. Within a session messages are
// totally ordered by (created_at, id); the id breaks ties when two rows
// land on the same millisecond.
type Message struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SessionID   uuid.UUID `gorm:"type:uuid;index" json:"session_id"`
	Sender      string    `gorm:"type:varchar(10);check:sender IN ('user', 'ai')" json:"sender"`
	ContentType string    `gorm:"type:varchar(20);default:'text'" json:"content_type"`
	Content     string    `gorm:"type:text" json:"content"`

	// ReasoningContent holds the thinking trace of reasoner models.
	ReasoningContent string `gorm:"type:text" json:"reasoning_content,omitempty"`

	// ParsedContent is the legacy single-file extraction field, kept for
	// rows created before multi-attachment support. New uploads use Files.
	ParsedContent string `gorm:"type:text" json:"parsed_content,omitempty"`

	Status    string    `gorm:"type:varchar(20);default:'completed'" json:"status"`
	CreatedAt time.Time `json:"created_at"`

	Files []Attachment `gorm:"constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

// RoleForAPI maps the stored sender onto the role the completion API expects.
func (m *Message) RoleForAPI() string {
	if m.Sender == SenderAI {
		return "assistant"
	}
	return "user"
}
