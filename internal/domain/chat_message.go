package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

const (
	SourceTypeDocument   = "document"
	SourceTypeWebPrimary = "web_primary"
	SourceTypeHybrid     = "hybrid"
	SourceTypeFallback   = "fallback"
)

// SourceRef is the normalized attribution record stored on assistant messages,
// regardless of which source type produced it.
type SourceRef struct {
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	DocumentID string  `json:"document_id,omitempty"`
}

type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// ChatMessage is append-only: rows are never mutated after creation. Seq is
// assigned per session and preserves timestamp order for pagination.
type ChatMessage struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"session_id"`
	DocumentID *uuid.UUID `gorm:"type:uuid;index" json:"document_id,omitempty"`

	Role    string `gorm:"column:role;not null" json:"role"`
	Content string `gorm:"type:text;not null" json:"content"`
	Seq     int64  `gorm:"not null;default:0;index" json:"seq"`

	// Assistant-only fields; zero-valued on user messages.
	Confidence       float64        `gorm:"not null;default:0" json:"confidence,omitempty"`
	SourceType       string         `gorm:"column:source_type" json:"source_type,omitempty"`
	Sources          datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"sources,omitempty"`
	ProcessingTimeMs int64          `gorm:"not null;default:0" json:"processing_time_ms,omitempty"`
	TokenUsage       datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"token_usage,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChatMessage) TableName() string { return "chat_message" }

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
