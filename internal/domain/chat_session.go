package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatSession groups the Q&A exchange for one (document, user) pair.
// DocumentID is NULL for non-document chat; UserID is NULL for anonymous
// callers. At most one active session per key is handed out by get-or-create.
type ChatSession struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID *uuid.UUID `gorm:"type:uuid;index:idx_chat_session_key" json:"document_id,omitempty"`
	UserID     *uuid.UUID `gorm:"type:uuid;index:idx_chat_session_key" json:"user_id,omitempty"`

	Title        string `gorm:"column:title;not null;default:''" json:"title"`
	MessageCount int    `gorm:"not null;default:0" json:"message_count"`
	IsActive     bool   `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChatSession) TableName() string { return "chat_session" }

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
