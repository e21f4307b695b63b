package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventProcessingStarted   = "processing_started"
	EventProcessingCompleted = "processing_completed"
	EventProcessingFailed    = "processing_failed"
	EventStageDegraded       = "stage_degraded"
	EventCitationsExtracted  = "citations_extracted"
	EventQuestionAnswered    = "question_answered"
	EventAnswerFallback      = "answer_fallback"
)

// ActivityEvent is the append-only audit record. It is an observer, not
// control flow: a failed insert is logged and swallowed.
type ActivityEvent struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	DocumentID *uuid.UUID `gorm:"type:uuid;index" json:"document_id,omitempty"`

	Type   string         `gorm:"column:type;not null;index" json:"type"`
	Stage  string         `gorm:"column:stage" json:"stage,omitempty"`
	Detail datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"detail"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ActivityEvent) TableName() string { return "activity_event" }

func (e *ActivityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
