package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
	DocumentStatusFailed     = "failed"
)

// DocumentSummary is the jsonb payload produced by the summarization stage.
type DocumentSummary struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Abstract    string   `json:"abstract"`
	KeyFindings []string `json:"key_findings"`
	Methodology string   `json:"methodology"`
	Conclusions string   `json:"conclusions"`
	Keywords    []string `json:"keywords"`
	Confidence  float64  `json:"confidence"`
}

type Document struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	FileName   string `gorm:"column:file_name;not null" json:"file_name"`
	MimeType   string `gorm:"column:mime_type" json:"mime_type"`
	StorageKey string `gorm:"column:storage_key" json:"storage_key"`

	Status string `gorm:"column:status;not null;default:'uploaded';index" json:"status"`

	ExtractedText string         `gorm:"type:text" json:"extracted_text,omitempty"`
	Summary       datatypes.JSON `gorm:"type:jsonb" json:"summary,omitempty"`
	Keywords      datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"keywords"`
	Topics        datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"topics"`

	// Denormalized citation summary, kept in step with the citation table by
	// the pipeline and the citation service.
	CitationCount int            `gorm:"not null;default:0" json:"citation_count"`
	CitationTypes datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"citation_types"`

	ConfidenceScore  float64 `gorm:"not null;default:0" json:"confidence_score"`
	ProcessingTimeMs int64   `gorm:"not null;default:0" json:"processing_time_ms"`
	WordCount        int     `gorm:"not null;default:0" json:"word_count"`
	Language         string  `gorm:"column:language" json:"language"`
	ErrorMessage     string  `gorm:"column:error_message" json:"error_message,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
