package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CitationTypeBook       = "book"
	CitationTypeArticle    = "article"
	CitationTypeWebsite    = "website"
	CitationTypeJournal    = "journal"
	CitationTypeConference = "conference"
	CitationTypeThesis     = "thesis"
	CitationTypeOther      = "other"
)

// Citation is a structured bibliographic record extracted from a document.
// The formatted_* columns are precomputed at normalization time and never
// rewritten afterwards.
type Citation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Type    string         `gorm:"column:type;not null;default:'other';index" json:"type"`
	Title   string         `gorm:"type:text;not null" json:"title"`
	Authors datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"authors"`
	Year    *int           `gorm:"column:year" json:"year,omitempty"`

	Journal   string `gorm:"column:journal" json:"journal,omitempty"`
	Volume    string `gorm:"column:volume" json:"volume,omitempty"`
	Issue     string `gorm:"column:issue" json:"issue,omitempty"`
	Pages     string `gorm:"column:pages" json:"pages,omitempty"`
	Publisher string `gorm:"column:publisher" json:"publisher,omitempty"`
	DOI       string `gorm:"column:doi" json:"doi,omitempty"`
	URL       string `gorm:"column:url" json:"url,omitempty"`
	ISBN      string `gorm:"column:isbn" json:"isbn,omitempty"`
	Abstract  string `gorm:"type:text" json:"abstract,omitempty"`

	Confidence    float64 `gorm:"not null;default:0" json:"confidence"`
	Context       string  `gorm:"type:text" json:"context,omitempty"`
	ExtractedFrom string  `gorm:"column:extracted_from" json:"extracted_from"`

	FormattedAPA     string `gorm:"column:formatted_apa;type:text" json:"formatted_apa"`
	FormattedMLA     string `gorm:"column:formatted_mla;type:text" json:"formatted_mla"`
	FormattedIEEE    string `gorm:"column:formatted_ieee;type:text" json:"formatted_ieee"`
	FormattedChicago string `gorm:"column:formatted_chicago;type:text" json:"formatted_chicago"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Citation) TableName() string { return "citation" }

func (c *Citation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
