package db

import (
	"gorm.io/gorm"

	types "github.com/scholardesk/scholardesk-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Documents + derived artifacts
		&types.Document{},
		&types.Citation{},

		// Q&A persistence
		&types.ChatSession{},
		&types.ChatMessage{},

		// Audit trail
		&types.ActivityEvent{},
	)
}
