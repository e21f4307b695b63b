package app

import (
	"gorm.io/gorm"

	activityrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/activity"
	chatrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/chat"
	citationrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/citations"
	documentrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/documents"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

type Repos struct {
	Documents documentrepo.DocumentRepo
	Citations citationrepo.CitationRepo
	Sessions  chatrepo.ChatSessionRepo
	Messages  chatrepo.ChatMessageRepo
	Activity  activityrepo.ActivityEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Documents: documentrepo.NewDocumentRepo(db, log),
		Citations: citationrepo.NewCitationRepo(db, log),
		Sessions:  chatrepo.NewChatSessionRepo(db, log),
		Messages:  chatrepo.NewChatMessageRepo(db, log),
		Activity:  activityrepo.NewActivityEventRepo(db, log),
	}
}
