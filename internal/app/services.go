package app

import (
	"gorm.io/gorm"

	"github.com/scholardesk/scholardesk-backend/internal/config"
	"github.com/scholardesk/scholardesk-backend/internal/data/cache"
	"github.com/scholardesk/scholardesk-backend/internal/data/db"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
	"github.com/scholardesk/scholardesk-backend/internal/services"
)

type Services struct {
	Activity  services.ActivityService
	Pipeline  services.PipelineService
	Citations services.CitationService
	QA        services.QAService
	Health    services.HealthService
}

func wireServices(
	theDB *gorm.DB,
	pg *db.PostgresService,
	cacheService *cache.Service,
	log *logger.Logger,
	cfg config.Config,
	repos Repos,
	clients Clients,
) Services {
	log.Info("Wiring services...")

	activity := services.NewActivityService(repos.Activity, log)
	citations := services.NewCitationService(theDB, cfg.Processing, clients.AI, repos.Documents, repos.Citations, activity, log)
	pipeline := services.NewPipelineService(theDB, cfg.Processing, clients.AI, clients.Bucket, repos.Documents, citations, activity, log)
	qa := services.NewQAService(theDB, cfg.Processing, clients.Answer, repos.Documents, repos.Sessions, repos.Messages, activity, log)
	health := services.NewHealthService(cfg.Processing, pg, clients.AI, cacheService, log)

	return Services{
		Activity:  activity,
		Pipeline:  pipeline,
		Citations: citations,
		QA:        qa,
		Health:    health,
	}
}
