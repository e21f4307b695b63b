package app

import (
	"github.com/scholardesk/scholardesk-backend/internal/config"
	apphttp "github.com/scholardesk/scholardesk-backend/internal/http"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, cfg config.Config, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:             log,
		ServiceName:     "scholardesk-backend",
		CORSOrigins:     cfg.CORSOrigins,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		DocumentHandler: handlers.Document,
		CitationHandler: handlers.Citation,
		QAHandler:       handlers.QA,
	})
}
