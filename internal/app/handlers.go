package app

import (
	"github.com/scholardesk/scholardesk-backend/internal/config"
	httpH "github.com/scholardesk/scholardesk-backend/internal/http/handlers"
	httpMW "github.com/scholardesk/scholardesk-backend/internal/http/middleware"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Document *httpH.DocumentHandler
	Citation *httpH.CitationHandler
	QA       *httpH.QAHandler
}

func wireHandlers(log *logger.Logger, svcs Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(svcs.Health),
		Document: httpH.NewDocumentHandler(log, svcs.Pipeline, svcs.Activity),
		Citation: httpH.NewCitationHandler(log, svcs.Citations),
		QA:       httpH.NewQAHandler(log, svcs.QA),
	}
}

func wireMiddleware(log *logger.Logger, cfg config.Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}
