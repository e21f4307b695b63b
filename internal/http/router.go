package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/scholardesk/scholardesk-backend/internal/http/handlers"
	httpMW "github.com/scholardesk/scholardesk-backend/internal/http/middleware"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	DocumentHandler *httpH.DocumentHandler
	CitationHandler *httpH.CitationHandler
	QAHandler       *httpH.QAHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.RequestLogger(cfg.Log))
	if cfg.AuthMiddleware != nil {
		r.Use(cfg.AuthMiddleware.Identity())
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.HealthHandler != nil {
			api.GET("/processing/health", cfg.HealthHandler.ProcessingHealth)
		}

		// Documents
		if cfg.DocumentHandler != nil {
			api.POST("/documents/:id/process", cfg.DocumentHandler.Process)
			api.GET("/documents/:id/activity", cfg.DocumentHandler.Activity)
		}

		// Citations
		if cfg.CitationHandler != nil {
			api.POST("/citations/extract", cfg.CitationHandler.Extract)
			api.GET("/citations", cfg.CitationHandler.List)
		}

		// Q&A
		if cfg.QAHandler != nil {
			api.POST("/qa/ask", cfg.QAHandler.Ask)
			api.GET("/qa/history", cfg.QAHandler.History)
		}
	}

	return r
}
