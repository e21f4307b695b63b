package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scholardesk/scholardesk-backend/internal/services"
)

type HealthHandler struct {
	health services.HealthService
}

func NewHealthHandler(health services.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

// HealthCheck is the cheap liveness endpoint.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// ProcessingHealth probes the database, AI backend and cache.
func (h *HealthHandler) ProcessingHealth(c *gin.Context) {
	status := h.health.Check(c.Request.Context())
	code := http.StatusOK
	if status.Status == services.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
