package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/scholardesk/scholardesk-backend/internal/clients/ai"
	"github.com/scholardesk/scholardesk-backend/internal/config"
	"github.com/scholardesk/scholardesk-backend/internal/data/cache"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

// DBPinger is the slice of the postgres service the health probe needs.
type DBPinger interface {
	Ping(ctx context.Context) error
}

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"
)

const readinessCacheKey = "health:readiness"

type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// HealthService probes the database, the AI backend and the cache. The
// aggregate is unhealthy only when the database is down; AI or cache outages
// degrade. Results are cached briefly so health polling does not hammer the
// AI backend.
type HealthService interface {
	Check(ctx context.Context) HealthStatus
}

type healthService struct {
	cfg      config.ProcessingConfig
	database DBPinger
	aiClient ai.Client
	cache    *cache.Service
	log      *logger.Logger
}

func NewHealthService(
	cfg config.ProcessingConfig,
	database DBPinger,
	aiClient ai.Client,
	cacheService *cache.Service,
	log *logger.Logger,
) HealthService {
	return &healthService{
		cfg:      cfg,
		database: database,
		aiClient: aiClient,
		cache:    cacheService,
		log:      log.With("service", "HealthService"),
	}
}

func (s *healthService) Check(ctx context.Context) HealthStatus {
	if raw, ok := s.cache.Get(ctx, readinessCacheKey); ok {
		var cached HealthStatus
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached
		}
	}

	timeout := s.cfg.HealthTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	components := map[string]string{}

	dbUp := true
	if err := s.database.Ping(probeCtx); err != nil {
		dbUp = false
		components["database"] = "down: " + err.Error()
		s.log.Error("database health probe failed", "error", err)
	} else {
		components["database"] = "up"
	}

	aiUp := true
	if err := s.aiClient.Health(probeCtx); err != nil {
		aiUp = false
		components["ai_backend"] = "down: " + err.Error()
		s.log.Warn("AI backend health probe failed", "error", err)
	} else {
		components["ai_backend"] = "up"
	}

	cacheUp := true
	if s.cache == nil {
		components["cache"] = "disabled"
	} else if err := s.cache.Ping(probeCtx); err != nil {
		cacheUp = false
		components["cache"] = "down: " + err.Error()
		s.log.Warn("cache health probe failed", "error", err)
	} else {
		components["cache"] = "up"
	}

	status := HealthStatusHealthy
	switch {
	case !dbUp:
		status = HealthStatusUnhealthy
	case !aiUp || !cacheUp:
		status = HealthStatusDegraded
	}

	result := HealthStatus{
		Status:     status,
		Components: components,
		CheckedAt:  time.Now().UTC(),
	}

	if ttl := s.cfg.ReadinessCacheTTL; ttl > 0 {
		if status == HealthStatusUnhealthy {
			// Never serve a cached unhealthy verdict: recovery must be visible
			// on the next probe, and any stale healthy entry goes with it.
			s.cache.Delete(ctx, readinessCacheKey)
		} else if raw, err := json.Marshal(result); err == nil {
			s.cache.Set(ctx, readinessCacheKey, string(raw), ttl)
		}
	}
	return result
}
