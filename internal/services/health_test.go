package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scholardesk/scholardesk-backend/internal/config"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

func newHealthSvc(t *testing.T, dbErr, aiErr error) HealthService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cfg := config.ProcessingConfig{HealthTimeout: time.Second}
	return NewHealthService(cfg, &fakePinger{err: dbErr}, &fakeAIClient{healthErr: aiErr}, nil, log)
}

func TestHealthAllUp(t *testing.T) {
	svc := newHealthSvc(t, nil, nil)
	status := svc.Check(context.Background())
	if status.Status != HealthStatusHealthy {
		t.Fatalf("status = %q, want healthy", status.Status)
	}
	if status.Components["database"] != "up" || status.Components["ai_backend"] != "up" {
		t.Fatalf("components = %v", status.Components)
	}
	if status.Components["cache"] != "disabled" {
		t.Fatalf("nil cache should report disabled, got %q", status.Components["cache"])
	}
}

func TestHealthAIDownDegrades(t *testing.T) {
	svc := newHealthSvc(t, nil, errors.New("ai backend unreachable"))
	status := svc.Check(context.Background())
	if status.Status != HealthStatusDegraded {
		t.Fatalf("status = %q, want degraded", status.Status)
	}
}

func TestHealthDBDownIsUnhealthy(t *testing.T) {
	svc := newHealthSvc(t, errors.New("connection refused"), nil)
	status := svc.Check(context.Background())
	if status.Status != HealthStatusUnhealthy {
		t.Fatalf("status = %q, want unhealthy", status.Status)
	}
}
