package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	activityrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/activity"
	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/apierr"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

// ActivityService records audit events. Writes never fail the caller: a write
// error is logged and dropped.
type ActivityService interface {
	Log(dbc dbctx.Context, eventType, stage string, userID, documentID *uuid.UUID, detail map[string]interface{})
	ListByDocument(dbc dbctx.Context, documentID uuid.UUID, limit int) ([]*types.ActivityEvent, error)
}

type activityService struct {
	repo activityrepo.ActivityEventRepo
	log  *logger.Logger
}

func NewActivityService(repo activityrepo.ActivityEventRepo, log *logger.Logger) ActivityService {
	return &activityService{repo: repo, log: log.With("service", "ActivityService")}
}

func (s *activityService) Log(dbc dbctx.Context, eventType, stage string, userID, documentID *uuid.UUID, detail map[string]interface{}) {
	payload := datatypes.JSON([]byte("{}"))
	if len(detail) > 0 {
		if raw, err := json.Marshal(detail); err == nil {
			payload = datatypes.JSON(raw)
		} else {
			s.log.Warn("activity detail marshal failed", "event", eventType, "error", err)
		}
	}

	// Events are written outside the caller's transaction so an audit row
	// survives a rolled-back pipeline run.
	_, err := s.repo.Create(dbctx.Context{Ctx: dbc.Ctx}, []*types.ActivityEvent{{
		UserID:     userID,
		DocumentID: documentID,
		Type:       eventType,
		Stage:      stage,
		Detail:     payload,
	}})
	if err != nil {
		s.log.Warn("activity event write failed", "event", eventType, "error", err)
	}
}

// ListByDocument returns the document's audit trail, newest first.
func (s *activityService) ListByDocument(dbc dbctx.Context, documentID uuid.UUID, limit int) ([]*types.ActivityEvent, error) {
	events, err := s.repo.ListByDocument(dbc, documentID, limit)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	return events, nil
}
