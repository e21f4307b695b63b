package activity

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

type ActivityEventRepo interface {
	Create(dbc dbctx.Context, rows []*types.ActivityEvent) ([]*types.ActivityEvent, error)
	ListByDocument(dbc dbctx.Context, documentID uuid.UUID, limit int) ([]*types.ActivityEvent, error)
}

type activityEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityEventRepo(db *gorm.DB, log *logger.Logger) ActivityEventRepo {
	return &activityEventRepo{db: db, log: log.With("repo", "ActivityEventRepo")}
}

func (r *activityEventRepo) Create(dbc dbctx.Context, rows []*types.ActivityEvent) ([]*types.ActivityEvent, error) {
	if len(rows) == 0 {
		return []*types.ActivityEvent{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *activityEventRepo) ListByDocument(dbc dbctx.Context, documentID uuid.UUID, limit int) ([]*types.ActivityEvent, error) {
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("missing document_id")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ActivityEvent
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ActivityEvent{}).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
