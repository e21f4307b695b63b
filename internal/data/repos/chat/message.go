package chat

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

type ChatMessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.ChatMessage) ([]*types.ChatMessage, error)
	// ListBySession returns messages in conversation order (seq ASC).
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID, limit, offset int) ([]*types.ChatMessage, error)
	CountBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
	MaxSeq(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, log *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: log.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(dbc dbctx.Context, rows []*types.ChatMessage) ([]*types.ChatMessage, error) {
	if len(rows) == 0 {
		return []*types.ChatMessage{}, nil
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

func (r *chatMessageRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID, limit, offset int) ([]*types.ChatMessage, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ChatMessage
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatMessageRepo) CountBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *chatMessageRepo) MaxSeq(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var max *int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ChatMessage{}).
		Select("MAX(seq)").
		Where("session_id = ?", sessionID).
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}
