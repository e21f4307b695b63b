package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

type ChatSessionRepo interface {
	Create(dbc dbctx.Context, rows []*types.ChatSession) ([]*types.ChatSession, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatSession, error)
	// GetActive returns the active session for the (documentID, userID) key,
	// nil pointers meaning "no document" / "anonymous". Returns nil when none
	// exists.
	GetActive(dbc dbctx.Context, documentID *uuid.UUID, userID *uuid.UUID) (*types.ChatSession, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type chatSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatSessionRepo(db *gorm.DB, log *logger.Logger) ChatSessionRepo {
	return &chatSessionRepo{db: db, log: log.With("repo", "ChatSessionRepo")}
}

func (r *chatSessionRepo) Create(dbc dbctx.Context, rows []*types.ChatSession) ([]*types.ChatSession, error) {
	if len(rows) == 0 {
		return []*types.ChatSession{}, nil
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

func (r *chatSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatSession, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.ChatSession
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *chatSessionRepo) GetActive(dbc dbctx.Context, documentID *uuid.UUID, userID *uuid.UUID) (*types.ChatSession, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.ChatSession{}).
		Where("is_active = ?", true)
	if documentID != nil && *documentID != uuid.Nil {
		q = q.Where("document_id = ?", *documentID)
	} else {
		q = q.Where("document_id IS NULL")
	}
	if userID != nil && *userID != uuid.Nil {
		q = q.Where("user_id = ?", *userID)
	} else {
		q = q.Where("user_id IS NULL")
	}
	var out types.ChatSession
	if err := q.Order("created_at ASC").Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *chatSessionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing session_id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.ChatSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}
