package citations

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

// Filter narrows citation listings; zero values mean "no constraint".
type Filter struct {
	DocumentID *uuid.UUID
	UserID     *uuid.UUID
	Type       string
	Limit      int
	Offset     int
}

type CitationRepo interface {
	Create(dbc dbctx.Context, rows []*types.Citation) ([]*types.Citation, error)
	List(dbc dbctx.Context, f Filter) ([]*types.Citation, error)
	CountByDocument(dbc dbctx.Context, documentID uuid.UUID) (int64, error)
	CountByTypeForDocument(dbc dbctx.Context, documentID uuid.UUID) (map[string]int64, error)
	DeleteByDocument(dbc dbctx.Context, documentID uuid.UUID) error
}

type citationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCitationRepo(db *gorm.DB, log *logger.Logger) CitationRepo {
	return &citationRepo{db: db, log: log.With("repo", "CitationRepo")}
}

func (r *citationRepo) Create(dbc dbctx.Context, rows []*types.Citation) ([]*types.Citation, error) {
	if len(rows) == 0 {
		return []*types.Citation{}, nil
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

func (r *citationRepo) List(dbc dbctx.Context, f Filter) ([]*types.Citation, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).Model(&types.Citation{})
	if f.DocumentID != nil && *f.DocumentID != uuid.Nil {
		q = q.Where("document_id = ?", *f.DocumentID)
	}
	if f.UserID != nil && *f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	var out []*types.Citation
	if err := q.Order("created_at ASC, id ASC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *citationRepo) CountByDocument(dbc dbctx.Context, documentID uuid.UUID) (int64, error) {
	if documentID == uuid.Nil {
		return 0, fmt.Errorf("missing document_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Citation{}).
		Where("document_id = ?", documentID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *citationRepo) CountByTypeForDocument(dbc dbctx.Context, documentID uuid.UUID) (map[string]int64, error) {
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("missing document_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	type row struct {
		Type string
		N    int64
	}
	var rows []row
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Citation{}).
		Select("type, COUNT(*) AS n").
		Where("document_id = ?", documentID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Type] = r.N
	}
	return out, nil
}

// DeleteByDocument removes the full citation set for a document. Reprocessing
// relies on this running in the same transaction as the replacement insert.
func (r *citationRepo) DeleteByDocument(dbc dbctx.Context, documentID uuid.UUID) error {
	if documentID == uuid.Nil {
		return fmt.Errorf("missing document_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Unscoped().
		Where("document_id = ?", documentID).
		Delete(&types.Citation{}).Error
}
