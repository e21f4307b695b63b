package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/scholardesk/scholardesk-backend/internal/clients/ai"
	"github.com/scholardesk/scholardesk-backend/internal/config"
	citationrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/citations"
	documentrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/documents"
	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/apierr"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/citeformat"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

const (
	ExportFormatBibTeX = "bibtex"
	ExportFormatRIS    = "ris"
)

type ExtractBatchInput struct {
	DocumentIDs []uuid.UUID
	Reprocess   bool
	UserID      uuid.UUID
}

// ExtractBatchEntry is the per-document outcome of a batch run.
type ExtractBatchEntry struct {
	DocumentID    uuid.UUID         `json:"document_id"`
	Skipped       bool              `json:"skipped"`
	Reason        string            `json:"reason,omitempty"`
	CitationCount int               `json:"citation_count"`
	Citations     []*types.Citation `json:"citations,omitempty"`
}

type BatchError struct {
	DocumentID uuid.UUID `json:"document_id"`
	Message    string    `json:"message"`
}

type ExtractBatchResult struct {
	Results []ExtractBatchEntry `json:"results"`
	Errors  []BatchError        `json:"errors"`
}

type ListCitationsResult struct {
	Citations []*types.Citation `json:"citations"`
	HasMore   bool              `json:"has_more"`
}

// CitationService extracts, normalizes and serves citations. One failing
// document never aborts the rest of a batch.
type CitationService interface {
	ExtractBatch(dbc dbctx.Context, input ExtractBatchInput) (ExtractBatchResult, error)
	// SaveExtracted normalizes raw records and replaces or appends the
	// document's citation set inside the caller's transaction. Returns the
	// stored rows and the per-type counts.
	SaveExtracted(dbc dbctx.Context, doc *types.Document, records []ai.CitationRecord, replace bool) ([]*types.Citation, map[string]int64, error)
	List(dbc dbctx.Context, filter citationrepo.Filter) (ListCitationsResult, error)
	Export(dbc dbctx.Context, filter citationrepo.Filter, format string) (string, error)
}

type citationService struct {
	db       *gorm.DB
	cfg      config.ProcessingConfig
	aiClient ai.Client
	docs     documentrepo.DocumentRepo
	cites    citationrepo.CitationRepo
	activity ActivityService
	log      *logger.Logger
}

func NewCitationService(
	db *gorm.DB,
	cfg config.ProcessingConfig,
	aiClient ai.Client,
	docs documentrepo.DocumentRepo,
	cites citationrepo.CitationRepo,
	activity ActivityService,
	log *logger.Logger,
) CitationService {
	return &citationService{
		db:       db,
		cfg:      cfg,
		aiClient: aiClient,
		docs:     docs,
		cites:    cites,
		activity: activity,
		log:      log.With("service", "CitationService"),
	}
}

func (s *citationService) ExtractBatch(dbc dbctx.Context, input ExtractBatchInput) (ExtractBatchResult, error) {
	maxBatch := s.cfg.CitationBatchMax
	if maxBatch <= 0 {
		maxBatch = 5
	}
	if len(input.DocumentIDs) == 0 {
		return ExtractBatchResult{}, apierr.Validation("document_ids_required", fmt.Errorf("document_ids must not be empty"))
	}
	if len(input.DocumentIDs) > maxBatch {
		return ExtractBatchResult{}, apierr.Validation("batch_too_large",
			fmt.Errorf("batch of %d exceeds maximum of %d documents", len(input.DocumentIDs), maxBatch))
	}

	docs, err := s.docs.GetByIDs(dbc, input.DocumentIDs)
	if err != nil {
		return ExtractBatchResult{}, apierr.Persistence(err)
	}
	byID := make(map[uuid.UUID]*types.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	var (
		mu      sync.Mutex
		results []ExtractBatchEntry
		failed  []BatchError
	)

	g, gctx := errgroup.WithContext(dbc.Ctx)
	for _, id := range input.DocumentIDs {
		docID := id
		g.Go(func() error {
			var entry ExtractBatchEntry
			var err error
			if doc := byID[docID]; doc == nil {
				err = apierr.NotFound("document_not_found", fmt.Errorf("document %s not found", docID))
			} else {
				entry, err = s.extractOne(dbctx.Context{Ctx: gctx}, doc, input)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, BatchError{DocumentID: docID, Message: err.Error()})
				return nil
			}
			results = append(results, entry)
			return nil
		})
	}
	// Workers report per-document failures through the errors slice, never
	// through the group.
	_ = g.Wait()

	return ExtractBatchResult{Results: results, Errors: failed}, nil
}

func (s *citationService) extractOne(dbc dbctx.Context, doc *types.Document, input ExtractBatchInput) (ExtractBatchEntry, error) {
	docID := doc.ID
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return ExtractBatchEntry{}, apierr.Validation("document_has_no_text",
			fmt.Errorf("document %s has no extracted text", docID))
	}

	existing, err := s.cites.CountByDocument(dbc, docID)
	if err != nil {
		return ExtractBatchEntry{}, apierr.Persistence(err)
	}
	if existing > 0 && !input.Reprocess {
		return ExtractBatchEntry{
			DocumentID:    docID,
			Skipped:       true,
			Reason:        "citations already extracted",
			CitationCount: int(existing),
		}, nil
	}

	ctx := dbc.Ctx
	if s.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StageTimeout)
		defer cancel()
	}
	records, err := s.aiClient.ExtractCitations(ctx, doc.ExtractedText)
	if err != nil {
		return ExtractBatchEntry{}, apierr.Unavailable(fmt.Errorf("citation extraction for %s: %w", docID, err))
	}

	var stored []*types.Citation
	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		rows, _, saveErr := s.SaveExtracted(txc, doc, records, input.Reprocess)
		if saveErr != nil {
			return saveErr
		}
		stored = rows
		return s.updateDocumentCitationSummary(txc, doc.ID)
	})
	if err != nil {
		return ExtractBatchEntry{}, apierr.Persistence(err)
	}

	userID := input.UserID
	var userRef *uuid.UUID
	if userID != uuid.Nil {
		userRef = &userID
	}
	s.activity.Log(dbc, types.EventCitationsExtracted, "", userRef, &doc.ID, map[string]interface{}{
		"citation_count": len(stored),
		"reprocess":      input.Reprocess,
	})

	return ExtractBatchEntry{
		DocumentID:    docID,
		CitationCount: len(stored),
		Citations:     stored,
	}, nil
}

func (s *citationService) SaveExtracted(dbc dbctx.Context, doc *types.Document, records []ai.CitationRecord, replace bool) ([]*types.Citation, map[string]int64, error) {
	if replace {
		if err := s.cites.DeleteByDocument(dbc, doc.ID); err != nil {
			return nil, nil, err
		}
	}

	rows := make([]*types.Citation, 0, len(records))
	typeCounts := map[string]int64{}
	for _, rec := range records {
		c := normalizeCitation(rec, doc)
		if c == nil {
			continue
		}
		rows = append(rows, c)
		typeCounts[c.Type]++
	}
	if len(rows) > 0 {
		if _, err := s.cites.Create(dbc, rows); err != nil {
			return nil, nil, err
		}
	}
	return rows, typeCounts, nil
}

// updateDocumentCitationSummary recomputes the denormalized counters from the
// citation table inside the caller's transaction, so they cannot drift from
// the stored rows.
func (s *citationService) updateDocumentCitationSummary(dbc dbctx.Context, docID uuid.UUID) error {
	typeCounts, err := s.cites.CountByTypeForDocument(dbc, docID)
	if err != nil {
		return err
	}
	var total int64
	for _, n := range typeCounts {
		total += n
	}
	raw, err := json.Marshal(typeCounts)
	if err != nil {
		return err
	}
	return s.docs.UpdateFields(dbc, docID, map[string]interface{}{
		"citation_count": total,
		"citation_types": datatypes.JSON(raw),
	})
}

// normalizeCitation maps one raw record onto the canonical entity. Records
// without a title are dropped; unknown types collapse to "other". Formatted
// strings are computed here, once.
func normalizeCitation(rec ai.CitationRecord, doc *types.Document) *types.Citation {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return nil
	}

	authors := make([]string, 0, len(rec.Authors))
	for _, a := range rec.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	authorsJSON, _ := json.Marshal(authors)

	inline := citeformat.Format(citeformat.Fields{
		Type:      normalizeCitationType(rec.Type),
		Title:     title,
		Authors:   authors,
		Year:      rec.Year,
		Journal:   strings.TrimSpace(rec.Journal),
		Volume:    strings.TrimSpace(rec.Volume),
		Issue:     strings.TrimSpace(rec.Issue),
		Pages:     strings.TrimSpace(rec.Pages),
		Publisher: strings.TrimSpace(rec.Publisher),
		DOI:       strings.TrimSpace(rec.DOI),
		URL:       strings.TrimSpace(rec.URL),
		ISBN:      strings.TrimSpace(rec.ISBN),
	})

	confidence := rec.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &types.Citation{
		DocumentID:       doc.ID,
		UserID:           doc.UserID,
		Type:             normalizeCitationType(rec.Type),
		Title:            title,
		Authors:          datatypes.JSON(authorsJSON),
		Year:             rec.Year,
		Journal:          strings.TrimSpace(rec.Journal),
		Volume:           strings.TrimSpace(rec.Volume),
		Issue:            strings.TrimSpace(rec.Issue),
		Pages:            strings.TrimSpace(rec.Pages),
		Publisher:        strings.TrimSpace(rec.Publisher),
		DOI:              strings.TrimSpace(rec.DOI),
		URL:              strings.TrimSpace(rec.URL),
		ISBN:             strings.TrimSpace(rec.ISBN),
		Abstract:         strings.TrimSpace(rec.Abstract),
		Confidence:       confidence,
		Context:          strings.TrimSpace(rec.Context),
		ExtractedFrom:    doc.FileName,
		FormattedAPA:     inline.APA,
		FormattedMLA:     inline.MLA,
		FormattedIEEE:    inline.IEEE,
		FormattedChicago: inline.Chicago,
	}
}

func normalizeCitationType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case types.CitationTypeBook:
		return types.CitationTypeBook
	case types.CitationTypeArticle:
		return types.CitationTypeArticle
	case types.CitationTypeWebsite:
		return types.CitationTypeWebsite
	case types.CitationTypeJournal:
		return types.CitationTypeJournal
	case types.CitationTypeConference:
		return types.CitationTypeConference
	case types.CitationTypeThesis:
		return types.CitationTypeThesis
	default:
		return types.CitationTypeOther
	}
}

func (s *citationService) List(dbc dbctx.Context, filter citationrepo.Filter) (ListCitationsResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	rows, err := s.cites.List(dbc, filter)
	if err != nil {
		return ListCitationsResult{}, apierr.Persistence(err)
	}
	return ListCitationsResult{
		Citations: rows,
		HasMore:   len(rows) == filter.Limit,
	}, nil
}

func (s *citationService) Export(dbc dbctx.Context, filter citationrepo.Filter, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != ExportFormatBibTeX && format != ExportFormatRIS {
		return "", apierr.Validation("unsupported_export_format",
			fmt.Errorf("unsupported export format %q", format))
	}

	// Exports cover the full filtered set, not one page.
	filter.Limit = 500
	filter.Offset = 0
	rows, err := s.cites.List(dbc, filter)
	if err != nil {
		return "", apierr.Persistence(err)
	}

	fields := make([]citeformat.Fields, 0, len(rows))
	for _, c := range rows {
		fields = append(fields, citationFields(c))
	}

	if format == ExportFormatBibTeX {
		return citeformat.BibTeX(fields), nil
	}
	return citeformat.RIS(fields), nil
}

func citationFields(c *types.Citation) citeformat.Fields {
	var authors []string
	if len(c.Authors) > 0 {
		_ = json.Unmarshal(c.Authors, &authors)
	}
	return citeformat.Fields{
		Type:      c.Type,
		Title:     c.Title,
		Authors:   authors,
		Year:      c.Year,
		Journal:   c.Journal,
		Volume:    c.Volume,
		Issue:     c.Issue,
		Pages:     c.Pages,
		Publisher: c.Publisher,
		DOI:       c.DOI,
		URL:       c.URL,
		ISBN:      c.ISBN,
	}
}
