package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/scholardesk/scholardesk-backend/internal/clients/ai"
	"github.com/scholardesk/scholardesk-backend/internal/clients/gcs"
	"github.com/scholardesk/scholardesk-backend/internal/config"
	documentrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/documents"
	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/apierr"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

// ProcessResult is the summary returned to the caller after a pipeline run.
type ProcessResult struct {
	DocumentID       uuid.UUID              `json:"document_id"`
	Status           string                 `json:"status"`
	ConfidenceScore  float64                `json:"confidence_score"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
	WordCount        int                    `json:"word_count"`
	Language         string                 `json:"language"`
	CitationCount    int                    `json:"citation_count"`
	KeywordsCount    int                    `json:"keywords_count"`
	DegradedStages   []string               `json:"degraded_stages,omitempty"`
	Summary          *types.DocumentSummary `json:"summary,omitempty"`
}

// PipelineService runs the document processing pipeline: extract, summarize,
// citations, keywords. Extraction failure is fatal; every later stage degrades
// to a default and the run continues.
type PipelineService interface {
	Process(dbc dbctx.Context, documentID uuid.UUID) (ProcessResult, error)
}

type pipelineService struct {
	db        *gorm.DB
	cfg       config.ProcessingConfig
	aiClient  ai.Client
	bucket    gcs.BucketService
	docs      documentrepo.DocumentRepo
	citations CitationService
	activity  ActivityService
	log       *logger.Logger
}

func NewPipelineService(
	db *gorm.DB,
	cfg config.ProcessingConfig,
	aiClient ai.Client,
	bucket gcs.BucketService,
	docs documentrepo.DocumentRepo,
	citations CitationService,
	activity ActivityService,
	log *logger.Logger,
) PipelineService {
	return &pipelineService{
		db:        db,
		cfg:       cfg,
		aiClient:  aiClient,
		bucket:    bucket,
		docs:      docs,
		citations: citations,
		activity:  activity,
		log:       log.With("service", "PipelineService"),
	}
}

// pipelineState accumulates stage outputs; the final transaction writes it to
// the document in one shot.
type pipelineState struct {
	extract   ai.ExtractResult
	summary   ai.SummaryResult
	citations []ai.CitationRecord
	keywords  ai.KeywordsResult

	degraded    []string
	confidences []float64
}

type stage struct {
	name  string
	fatal bool
	run   func(ctx context.Context, st *pipelineState) (float64, error)
}

func (s *pipelineService) Process(dbc dbctx.Context, documentID uuid.UUID) (ProcessResult, error) {
	doc, err := s.docs.GetByID(dbc, documentID)
	if err != nil {
		return ProcessResult{}, apierr.Persistence(err)
	}
	if doc == nil {
		return ProcessResult{}, apierr.NotFound("document_not_found", fmt.Errorf("document %s not found", documentID))
	}
	if doc.Status == types.DocumentStatusProcessing {
		return ProcessResult{}, apierr.Validation("document_already_processing",
			fmt.Errorf("document %s is already being processed", documentID))
	}

	userRef := &doc.UserID
	started := time.Now()

	if err := s.docs.UpdateFields(dbc, doc.ID, map[string]interface{}{
		"status":        types.DocumentStatusProcessing,
		"error_message": "",
	}); err != nil {
		return ProcessResult{}, apierr.Persistence(err)
	}
	s.activity.Log(dbc, types.EventProcessingStarted, "", userRef, &doc.ID, nil)

	st := &pipelineState{}
	stages := []stage{
		{name: "extract", fatal: true, run: func(ctx context.Context, st *pipelineState) (float64, error) {
			return s.runExtract(ctx, doc, st)
		}},
		{name: "summarize", run: func(ctx context.Context, st *pipelineState) (float64, error) {
			out, err := s.aiClient.Summarize(ctx, st.extract.Text, s.cfg.SummaryMaxLength)
			if err != nil {
				return 0, err
			}
			st.summary = out
			return out.Confidence, nil
		}},
		{name: "citations", run: func(ctx context.Context, st *pipelineState) (float64, error) {
			records, err := s.aiClient.ExtractCitations(ctx, st.extract.Text)
			if err != nil {
				return 0, err
			}
			st.citations = records
			return stageConfidenceFromRecords(records), nil
		}},
		{name: "keywords", run: func(ctx context.Context, st *pipelineState) (float64, error) {
			out, err := s.aiClient.ExtractKeywords(ctx, st.extract.Text, s.cfg.KeywordTopN)
			if err != nil {
				return 0, err
			}
			st.keywords = out
			return out.Confidence, nil
		}},
	}

	for _, stg := range stages {
		ctx := dbc.Ctx
		var cancel context.CancelFunc
		if s.cfg.StageTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, s.cfg.StageTimeout)
		}
		conf, runErr := stg.run(ctx, st)
		if cancel != nil {
			cancel()
		}

		if runErr != nil {
			if stg.fatal {
				return ProcessResult{}, s.failRun(dbc, doc, started, stg.name, runErr)
			}
			degErr := apierr.Degraded(stg.name, doc.ID, runErr)
			s.log.Warn("pipeline stage degraded",
				"document_id", doc.ID, "stage", stg.name, "error", degErr)
			s.activity.Log(dbc, types.EventStageDegraded, stg.name, userRef, &doc.ID, map[string]interface{}{
				"error": degErr.Error(),
			})
			st.degraded = append(st.degraded, stg.name)
			applyStageDefault(stg.name, st)
			continue
		}
		st.confidences = append(st.confidences, conf)
	}

	elapsed := time.Since(started).Milliseconds()
	result, err := s.persistRun(dbc, doc, st, elapsed)
	if err != nil {
		return ProcessResult{}, s.failRun(dbc, doc, started, "persist", err)
	}

	s.activity.Log(dbc, types.EventProcessingCompleted, "", userRef, &doc.ID, map[string]interface{}{
		"processing_time_ms": elapsed,
		"confidence_score":   result.ConfidenceScore,
		"degraded_stages":    st.degraded,
	})
	return result, nil
}

func (s *pipelineService) runExtract(ctx context.Context, doc *types.Document, st *pipelineState) (float64, error) {
	if strings.TrimSpace(doc.StorageKey) == "" {
		return 0, fmt.Errorf("document %s has no storage key", doc.ID)
	}
	content, err := s.bucket.ReadAll(ctx, doc.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("read document file: %w", err)
	}
	out, err := s.aiClient.ExtractText(ctx, doc.FileName, doc.MimeType, content)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(out.Text) == "" {
		return 0, fmt.Errorf("extraction returned empty text")
	}
	if out.WordCount <= 0 {
		out.WordCount = len(strings.Fields(out.Text))
	}
	if out.Language == "" {
		out.Language = detectLanguage(out.Text)
	}
	st.extract = out
	return out.Confidence, nil
}

// applyStageDefault substitutes the documented degradation default so a
// partial run still yields a fully-populated document.
func applyStageDefault(stageName string, st *pipelineState) {
	switch stageName {
	case "summarize":
		st.summary = ai.SummaryResult{Confidence: 0}
	case "citations":
		st.citations = nil
	case "keywords":
		st.keywords = ai.KeywordsResult{Keywords: []string{}, Topics: []string{}}
	}
}

func (s *pipelineService) persistRun(dbc dbctx.Context, doc *types.Document, st *pipelineState, elapsedMs int64) (ProcessResult, error) {
	summary := types.DocumentSummary{
		Title:       st.summary.Title,
		Authors:     st.summary.Authors,
		Abstract:    st.summary.Abstract,
		KeyFindings: st.summary.KeyFindings,
		Methodology: st.summary.Methodology,
		Conclusions: st.summary.Conclusions,
		Keywords:    st.summary.Keywords,
		Confidence:  st.summary.Confidence,
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return ProcessResult{}, err
	}
	keywordsJSON, err := json.Marshal(emptyIfNil(st.keywords.Keywords))
	if err != nil {
		return ProcessResult{}, err
	}
	topicsJSON, err := json.Marshal(emptyIfNil(st.keywords.Topics))
	if err != nil {
		return ProcessResult{}, err
	}

	confidence := maxConfidence(st.confidences)
	var citationCount int

	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		rows, typeCounts, saveErr := s.citations.SaveExtracted(txc, doc, st.citations, true)
		if saveErr != nil {
			return saveErr
		}
		citationCount = len(rows)
		typesJSON, mErr := json.Marshal(typeCounts)
		if mErr != nil {
			return mErr
		}

		return s.docs.UpdateFields(txc, doc.ID, map[string]interface{}{
			"status":             types.DocumentStatusProcessed,
			"extracted_text":     st.extract.Text,
			"summary":            datatypes.JSON(summaryJSON),
			"keywords":           datatypes.JSON(keywordsJSON),
			"topics":             datatypes.JSON(topicsJSON),
			"citation_count":     citationCount,
			"citation_types":     datatypes.JSON(typesJSON),
			"confidence_score":   confidence,
			"processing_time_ms": elapsedMs,
			"word_count":         st.extract.WordCount,
			"language":           st.extract.Language,
			"error_message":      "",
		})
	})
	if err != nil {
		return ProcessResult{}, err
	}

	return ProcessResult{
		DocumentID:       doc.ID,
		Status:           types.DocumentStatusProcessed,
		ConfidenceScore:  confidence,
		ProcessingTimeMs: elapsedMs,
		WordCount:        st.extract.WordCount,
		Language:         st.extract.Language,
		CitationCount:    citationCount,
		KeywordsCount:    len(st.keywords.Keywords),
		DegradedStages:   st.degraded,
		Summary:          &summary,
	}, nil
}

func (s *pipelineService) failRun(dbc dbctx.Context, doc *types.Document, started time.Time, stageName string, cause error) error {
	elapsed := time.Since(started).Milliseconds()
	if err := s.docs.UpdateFields(dbc, doc.ID, map[string]interface{}{
		"status":             types.DocumentStatusFailed,
		"error_message":      cause.Error(),
		"processing_time_ms": elapsed,
	}); err != nil {
		s.log.Error("failed to mark document failed", "document_id", doc.ID, "error", err)
	}
	s.activity.Log(dbc, types.EventProcessingFailed, stageName, &doc.UserID, &doc.ID, map[string]interface{}{
		"error": cause.Error(),
	})
	if stageName == "extract" {
		return apierr.Extraction(doc.ID, cause)
	}
	return apierr.Persistence(cause)
}

func stageConfidenceFromRecords(records []ai.CitationRecord) float64 {
	var max float64
	for _, r := range records {
		if r.Confidence > max {
			max = r.Confidence
		}
	}
	return max
}

func maxConfidence(values []float64) float64 {
	var max float64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// detectLanguage is a deliberately coarse tag: documents that are mostly
// ASCII letters are labeled "en", everything else "und".
func detectLanguage(text string) string {
	if text == "" {
		return "und"
	}
	var ascii, total int
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			continue
		}
		total++
		if r < 128 {
			ascii++
		}
	}
	if total == 0 {
		return "und"
	}
	if float64(ascii)/float64(total) >= 0.9 {
		return "en"
	}
	return "und"
}
