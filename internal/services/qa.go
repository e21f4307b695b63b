package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/scholardesk/scholardesk-backend/internal/clients/answer"
	"github.com/scholardesk/scholardesk-backend/internal/config"
	chatrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/chat"
	documentrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/documents"
	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/apierr"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

const historyWindow = 10

type AskInput struct {
	DocumentID   uuid.UUID
	Question     string
	SessionID    *uuid.UUID
	UserID       uuid.UUID
	UseWebSearch bool
	Temperature  float64
	MaxSources   int
}

type AskResult struct {
	SessionID        uuid.UUID         `json:"session_id"`
	MessageID        uuid.UUID         `json:"message_id"`
	Answer           string            `json:"answer"`
	Confidence       float64           `json:"confidence"`
	SourceType       string            `json:"source_type"`
	Sources          []types.SourceRef `json:"sources"`
	ProcessingMode   string            `json:"processing_mode"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
	TokenUsage       types.TokenUsage  `json:"token_usage"`
	Fallback         bool              `json:"fallback"`
}

type HistoryResult struct {
	SessionID uuid.UUID            `json:"session_id"`
	Messages  []*types.ChatMessage `json:"messages"`
	HasMore   bool                 `json:"has_more"`
}

// QAService is the answer gateway: it gates on document readiness, persists
// the exchange, and shields callers from downstream failures with a fallback
// answer.
type QAService interface {
	Ask(dbc dbctx.Context, input AskInput) (AskResult, error)
	History(dbc dbctx.Context, sessionID uuid.UUID, limit, offset int) (HistoryResult, error)
}

type qaService struct {
	db       *gorm.DB
	cfg      config.ProcessingConfig
	answers  answer.Client
	docs     documentrepo.DocumentRepo
	sessions chatrepo.ChatSessionRepo
	messages chatrepo.ChatMessageRepo
	activity ActivityService
	log      *logger.Logger
}

func NewQAService(
	db *gorm.DB,
	cfg config.ProcessingConfig,
	answers answer.Client,
	docs documentrepo.DocumentRepo,
	sessions chatrepo.ChatSessionRepo,
	messages chatrepo.ChatMessageRepo,
	activity ActivityService,
	log *logger.Logger,
) QAService {
	return &qaService{
		db:       db,
		cfg:      cfg,
		answers:  answers,
		docs:     docs,
		sessions: sessions,
		messages: messages,
		activity: activity,
		log:      log.With("service", "QAService"),
	}
}

func (s *qaService) Ask(dbc dbctx.Context, input AskInput) (AskResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return AskResult{}, apierr.Validation("question_required", fmt.Errorf("question must not be empty"))
	}
	maxLen := s.cfg.QuestionMaxLen
	if maxLen <= 0 {
		maxLen = 2000
	}
	if n := utf8.RuneCountInString(question); n > maxLen {
		return AskResult{}, apierr.Validation("question_too_long",
			fmt.Errorf("question of %d chars exceeds maximum of %d", n, maxLen))
	}
	if input.DocumentID == uuid.Nil {
		return AskResult{}, apierr.Validation("document_id_required", fmt.Errorf("document_id is required"))
	}

	doc, err := s.docs.GetByID(dbc, input.DocumentID)
	if err != nil {
		return AskResult{}, apierr.Persistence(err)
	}
	if doc == nil {
		return AskResult{}, apierr.NotFound("document_not_found", fmt.Errorf("document %s not found", input.DocumentID))
	}
	if doc.Status != types.DocumentStatusProcessed {
		return AskResult{}, apierr.Validation("document_not_ready",
			fmt.Errorf("document %s is not ready for questions (status: %s)", doc.ID, doc.Status))
	}

	session, err := s.resolveSession(dbc, input, doc)
	if err != nil {
		return AskResult{}, err
	}

	history, err := s.recentHistory(dbc, session)
	if err != nil {
		return AskResult{}, apierr.Persistence(err)
	}

	// The user message is durable before the downstream call, so a crashed or
	// timed-out answer never loses the question.
	seq, err := s.messages.MaxSeq(dbc, session.ID)
	if err != nil {
		return AskResult{}, apierr.Persistence(err)
	}
	userMsg := &types.ChatMessage{
		SessionID:  session.ID,
		DocumentID: &doc.ID,
		Role:       types.MessageRoleUser,
		Content:    question,
		Seq:        seq + 1,
		Sources:    datatypes.JSON([]byte("[]")),
		TokenUsage: datatypes.JSON([]byte("{}")),
	}
	if _, err := s.messages.Create(dbc, []*types.ChatMessage{userMsg}); err != nil {
		return AskResult{}, apierr.Persistence(err)
	}

	started := time.Now()
	res, fallback, askErr := s.answerWithFallback(dbc.Ctx, doc, question, input, history)
	if askErr != nil {
		return AskResult{}, askErr
	}
	elapsed := time.Since(started).Milliseconds()

	sources := normalizeSources(res.Sources)
	sourcesJSON, _ := json.Marshal(sources)
	usage := types.TokenUsage{
		Prompt:     res.TokenUsage.Prompt,
		Completion: res.TokenUsage.Completion,
		Total:      res.TokenUsage.Total,
	}
	usageJSON, _ := json.Marshal(usage)

	assistantMsg := &types.ChatMessage{
		SessionID:        session.ID,
		DocumentID:       &doc.ID,
		Role:             types.MessageRoleAssistant,
		Content:          res.Answer,
		Seq:              seq + 2,
		Confidence:       res.Confidence,
		SourceType:       res.SourceType,
		Sources:          datatypes.JSON(sourcesJSON),
		ProcessingTimeMs: elapsed,
		TokenUsage:       datatypes.JSON(usageJSON),
	}
	if _, err := s.messages.Create(dbc, []*types.ChatMessage{assistantMsg}); err != nil {
		return AskResult{}, apierr.Persistence(err)
	}

	updates := map[string]interface{}{
		"message_count": session.MessageCount + 2,
	}
	if session.Title == "" {
		updates["title"] = truncateTitle(question)
	}
	if err := s.sessions.UpdateFields(dbc, session.ID, updates); err != nil {
		s.log.Warn("session bookkeeping update failed", "session_id", session.ID, "error", err)
	}

	eventType := types.EventQuestionAnswered
	if fallback {
		eventType = types.EventAnswerFallback
	}
	var userRef *uuid.UUID
	if input.UserID != uuid.Nil {
		uid := input.UserID
		userRef = &uid
	}
	s.activity.Log(dbc, eventType, "", userRef, &doc.ID, map[string]interface{}{
		"session_id":         session.ID.String(),
		"processing_time_ms": elapsed,
		"source_type":        res.SourceType,
	})

	return AskResult{
		SessionID:        session.ID,
		MessageID:        assistantMsg.ID,
		Answer:           res.Answer,
		Confidence:       res.Confidence,
		SourceType:       res.SourceType,
		Sources:          sources,
		ProcessingMode:   processingMode(res.SourceType),
		ProcessingTimeMs: elapsed,
		TokenUsage:       usage,
		Fallback:         fallback,
	}, nil
}

func (s *qaService) resolveSession(dbc dbctx.Context, input AskInput, doc *types.Document) (*types.ChatSession, error) {
	if input.SessionID != nil && *input.SessionID != uuid.Nil {
		session, err := s.sessions.GetByID(dbc, *input.SessionID)
		if err != nil {
			return nil, apierr.Persistence(err)
		}
		if session == nil {
			return nil, apierr.NotFound("session_not_found", fmt.Errorf("session %s not found", *input.SessionID))
		}
		return session, nil
	}

	var userRef *uuid.UUID
	if input.UserID != uuid.Nil {
		uid := input.UserID
		userRef = &uid
	}

	session, err := s.sessions.GetActive(dbc, &doc.ID, userRef)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	if session != nil {
		return session, nil
	}

	created, err := s.sessions.Create(dbc, []*types.ChatSession{{
		DocumentID: &doc.ID,
		UserID:     userRef,
		IsActive:   true,
	}})
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	return created[0], nil
}

func (s *qaService) recentHistory(dbc dbctx.Context, session *types.ChatSession) ([]answer.HistoryTurn, error) {
	// Count the table, not session.message_count: the bookkeeping field lags
	// when the post-answer update fails.
	count, err := s.messages.CountBySession(dbc, session.ID)
	if err != nil {
		return nil, err
	}
	offset := int(count) - historyWindow
	if offset < 0 {
		offset = 0
	}
	msgs, err := s.messages.ListBySession(dbc, session.ID, historyWindow, offset)
	if err != nil {
		return nil, err
	}
	turns := make([]answer.HistoryTurn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, answer.HistoryTurn{Role: m.Role, Content: m.Content})
	}
	return turns, nil
}

// answerWithFallback calls the downstream backend under the configured
// deadline. Timeout and unavailability come back as a degraded-but-successful
// fallback answer; other error kinds propagate.
func (s *qaService) answerWithFallback(ctx context.Context, doc *types.Document, question string, input AskInput, history []answer.HistoryTurn) (answer.Result, bool, error) {
	timeout := s.cfg.AnswerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mode := "document"
	if input.UseWebSearch {
		mode = "hybrid"
	}

	res, err := s.answers.AnswerQuestion(callCtx, answer.Request{
		DocumentID:  doc.ID,
		Question:    question,
		Mode:        mode,
		Temperature: input.Temperature,
		MaxSources:  input.MaxSources,
		History:     history,
	})
	if err == nil {
		if res.SourceType == "" {
			res.SourceType = types.SourceTypeDocument
		}
		return res, false, nil
	}

	kind := apierr.KindOf(err)
	if kind != apierr.KindTimeout && kind != apierr.KindBackendUnavailable {
		return answer.Result{}, false, err
	}

	s.log.Warn("answer backend degraded, serving fallback",
		"document_id", doc.ID, "kind", string(kind), "error", err)

	return fallbackAnswer(doc, question), true, nil
}

// fallbackAnswer is deterministic for a given document and question.
func fallbackAnswer(doc *types.Document, question string) answer.Result {
	text := fmt.Sprintf(
		"I'm currently unable to run a full analysis of %q to answer: %q. "+
			"The document has been processed and its content is available, but the "+
			"answering capability is temporarily degraded. Please try again shortly.",
		doc.FileName, question)

	return answer.Result{
		Answer:     text,
		Confidence: 0.5,
		SourceType: types.SourceTypeFallback,
		Sources: []answer.Source{{
			Type:       types.SourceTypeFallback,
			Title:      doc.FileName,
			Content:    "Answer generated without backend analysis.",
			Confidence: 0.5,
			DocumentID: doc.ID.String(),
		}},
	}
}

func (s *qaService) History(dbc dbctx.Context, sessionID uuid.UUID, limit, offset int) (HistoryResult, error) {
	if sessionID == uuid.Nil {
		return HistoryResult{}, apierr.Validation("session_id_required", fmt.Errorf("session_id is required"))
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return HistoryResult{}, apierr.Persistence(err)
	}
	if session == nil {
		return HistoryResult{}, apierr.NotFound("session_not_found", fmt.Errorf("session %s not found", sessionID))
	}

	msgs, err := s.messages.ListBySession(dbc, sessionID, limit, offset)
	if err != nil {
		return HistoryResult{}, apierr.Persistence(err)
	}
	return HistoryResult{
		SessionID: sessionID,
		Messages:  msgs,
		HasMore:   len(msgs) == limit,
	}, nil
}

func normalizeSources(in []answer.Source) []types.SourceRef {
	out := make([]types.SourceRef, 0, len(in))
	for _, src := range in {
		t := src.Type
		switch t {
		case types.SourceTypeDocument, types.SourceTypeWebPrimary, types.SourceTypeHybrid, types.SourceTypeFallback:
		default:
			t = types.SourceTypeDocument
		}
		out = append(out, types.SourceRef{
			Type:       t,
			Title:      src.Title,
			URL:        src.URL,
			Content:    src.Content,
			Confidence: src.Confidence,
			DocumentID: src.DocumentID,
		})
	}
	return out
}

func processingMode(sourceType string) string {
	switch sourceType {
	case types.SourceTypeHybrid:
		return "Document + Web"
	case types.SourceTypeWebPrimary:
		return "Web-first"
	default:
		return "Document-only"
	}
}

func truncateTitle(question string) string {
	const max = 80
	runes := []rune(question)
	if len(runes) <= max {
		return question
	}
	return string(runes[:max-3]) + "..."
}
