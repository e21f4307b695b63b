package services

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/scholardesk/scholardesk-backend/internal/clients/answer"
	"github.com/scholardesk/scholardesk-backend/internal/data/repos/testutil"
	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/apierr"
)

func newQASvc(env *testEnv, answers answer.Client) QAService {
	return NewQAService(env.conn, env.cfg, answers, env.docs, env.sessions, env.messages, env.activity, env.log)
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	env := newTestEnv(t)
	svc := newQASvc(env, &fakeAnswerClient{})

	_, err := svc.Ask(env.dbc, AskInput{DocumentID: uuid.New(), Question: "   "})
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestAskRejectsOverlongQuestion(t *testing.T) {
	env := newTestEnv(t)
	svc := newQASvc(env, &fakeAnswerClient{})

	_, err := svc.Ask(env.dbc, AskInput{
		DocumentID: uuid.New(),
		Question:   strings.Repeat("q", 2001),
	})
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestAskRejectsUnprocessedDocument(t *testing.T) {
	env := newTestEnv(t)
	downstream := &fakeAnswerClient{}
	svc := newQASvc(env, downstream)
	doc := testutil.SeedDocument(t, env.dbc, uuid.New(), types.DocumentStatusUploaded)

	_, err := svc.Ask(env.dbc, AskInput{DocumentID: doc.ID, Question: "What is this about?"})
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if !strings.Contains(err.Error(), types.DocumentStatusUploaded) {
		t.Fatalf("error should carry the current status, got %q", err.Error())
	}
	if downstream.calls != 0 {
		t.Fatal("downstream called for an unready document")
	}
}

func TestAskHappyPathPersistsExchange(t *testing.T) {
	env := newTestEnv(t)
	downstream := &fakeAnswerClient{
		result: answer.Result{
			Answer:     "It introduces the transformer architecture.",
			Confidence: 0.87,
			SourceType: types.SourceTypeHybrid,
			Sources: []answer.Source{{
				Type:       types.SourceTypeHybrid,
				Title:      "Section 3",
				Content:    "Model architecture.",
				Confidence: 0.9,
			}},
			TokenUsage: answer.TokenUsage{Prompt: 100, Completion: 50, Total: 150},
		},
	}
	svc := newQASvc(env, downstream)
	userID := uuid.New()
	doc := testutil.SeedDocument(t, env.dbc, userID, types.DocumentStatusProcessed)

	res, err := svc.Ask(env.dbc, AskInput{
		DocumentID:  doc.ID,
		Question:    "What does this paper introduce?",
		UserID:      userID,
		Temperature: 0.2,
		MaxSources:  3,
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.Fallback {
		t.Fatal("unexpected fallback on healthy downstream")
	}
	if downstream.lastRequest.Temperature != 0.2 || downstream.lastRequest.MaxSources != 3 {
		t.Fatalf("downstream request missing tuning params: %+v", downstream.lastRequest)
	}
	if res.ProcessingMode != "Document + Web" {
		t.Fatalf("processing_mode = %q, want Document + Web for hybrid", res.ProcessingMode)
	}
	if res.TokenUsage.Total != 150 {
		t.Fatalf("token usage = %+v", res.TokenUsage)
	}

	msgs, err := env.messages.ListBySession(env.dbc, res.SessionID, 10, 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted messages = %d, want user + assistant", len(msgs))
	}
	if msgs[0].Role != types.MessageRoleUser || msgs[1].Role != types.MessageRoleAssistant {
		t.Fatalf("roles out of order: %q then %q", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Confidence != 0.87 {
		t.Fatalf("assistant confidence = %v", msgs[1].Confidence)
	}

	session, err := env.sessions.GetByID(env.dbc, res.SessionID)
	if err != nil || session == nil {
		t.Fatalf("session lookup: %v", err)
	}
	if session.MessageCount != 2 {
		t.Fatalf("message_count = %d, want 2", session.MessageCount)
	}
	if session.Title == "" {
		t.Fatal("session title not set from first question")
	}
}

func TestAskFallbackOnDownstreamOutage(t *testing.T) {
	env := newTestEnv(t)
	downstream := &fakeAnswerClient{err: apierr.Unavailable(errors.New("connection refused"))}
	svc := newQASvc(env, downstream)
	doc := testutil.SeedDocument(t, env.dbc, uuid.New(), types.DocumentStatusProcessed)

	res, err := svc.Ask(env.dbc, AskInput{DocumentID: doc.ID, Question: "Summarize the methodology."})
	if err != nil {
		t.Fatalf("Ask should succeed with fallback, got %v", err)
	}
	if !res.Fallback {
		t.Fatal("expected fallback result")
	}
	if res.Confidence != 0.5 {
		t.Fatalf("fallback confidence = %v, want 0.5", res.Confidence)
	}
	if res.SourceType != types.SourceTypeFallback {
		t.Fatalf("source_type = %q, want fallback", res.SourceType)
	}
	if len(res.Sources) != 1 {
		t.Fatalf("fallback sources = %d, want one synthetic source", len(res.Sources))
	}
	if !strings.Contains(res.Answer, doc.FileName) {
		t.Fatal("fallback answer should name the document")
	}
	if !strings.Contains(res.Answer, "Summarize the methodology.") {
		t.Fatal("fallback answer should echo the question")
	}

	msgs, err := env.messages.ListBySession(env.dbc, res.SessionID, 10, 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("fallback exchange not fully persisted: %d messages", len(msgs))
	}
}

func TestAskTimeoutAlsoFallsBack(t *testing.T) {
	env := newTestEnv(t)
	downstream := &fakeAnswerClient{err: apierr.Timeout(errors.New("context deadline exceeded"))}
	svc := newQASvc(env, downstream)
	doc := testutil.SeedDocument(t, env.dbc, uuid.New(), types.DocumentStatusProcessed)

	res, err := svc.Ask(env.dbc, AskInput{DocumentID: doc.ID, Question: "Any conclusions?"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !res.Fallback || res.SourceType != types.SourceTypeFallback {
		t.Fatalf("timeout should serve fallback, got %+v", res)
	}
}

func TestAskReusesActiveSession(t *testing.T) {
	env := newTestEnv(t)
	downstream := &fakeAnswerClient{
		result: answer.Result{Answer: "ok", Confidence: 0.9, SourceType: types.SourceTypeDocument},
	}
	svc := newQASvc(env, downstream)
	userID := uuid.New()
	doc := testutil.SeedDocument(t, env.dbc, userID, types.DocumentStatusProcessed)

	first, err := svc.Ask(env.dbc, AskInput{DocumentID: doc.ID, Question: "First?", UserID: userID})
	if err != nil {
		t.Fatalf("first Ask: %v", err)
	}
	second, err := svc.Ask(env.dbc, AskInput{DocumentID: doc.ID, Question: "Second?", UserID: userID})
	if err != nil {
		t.Fatalf("second Ask: %v", err)
	}
	if first.SessionID != second.SessionID {
		t.Fatalf("sessions differ: %s vs %s", first.SessionID, second.SessionID)
	}

	msgs, err := env.messages.ListBySession(env.dbc, first.SessionID, 10, 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want 4", len(msgs))
	}
	for i, m := range msgs {
		if m.Seq != int64(i+1) {
			t.Fatalf("seq gap at %d: %d", i, m.Seq)
		}
	}
	if len(downstream.lastRequest.History) == 0 {
		t.Fatal("second call should carry session history")
	}
}

func TestAskQuestionLimitsCountRunes(t *testing.T) {
	env := newTestEnv(t)
	downstream := &fakeAnswerClient{
		result: answer.Result{Answer: "ok", Confidence: 0.9, SourceType: types.SourceTypeDocument},
	}
	svc := newQASvc(env, downstream)
	doc := testutil.SeedDocument(t, env.dbc, uuid.New(), types.DocumentStatusProcessed)

	// 2000 runes but 4000 bytes: within the limit.
	res, err := svc.Ask(env.dbc, AskInput{DocumentID: doc.ID, Question: strings.Repeat("é", 2000)})
	if err != nil {
		t.Fatalf("2000-rune multibyte question rejected: %v", err)
	}

	_, err = svc.Ask(env.dbc, AskInput{DocumentID: doc.ID, Question: strings.Repeat("é", 2001)})
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("err = %v, want validation for 2001 runes", err)
	}

	session, err := env.sessions.GetByID(env.dbc, res.SessionID)
	if err != nil || session == nil {
		t.Fatalf("session lookup: %v", err)
	}
	if !utf8.ValidString(session.Title) {
		t.Fatalf("title split a rune: %q", session.Title)
	}
	if got := []rune(session.Title); len(got) != 80 || !strings.HasSuffix(session.Title, "...") {
		t.Fatalf("title = %q (%d runes), want 80-rune truncation ending in ...", session.Title, len(got))
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	svc := newQASvc(env, &fakeAnswerClient{})

	_, err := svc.History(env.dbc, uuid.New(), 10, 0)
	if !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("missing session err = %v, want not_found", err)
	}

	docID := uuid.New()
	session := testutil.SeedSession(t, env.dbc, &docID, nil)
	for i := int64(1); i <= 3; i++ {
		role := types.MessageRoleUser
		if i%2 == 0 {
			role = types.MessageRoleAssistant
		}
		testutil.SeedMessage(t, env.dbc, session, role, "turn", i)
	}

	res, err := svc.History(env.dbc, session.ID, 2, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(res.Messages) != 2 || !res.HasMore {
		t.Fatalf("page = %d messages, hasMore=%v; want 2, true", len(res.Messages), res.HasMore)
	}

	res, err = svc.History(env.dbc, session.ID, 2, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(res.Messages) != 1 || res.HasMore {
		t.Fatalf("last page = %d messages, hasMore=%v; want 1, false", len(res.Messages), res.HasMore)
	}

	// A session with exactly limit messages: the full-page heuristic reports
	// hasMore even though nothing remains.
	exactDoc := uuid.New()
	exact := testutil.SeedSession(t, env.dbc, &exactDoc, nil)
	testutil.SeedMessage(t, env.dbc, exact, types.MessageRoleUser, "question", 1)
	testutil.SeedMessage(t, env.dbc, exact, types.MessageRoleAssistant, "answer", 2)

	res, err = svc.History(env.dbc, exact.ID, 2, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(res.Messages) != 2 || !res.HasMore {
		t.Fatalf("exactly-full page = %d messages, hasMore=%v; want 2, true", len(res.Messages), res.HasMore)
	}
}
