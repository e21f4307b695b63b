package testutil

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
)

// MustJSON marshals v for use in jsonb fixture columns.
func MustJSON(t *testing.T, v interface{}) datatypes.JSON {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture json: %v", err)
	}
	return datatypes.JSON(b)
}

// SeedDocument inserts a document in the given status. IDs are assigned
// client-side so fixtures work on sqlite as well as postgres.
func SeedDocument(t *testing.T, dbc dbctx.Context, userID uuid.UUID, status string) *types.Document {
	t.Helper()
	doc := &types.Document{
		ID:       uuid.New(),
		UserID:   userID,
		FileName: "fixture.pdf",
		MimeType: "application/pdf",
		Status:   status,
		Keywords: datatypes.JSON([]byte("[]")),
		Topics:   datatypes.JSON([]byte("[]")),

		CitationTypes: datatypes.JSON([]byte("{}")),
	}
	if status == types.DocumentStatusProcessed {
		doc.ExtractedText = "Transformer models rely on attention. See Vaswani et al. (2017)."
		doc.WordCount = 10
		doc.Language = "en"
		doc.ConfidenceScore = 0.9
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

// SeedCitation inserts one citation for the document.
func SeedCitation(t *testing.T, dbc dbctx.Context, doc *types.Document, citationType string) *types.Citation {
	t.Helper()
	year := 2017
	c := &types.Citation{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		Type:       citationType,
		Title:      "Attention Is All You Need",
		Authors:    MustJSON(t, []string{"Ashish Vaswani"}),
		Year:       &year,
		Confidence: 0.9,
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(c).Error; err != nil {
		t.Fatalf("seed citation: %v", err)
	}
	return c
}

// SeedSession inserts an active chat session for the (document, user) key.
func SeedSession(t *testing.T, dbc dbctx.Context, documentID *uuid.UUID, userID *uuid.UUID) *types.ChatSession {
	t.Helper()
	s := &types.ChatSession{
		ID:         uuid.New(),
		DocumentID: documentID,
		UserID:     userID,
		Title:      "fixture session",
		IsActive:   true,
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(s).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s
}

// SeedMessage inserts one message at the given seq.
func SeedMessage(t *testing.T, dbc dbctx.Context, session *types.ChatSession, role, content string, seq int64) *types.ChatMessage {
	t.Helper()
	m := &types.ChatMessage{
		ID:         uuid.New(),
		SessionID:  session.ID,
		DocumentID: session.DocumentID,
		Role:       role,
		Content:    content,
		Seq:        seq,
		Sources:    datatypes.JSON([]byte("[]")),
		TokenUsage: datatypes.JSON([]byte("{}")),
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(m).Error; err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return m
}
