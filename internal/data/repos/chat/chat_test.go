package chat

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scholardesk/scholardesk-backend/internal/data/repos/testutil"
	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

func setup(t *testing.T) (*gorm.DB, dbctx.Context, *logger.Logger) {
	t.Helper()
	conn := testutil.OpenTestDB(t)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return conn, testutil.TxContext(t, conn), log
}

func TestSessionGetActiveKeyed(t *testing.T) {
	conn, dbc, log := setup(t)
	repo := NewChatSessionRepo(conn, log)

	docID := uuid.New()
	userID := uuid.New()
	want := testutil.SeedSession(t, dbc, &docID, &userID)
	otherDoc := uuid.New()
	testutil.SeedSession(t, dbc, &otherDoc, &userID)

	got, err := repo.GetActive(dbc, &docID, &userID)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if got == nil || got.ID != want.ID {
		t.Fatalf("GetActive returned %+v, want session %s", got, want.ID)
	}
}

func TestSessionGetActiveAnonymous(t *testing.T) {
	conn, dbc, log := setup(t)
	repo := NewChatSessionRepo(conn, log)

	docID := uuid.New()
	userID := uuid.New()
	testutil.SeedSession(t, dbc, &docID, &userID)
	anon := testutil.SeedSession(t, dbc, &docID, nil)

	got, err := repo.GetActive(dbc, &docID, nil)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if got == nil || got.ID != anon.ID {
		t.Fatalf("anonymous lookup returned %+v, want %s", got, anon.ID)
	}
}

func TestSessionGetActiveMissing(t *testing.T) {
	conn, dbc, log := setup(t)
	repo := NewChatSessionRepo(conn, log)

	docID := uuid.New()
	got, err := repo.GetActive(dbc, &docID, nil)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing session, got %+v", got)
	}
}

func TestMessagesListBySessionOrder(t *testing.T) {
	conn, dbc, log := setup(t)
	repo := NewChatMessageRepo(conn, log)

	docID := uuid.New()
	session := testutil.SeedSession(t, dbc, &docID, nil)
	testutil.SeedMessage(t, dbc, session, types.MessageRoleUser, "first question", 1)
	testutil.SeedMessage(t, dbc, session, types.MessageRoleAssistant, "first answer", 2)
	testutil.SeedMessage(t, dbc, session, types.MessageRoleUser, "second question", 3)

	got, err := repo.ListBySession(dbc, session.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, m := range got {
		if m.Seq != int64(i+1) {
			t.Fatalf("message %d has seq %d, want %d", i, m.Seq, i+1)
		}
	}
	if got[0].Content != "first question" || got[2].Content != "second question" {
		t.Fatalf("messages out of order: %q .. %q", got[0].Content, got[2].Content)
	}
}

func TestMessagesMaxSeq(t *testing.T) {
	conn, dbc, log := setup(t)
	repo := NewChatMessageRepo(conn, log)

	docID := uuid.New()
	session := testutil.SeedSession(t, dbc, &docID, nil)

	max, err := repo.MaxSeq(dbc, session.ID)
	if err != nil {
		t.Fatalf("MaxSeq: %v", err)
	}
	if max != 0 {
		t.Fatalf("empty session max seq = %d, want 0", max)
	}

	testutil.SeedMessage(t, dbc, session, types.MessageRoleUser, "q", 1)
	testutil.SeedMessage(t, dbc, session, types.MessageRoleAssistant, "a", 2)

	max, err = repo.MaxSeq(dbc, session.ID)
	if err != nil {
		t.Fatalf("MaxSeq: %v", err)
	}
	if max != 2 {
		t.Fatalf("max seq = %d, want 2", max)
	}
}
