package documents

import (
	"testing"

	"github.com/google/uuid"

	"github.com/scholardesk/scholardesk-backend/internal/data/repos/testutil"
	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

func TestDocumentGetByIDMissing(t *testing.T) {
	conn := testutil.OpenTestDB(t)
	log, _ := logger.New("test")
	repo := NewDocumentRepo(conn, log)
	dbc := testutil.TxContext(t, conn)

	doc, err := repo.GetByID(dbc, uuid.New())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil for missing document, got %+v", doc)
	}
}

func TestDocumentCreateAndGet(t *testing.T) {
	conn := testutil.OpenTestDB(t)
	log, _ := logger.New("test")
	repo := NewDocumentRepo(conn, log)
	dbc := testutil.TxContext(t, conn)

	seeded := testutil.SeedDocument(t, dbc, uuid.New(), types.DocumentStatusProcessed)

	got, err := repo.GetByID(dbc, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected document, got nil")
	}
	if got.Status != types.DocumentStatusProcessed {
		t.Fatalf("status = %q, want %q", got.Status, types.DocumentStatusProcessed)
	}
	if got.FileName != "fixture.pdf" {
		t.Fatalf("file_name = %q", got.FileName)
	}
}

func TestDocumentUpdateFields(t *testing.T) {
	conn := testutil.OpenTestDB(t)
	log, _ := logger.New("test")
	repo := NewDocumentRepo(conn, log)
	dbc := testutil.TxContext(t, conn)

	seeded := testutil.SeedDocument(t, dbc, uuid.New(), types.DocumentStatusUploaded)

	err := repo.UpdateFields(dbc, seeded.ID, map[string]interface{}{
		"status":             types.DocumentStatusFailed,
		"error_message":      "text extraction failed",
		"processing_time_ms": int64(1234),
	})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	got, err := repo.GetByID(dbc, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.DocumentStatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.ErrorMessage != "text extraction failed" {
		t.Fatalf("error_message = %q", got.ErrorMessage)
	}
	if got.ProcessingTimeMs != 1234 {
		t.Fatalf("processing_time_ms = %d", got.ProcessingTimeMs)
	}
	if !got.UpdatedAt.After(seeded.UpdatedAt) {
		t.Fatalf("updated_at not advanced: %v <= %v", got.UpdatedAt, seeded.UpdatedAt)
	}
}

func TestDocumentGetByIDsSkipsMissing(t *testing.T) {
	conn := testutil.OpenTestDB(t)
	log, _ := logger.New("test")
	repo := NewDocumentRepo(conn, log)
	dbc := testutil.TxContext(t, conn)

	a := testutil.SeedDocument(t, dbc, uuid.New(), types.DocumentStatusUploaded)
	b := testutil.SeedDocument(t, dbc, uuid.New(), types.DocumentStatusProcessed)

	got, err := repo.GetByIDs(dbc, []uuid.UUID{a.ID, uuid.New(), b.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (missing id silently absent)", len(got))
	}
	found := map[uuid.UUID]bool{}
	for _, d := range got {
		found[d.ID] = true
	}
	if !found[a.ID] || !found[b.ID] {
		t.Fatalf("seeded documents not returned: %v", found)
	}
}
