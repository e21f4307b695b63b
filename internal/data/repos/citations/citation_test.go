package citations

import (
	"testing"

	"github.com/google/uuid"

	"github.com/scholardesk/scholardesk-backend/internal/data/repos/testutil"
	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

func setup(t *testing.T) (CitationRepo, dbctx.Context) {
	t.Helper()
	conn := testutil.OpenTestDB(t)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewCitationRepo(conn, log), testutil.TxContext(t, conn)
}

func TestCitationListFiltersByType(t *testing.T) {
	repo, dbc := setup(t)
	doc := testutil.SeedDocument(t, dbc, uuid.New(), types.DocumentStatusProcessed)
	testutil.SeedCitation(t, dbc, doc, types.CitationTypeJournal)
	testutil.SeedCitation(t, dbc, doc, types.CitationTypeJournal)
	testutil.SeedCitation(t, dbc, doc, types.CitationTypeBook)

	got, err := repo.List(dbc, Filter{DocumentID: &doc.ID, Type: types.CitationTypeJournal})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, c := range got {
		if c.Type != types.CitationTypeJournal {
			t.Fatalf("type = %q, want journal", c.Type)
		}
	}
}

func TestCitationListPagination(t *testing.T) {
	repo, dbc := setup(t)
	doc := testutil.SeedDocument(t, dbc, uuid.New(), types.DocumentStatusProcessed)
	for i := 0; i < 5; i++ {
		testutil.SeedCitation(t, dbc, doc, types.CitationTypeArticle)
	}

	page, err := repo.List(dbc, Filter{DocumentID: &doc.ID, Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("len = %d, want 1 (last page)", len(page))
	}
}

func TestCitationCountByTypeForDocument(t *testing.T) {
	repo, dbc := setup(t)
	doc := testutil.SeedDocument(t, dbc, uuid.New(), types.DocumentStatusProcessed)
	testutil.SeedCitation(t, dbc, doc, types.CitationTypeJournal)
	testutil.SeedCitation(t, dbc, doc, types.CitationTypeJournal)
	testutil.SeedCitation(t, dbc, doc, types.CitationTypeWebsite)

	counts, err := repo.CountByTypeForDocument(dbc, doc.ID)
	if err != nil {
		t.Fatalf("CountByTypeForDocument: %v", err)
	}
	if counts[types.CitationTypeJournal] != 2 {
		t.Fatalf("journal count = %d, want 2", counts[types.CitationTypeJournal])
	}
	if counts[types.CitationTypeWebsite] != 1 {
		t.Fatalf("website count = %d, want 1", counts[types.CitationTypeWebsite])
	}
}

func TestCitationDeleteByDocument(t *testing.T) {
	repo, dbc := setup(t)
	doc := testutil.SeedDocument(t, dbc, uuid.New(), types.DocumentStatusProcessed)
	other := testutil.SeedDocument(t, dbc, doc.UserID, types.DocumentStatusProcessed)
	testutil.SeedCitation(t, dbc, doc, types.CitationTypeJournal)
	testutil.SeedCitation(t, dbc, doc, types.CitationTypeBook)
	testutil.SeedCitation(t, dbc, other, types.CitationTypeJournal)

	if err := repo.DeleteByDocument(dbc, doc.ID); err != nil {
		t.Fatalf("DeleteByDocument: %v", err)
	}

	n, err := repo.CountByDocument(dbc, doc.ID)
	if err != nil {
		t.Fatalf("CountByDocument: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d after delete, want 0", n)
	}

	remaining, err := repo.CountByDocument(dbc, other.ID)
	if err != nil {
		t.Fatalf("CountByDocument(other): %v", err)
	}
	if remaining != 1 {
		t.Fatalf("other document count = %d, want 1", remaining)
	}
}
