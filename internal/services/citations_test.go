package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/scholardesk/scholardesk-backend/internal/clients/ai"
	citationrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/citations"
	"github.com/scholardesk/scholardesk-backend/internal/data/repos/testutil"
	types "github.com/scholardesk/scholardesk-backend/internal/domain"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/apierr"
)

func newCitationSvc(env *testEnv, aiClient ai.Client) CitationService {
	return NewCitationService(env.conn, env.cfg, aiClient, env.docs, env.cites, env.activity, env.log)
}

func TestExtractBatchRejectsOversizedBatch(t *testing.T) {
	env := newTestEnv(t)
	aiClient := &fakeAIClient{}
	svc := newCitationSvc(env, aiClient)

	ids := make([]uuid.UUID, 6)
	for i := range ids {
		ids[i] = uuid.New()
	}

	_, err := svc.ExtractBatch(env.dbc, ExtractBatchInput{DocumentIDs: ids})
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if aiClient.citationCalls != 0 {
		t.Fatal("AI called before batch validation")
	}
}

func TestExtractBatchRejectsEmptyBatch(t *testing.T) {
	env := newTestEnv(t)
	svc := newCitationSvc(env, &fakeAIClient{})

	_, err := svc.ExtractBatch(env.dbc, ExtractBatchInput{})
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestExtractBatchSkipsAlreadyExtracted(t *testing.T) {
	env := newTestEnv(t)
	aiClient := &fakeAIClient{}
	svc := newCitationSvc(env, aiClient)

	doc := testutil.SeedDocument(t, env.dbc, uuid.New(), types.DocumentStatusProcessed)
	testutil.SeedCitation(t, env.dbc, doc, types.CitationTypeJournal)

	res, err := svc.ExtractBatch(env.dbc, ExtractBatchInput{DocumentIDs: []uuid.UUID{doc.ID}})
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if len(res.Results) != 1 || !res.Results[0].Skipped {
		t.Fatalf("expected one skipped entry, got %+v", res.Results)
	}
	if res.Results[0].Reason == "" {
		t.Fatal("skip reason missing")
	}
	if aiClient.citationCalls != 0 {
		t.Fatal("AI called for a skipped document")
	}
}

func TestExtractBatchReprocessReplacesSet(t *testing.T) {
	env := newTestEnv(t)
	aiClient := &fakeAIClient{
		citations: []ai.CitationRecord{
			{Type: "article", Title: "Replacement One", Confidence: 0.9},
			{Type: "website", Title: "Replacement Two", URL: "https://example.org", Confidence: 0.7},
		},
	}
	svc := newCitationSvc(env, aiClient)

	doc := testutil.SeedDocument(t, env.dbc, uuid.New(), types.DocumentStatusProcessed)
	testutil.SeedCitation(t, env.dbc, doc, types.CitationTypeJournal)

	res, err := svc.ExtractBatch(env.dbc, ExtractBatchInput{
		DocumentIDs: []uuid.UUID{doc.ID},
		Reprocess:   true,
	})
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].CitationCount != 2 {
		t.Fatalf("expected one result with 2 citations, got %+v", res.Results)
	}

	rows, err := env.cites.List(env.dbc, citationrepo.Filter{DocumentID: &doc.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("stored citations = %d, want old set replaced by 2", len(rows))
	}
	for _, c := range rows {
		if c.Title == "Attention Is All You Need" {
			t.Fatal("old citation survived reprocess")
		}
		if c.FormattedAPA == "" {
			t.Fatal("formatted strings not precomputed at normalization")
		}
	}

	stored, _ := env.docs.GetByID(env.dbc, doc.ID)
	if stored.CitationCount != 2 {
		t.Fatalf("document citation_count = %d, want 2", stored.CitationCount)
	}
}

func TestExtractBatchIsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	aiClient := &fakeAIClient{
		citations: []ai.CitationRecord{{Type: "journal", Title: "Found One", Confidence: 0.8}},
	}
	svc := newCitationSvc(env, aiClient)

	good := testutil.SeedDocument(t, env.dbc, uuid.New(), types.DocumentStatusProcessed)
	missing := uuid.New()

	res, err := svc.ExtractBatch(env.dbc, ExtractBatchInput{
		DocumentIDs: []uuid.UUID{good.ID, missing},
	})
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if len(res.Results) != 1 {
		t.Fatalf("results = %+v, want one successful entry", res.Results)
	}
	if len(res.Errors) != 1 || res.Errors[0].DocumentID != missing {
		t.Fatalf("errors = %+v, want one entry for the missing document", res.Errors)
	}
}

func TestSaveExtractedNormalization(t *testing.T) {
	env := newTestEnv(t)
	svc := newCitationSvc(env, &fakeAIClient{})
	doc := testutil.SeedDocument(t, env.dbc, uuid.New(), types.DocumentStatusProcessed)

	year := 2020
	rows, typeCounts, err := svc.SaveExtracted(env.dbc, doc, []ai.CitationRecord{
		{Type: "Journal", Title: "  Kept  ", Authors: []string{" A ", ""}, Year: &year, Confidence: 1.7},
		{Type: "made-up-type", Title: "Other Typed"},
		{Type: "book", Title: "   "},
	}, false)
	if err != nil {
		t.Fatalf("SaveExtracted: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want untitled record dropped", len(rows))
	}
	if rows[0].Title != "Kept" {
		t.Fatalf("title not trimmed: %q", rows[0].Title)
	}
	if rows[0].ExtractedFrom != doc.FileName {
		t.Fatalf("extracted_from = %q, want source document name %q", rows[0].ExtractedFrom, doc.FileName)
	}
	if rows[0].Confidence != 1 {
		t.Fatalf("confidence not clamped: %v", rows[0].Confidence)
	}
	if rows[1].Type != types.CitationTypeOther {
		t.Fatalf("unknown type = %q, want other", rows[1].Type)
	}
	if typeCounts[types.CitationTypeJournal] != 1 || typeCounts[types.CitationTypeOther] != 1 {
		t.Fatalf("type counts wrong: %v", typeCounts)
	}
}

func TestExportBibTeXAndRIS(t *testing.T) {
	env := newTestEnv(t)
	svc := newCitationSvc(env, &fakeAIClient{})
	doc := testutil.SeedDocument(t, env.dbc, uuid.New(), types.DocumentStatusProcessed)
	testutil.SeedCitation(t, env.dbc, doc, types.CitationTypeJournal)

	bib, err := svc.Export(env.dbc, citationrepo.Filter{DocumentID: &doc.ID}, ExportFormatBibTeX)
	if err != nil {
		t.Fatalf("Export bibtex: %v", err)
	}
	if !strings.HasPrefix(bib, "@article{") {
		t.Fatalf("bibtex output does not start with @article entry: %q", bib)
	}

	ris, err := svc.Export(env.dbc, citationrepo.Filter{DocumentID: &doc.ID}, ExportFormatRIS)
	if err != nil {
		t.Fatalf("Export ris: %v", err)
	}
	if !strings.HasPrefix(ris, "TY  - JOUR") {
		t.Fatalf("ris output does not start with TY  - JOUR: %q", ris)
	}
	if !strings.Contains(ris, "ER  - ") {
		t.Fatal("ris record missing ER terminator")
	}

	_, err = svc.Export(env.dbc, citationrepo.Filter{DocumentID: &doc.ID}, "endnote")
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("unsupported format err = %v, want validation", err)
	}
}
