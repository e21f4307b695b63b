package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/scholardesk/scholardesk-backend/internal/config"
	activityrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/activity"
	chatrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/chat"
	citationrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/citations"
	documentrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/documents"
	"github.com/scholardesk/scholardesk-backend/internal/data/repos/testutil"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

type testEnv struct {
	conn     *gorm.DB
	dbc      dbctx.Context
	log      *logger.Logger
	cfg      config.ProcessingConfig
	docs     documentrepo.DocumentRepo
	cites    citationrepo.CitationRepo
	sessions chatrepo.ChatSessionRepo
	messages chatrepo.ChatMessageRepo
	activity ActivityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := testutil.OpenTestDB(t)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cfg := config.ProcessingConfig{
		CitationBatchMax: 5,
		QuestionMaxLen:   2000,
		KeywordTopN:      10,
		SummaryMaxLength: 500,
		StageTimeout:     5 * time.Second,
		AnswerTimeout:    2 * time.Second,
		HealthTimeout:    time.Second,
	}
	return &testEnv{
		conn:     conn,
		dbc:      dbctx.Context{Ctx: context.Background(), Tx: conn},
		log:      log,
		cfg:      cfg,
		docs:     documentrepo.NewDocumentRepo(conn, log),
		cites:    citationrepo.NewCitationRepo(conn, log),
		sessions: chatrepo.NewChatSessionRepo(conn, log),
		messages: chatrepo.NewChatMessageRepo(conn, log),
		activity: NewActivityService(activityrepo.NewActivityEventRepo(conn, log), log),
	}
}
