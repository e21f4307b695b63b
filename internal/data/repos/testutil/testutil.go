package testutil

import (
	"context"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/scholardesk/scholardesk-backend/internal/data/db"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
)

// OpenTestDB returns a migrated database handle. It prefers the postgres
// instance named by TEST_POSTGRES_DSN and falls back to an in-memory sqlite
// database so the repo suites run without infrastructure.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var (
		conn *gorm.DB
		err  error
	)
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		conn, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		conn, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), cfg)
	}
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrateAll(conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

// TxContext wraps the test in a transaction that is rolled back on cleanup,
// so tests never leak rows into each other.
func TxContext(t *testing.T, conn *gorm.DB) dbctx.Context {
	t.Helper()

	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin test tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		tx.Rollback()
	})
	return dbctx.Context{Ctx: context.Background(), Tx: tx}
}
