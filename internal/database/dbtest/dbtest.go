// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"aish-backend/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated SQLite database stored in a temp file. A file is
// used rather than ":memory:" so every pooled connection sees the same data.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "aish.db")
	db, err := database.OpenDialector(sqlite.Open(path+"?_busy_timeout=5000"), logger.Silent)
	if err != nil {
		tb.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate test database: %v", err)
	}
	tb.Cleanup(func() { _ = database.Close(db) })
	return db
}
