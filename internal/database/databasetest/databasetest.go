// Package databasetest opens an in-memory SQLite database with the full
// schema migrated, for service and handler tests.
package databasetest

import (
	"testing"

	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/glebarez/sqlite"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a migrated database and a counter attached to it
func New(t testing.TB) (*database.DB, *database.QueryCounter) {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), gormlogger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// :memory: is per connection, keep a single one
	sqlDB, err := db.DB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	counter := &database.QueryCounter{}
	if err := db.Use(counter); err != nil {
		t.Fatalf("register counter: %v", err)
	}
	return db, counter
}
