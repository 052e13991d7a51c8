// Package dbtest opens the Postgres database used by integration tests.
package dbtest

import (
	"os"
	"testing"

	"catering-backend/internal/database"

	"gorm.io/gorm"
)

// Tx returns a migrated connection wrapped in a transaction that is
// rolled back when the test ends. Tests are skipped unless
// INTEGRATION_TESTS=1 and DATABASE_DSN point at a disposable Postgres.
func Tx(t testing.TB) *gorm.DB {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 and DATABASE_DSN to run against Postgres")
	}
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		t.Skip("DATABASE_DSN not set")
	}

	db, err := database.Open(dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin: %v", tx.Error)
	}
	t.Cleanup(func() {
		tx.Rollback()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return tx
}
