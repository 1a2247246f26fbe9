// Package sqlitedb opens a migrated sqlite ledger for tests.
package sqlitedb

import (
	"path/filepath"
	"testing"

	"lending-ledger/internal/infrastructure/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh :memory: database with the ledger schema. The pool is
// pinned to one connection because every sqlite :memory: connection is its
// own database; that also serializes writers the way a row lock would.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, ":memory:")
}

// OpenFile is Open backed by a file in t.TempDir(). Use it when a test
// cancels a transaction mid-flight: database/sql may discard the connection
// then, which would take a :memory: database with it.
func OpenFile(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, filepath.Join(t.TempDir(), "ledger.db"))
}

func open(t testing.TB, dsn string) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
