package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/smith3v/vocab-trainer/pkg/config"
	"github.com/smith3v/vocab-trainer/pkg/db"
	"gorm.io/gorm"
)

// SetupTestDB opens a migrated in-memory sqlite database private to t.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   MemoryDSN(t),
	}, "silent")
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access underlying DB: %v", err)
	}
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
	})
	return gdb
}

// MemoryDSN names a shared-cache in-memory database after the test.
func MemoryDSN(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}
