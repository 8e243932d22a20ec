package target

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a database for tests.
// When TEST_DATABASE_URL is set it connects to PostgreSQL; otherwise it
// opens a fresh in-memory SQLite instance pinned to one connection.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), cfg)
		require.NoError(t, err, "open postgres test db")

		sqlDB, err := db.DB()
		require.NoError(t, err, "get underlying sql.DB")
		sqlDB.SetMaxOpenConns(2)

		cleanup := func() {
			db.Exec("DELETE FROM target_assets")
			db.Exec("DELETE FROM target_metadata")
		}
		cleanup()
		t.Cleanup(func() {
			cleanup()
			_ = sqlDB.Close()
		})
		return db
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err, "open in-memory sqlite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every new connection would see its own empty in-memory database.
	sqlDB.SetMaxOpenConns(1)
	return db
}
