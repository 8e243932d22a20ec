package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the database named by driver and dsn and configures
// its pool. SQLite defaults to a single connection.
func Open(driver, dsn string, opts ...PoolOption) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
		opts = append([]PoolOption{WithPoolConfig(SQLitePoolConfig())}, opts...)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("assetsync: unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if err := ConfigurePool(db, opts...); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenStorage opens the database and wraps it in a GormStorage.
func OpenStorage(driver, dsn string, opts ...PoolOption) (*GormStorage, error) {
	db, err := Open(driver, dsn, opts...)
	if err != nil {
		return nil, err
	}
	return NewGormStorage(db), nil
}
