package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/voter-canvass-backend/internal/domain"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB opens a fresh in-memory SQLite database per call, migrated with the
// full model set, so repo tests never depend on external infrastructure.
// The teacher's equivalent (testutil.DB) requires a live TEST_POSTGRES_DSN
// and skips otherwise; this repo trades that Postgres-specific coverage
// (jsonb operators, SKIP LOCKED) for tests that always run in CI.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	// A uniquely named database per call: cache=shared lets the pool's
	// connections see the same data without sharing it across calls.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := autoMigrateAll(db); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func autoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Job{},
		&types.GeocodingProvider{},
		&types.PoolConfig{},
		&types.Household{},
		&types.Person{},
		&types.Address{},
		&types.Phone{},
		&types.Email{},
	)
}
