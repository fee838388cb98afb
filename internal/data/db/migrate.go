package db

import (
	"fmt"

	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrateAll registers every model owned by this service. Auth/session
// tables are out of scope per spec.md §1 — CreatedBy is a bare uuid column,
// not an enforced foreign key (AutoMigrate also runs with foreign keys
// disabled, matching the teacher's migration config).
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Durable job store + geocoding provider catalog + pool sizing (A, F).
		&domain.Job{},
		&domain.GeocodingProvider{},
		&domain.PoolConfig{},

		// Voter/household rows the importer and geocoding pipeline populate.
		&domain.Household{},
		&domain.Person{},
		&domain.Address{},
		&domain.Phone{},
		&domain.Email{},
	)
}

// EnsureJobIndexes adds the composite indexes GORM struct tags can't
// express on their own, grounded on the teacher's EnsureAuthIndexes shape
// (raw CREATE INDEX IF NOT EXISTS statements run once after AutoMigrate).
func EnsureJobIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_status_type
		ON job (status, type);
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_status_type: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_created_by_created_at
		ON job (created_by, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_created_by_created_at: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureJobIndexes(s.db); err != nil {
		s.log.Error("Job index migration failed", "error", err)
		return err
	}
	return nil
}
