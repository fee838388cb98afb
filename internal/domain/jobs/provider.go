package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeocodingProvider is a durable config row describing one geocoding
// backend available to the pipeline. Rows are owned by the config surface
// (handlers/repo), read-only to the pipeline at job-run time.
type GeocodingProvider struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProviderID   string         `gorm:"column:provider_id;uniqueIndex;not null" json:"providerId"`
	ProviderName string         `gorm:"column:provider_name;not null" json:"providerName"`
	IsEnabled    bool           `gorm:"column:is_enabled;not null;default:true" json:"isEnabled"`
	IsPrimary    bool           `gorm:"column:is_primary;not null;default:false" json:"isPrimary"`
	Priority     int            `gorm:"column:priority;not null;default:0;index" json:"priority"`
	Config       datatypes.JSON `gorm:"column:config;type:jsonb" json:"config"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (GeocodingProvider) TableName() string { return "geocoding_provider" }

func (p *GeocodingProvider) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PoolConfig is the single persisted row describing worker pool sizing.
// It is read once at startup (App.Start); there is exactly one
// row, upserted in place.
type PoolConfig struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MaxWorkers       int       `gorm:"column:max_workers;not null;default:8" json:"maxWorkers"`
	ImportWorkers    int       `gorm:"column:import_workers;not null;default:2" json:"importWorkers"`
	GeocodeWorkers   int       `gorm:"column:geocode_workers;not null;default:4" json:"geocodeWorkers"`
	ScheduledWorkers int       `gorm:"column:scheduled_workers;not null;default:2" json:"scheduledWorkers"`
	UpdatedAt        time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (PoolConfig) TableName() string { return "pool_config" }

func (c *PoolConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
