package voters

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Household is the geocoding pipeline's unit of work. The pipeline reads
// and writes only the address and geocode fields below; everything else
// about a household (membership, canvass history) is out of scope.
type Household struct {
	ID    uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Line1 string    `gorm:"column:line1;not null" json:"line1"`
	City  string    `gorm:"column:city;not null" json:"city"`
	State string    `gorm:"column:state;not null" json:"state"`
	Zip   string    `gorm:"column:zip;not null;index" json:"zip"`

	Geocoded          bool       `gorm:"column:geocoded;not null;default:false;index" json:"geocoded"`
	Latitude          *float64   `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude         *float64   `gorm:"column:longitude" json:"longitude,omitempty"`
	GeocodedAt        *time.Time `gorm:"column:geocoded_at" json:"geocodedAt,omitempty"`
	GeocodingProvider string     `gorm:"column:geocoding_provider" json:"geocodingProvider,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Household) TableName() string { return "household" }

func (h *Household) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Address renders the single-line address string the geocoding providers
// consume. An empty Line1 yields an empty address, which the pipeline
// treats as "skip and log" rather than sending to a provider.
func (h *Household) Address() string {
	if h.Line1 == "" {
		return ""
	}
	addr := h.Line1
	if h.City != "" {
		addr += ", " + h.City
	}
	if h.State != "" {
		addr += ", " + h.State
	}
	if h.Zip != "" {
		addr += " " + h.Zip
	}
	return addr
}
