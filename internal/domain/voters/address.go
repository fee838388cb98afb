package voters

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a Person's mailing address as recorded by the importer. It
// is intentionally separate from Household's address: a Person's address
// is importer-sourced free text, a Household's address is the normalized
// unit the geocoder acts on.
type Address struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonID uuid.UUID `gorm:"column:person_id;type:uuid;not null;index" json:"personId"`
	Line1    string    `gorm:"column:line1;not null" json:"line1"`
	City     string    `gorm:"column:city" json:"city"`
	State    string    `gorm:"column:state" json:"state"`
	Zip      string    `gorm:"column:zip" json:"zip"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Address) TableName() string { return "address" }

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
