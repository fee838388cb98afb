package voters

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Person is the row the voter-import runners create or upsert, one per
// CSV record. VoterID is the format-specific unique key used by
// incremental imports to decide create-vs-update.
type Person struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FirstName   string     `gorm:"column:first_name;not null" json:"firstName"`
	LastName    string     `gorm:"column:last_name;not null" json:"lastName"`
	VoterID     string     `gorm:"column:voter_id;uniqueIndex;not null" json:"voterId"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth" json:"dateOfBirth,omitempty"`
	HouseholdID *uuid.UUID `gorm:"column:household_id;type:uuid;index" json:"householdId,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Person) TableName() string { return "person" }

func (p *Person) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
