package voters

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Phone and Email are minimal contact rows attached to a Person by the
// importer. Kind distinguishes e.g. "mobile"/"home" or "primary"/"alt";
// the importer assigns whatever the source format's column implies.
type Phone struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonID  uuid.UUID `gorm:"column:person_id;type:uuid;not null;index" json:"personId"`
	Value     string    `gorm:"column:value;not null" json:"value"`
	Kind      string    `gorm:"column:kind" json:"kind,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
}

func (Phone) TableName() string { return "phone" }

func (p *Phone) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Email struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonID  uuid.UUID `gorm:"column:person_id;type:uuid;not null;index" json:"personId"`
	Value     string    `gorm:"column:value;not null" json:"value"`
	Kind      string    `gorm:"column:kind" json:"kind,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
}

func (Email) TableName() string { return "email" }

func (e *Email) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
