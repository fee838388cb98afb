package voters

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// PersonRepo is written to exclusively by the voter-import runners.
type PersonRepo interface {
	GetByVoterID(dbc dbctx.Context, voterID string) (*domain.Person, error)
	Create(dbc dbctx.Context, p *domain.Person) (*domain.Person, error)

	// Upsert inserts p, or updates the existing row sharing its VoterID —
	// the "incremental" import mode's create-vs-update decision.
	Upsert(dbc dbctx.Context, p *domain.Person) (created bool, err error)
}

type personRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonRepo(db *gorm.DB, baseLog *logger.Logger) PersonRepo {
	return &personRepo{db: db, log: baseLog.With("repo", "PersonRepo")}
}

func (r *personRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *personRepo) GetByVoterID(dbc dbctx.Context, voterID string) (*domain.Person, error) {
	var p domain.Person
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("voter_id = ?", voterID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *personRepo) Create(dbc dbctx.Context, p *domain.Person) (*domain.Person, error) {
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *personRepo) Upsert(dbc dbctx.Context, p *domain.Person) (bool, error) {
	existing, err := r.GetByVoterID(dbc, p.VoterID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return true, r.tx(dbc).WithContext(dbc.Ctx).Create(p).Error
	}
	p.ID = existing.ID
	err = r.tx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "voter_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "date_of_birth", "household_id", "updated_at"}),
		}).
		Save(p).Error
	return false, err
}
