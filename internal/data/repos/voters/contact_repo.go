package voters

import (
	"gorm.io/gorm"

	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// AddressRepo, PhoneRepo, and EmailRepo are write-only append helpers used
// by the importer; nothing else in this repository mutates these tables.
type AddressRepo interface {
	Create(dbc dbctx.Context, a *domain.Address) (*domain.Address, error)
}

type PhoneRepo interface {
	Create(dbc dbctx.Context, p *domain.Phone) (*domain.Phone, error)
}

type EmailRepo interface {
	Create(dbc dbctx.Context, e *domain.Email) (*domain.Email, error)
}

type addressRepo struct{ db *gorm.DB }
type phoneRepo struct{ db *gorm.DB }
type emailRepo struct{ db *gorm.DB }

func NewAddressRepo(db *gorm.DB, baseLog *logger.Logger) AddressRepo { return &addressRepo{db: db} }
func NewPhoneRepo(db *gorm.DB, baseLog *logger.Logger) PhoneRepo     { return &phoneRepo{db: db} }
func NewEmailRepo(db *gorm.DB, baseLog *logger.Logger) EmailRepo     { return &emailRepo{db: db} }

func tx(dbc dbctx.Context, db *gorm.DB) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return db
}

func (r *addressRepo) Create(dbc dbctx.Context, a *domain.Address) (*domain.Address, error) {
	if err := tx(dbc, r.db).WithContext(dbc.Ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *phoneRepo) Create(dbc dbctx.Context, p *domain.Phone) (*domain.Phone, error) {
	if err := tx(dbc, r.db).WithContext(dbc.Ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *emailRepo) Create(dbc dbctx.Context, e *domain.Email) (*domain.Email, error) {
	if err := tx(dbc, r.db).WithContext(dbc.Ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}
