package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// ErrDeletePrimary is returned by Delete when a caller attempts to delete
// the primary provider without first designating a replacement.
var ErrDeletePrimary = errors.New("cannot delete the primary geocoding provider")

// ProviderRepo owns the geocoding provider config rows. It enforces the
// "at most one primary" invariant on every write that touches IsPrimary.
type ProviderRepo interface {
	Create(dbc dbctx.Context, p *domain.GeocodingProvider) (*domain.GeocodingProvider, error)
	GetByProviderID(dbc dbctx.Context, providerID string) (*domain.GeocodingProvider, error)
	ListEnabled(dbc dbctx.Context) ([]*domain.GeocodingProvider, error)
	ListAll(dbc dbctx.Context) ([]*domain.GeocodingProvider, error)

	// SetPrimary clears IsPrimary on every other row and sets it on id,
	// inside one transaction, preserving the invariant.
	SetPrimary(dbc dbctx.Context, id uuid.UUID) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type providerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProviderRepo(db *gorm.DB, baseLog *logger.Logger) ProviderRepo {
	return &providerRepo{db: db, log: baseLog.With("repo", "ProviderRepo")}
}

func (r *providerRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *providerRepo) Create(dbc dbctx.Context, p *domain.GeocodingProvider) (*domain.GeocodingProvider, error) {
	return p, r.tx(dbc).Transaction(func(txx *gorm.DB) error {
		if p.IsPrimary {
			if err := txx.WithContext(dbc.Ctx).Model(&domain.GeocodingProvider{}).
				Where("is_primary = ?", true).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return txx.WithContext(dbc.Ctx).Create(p).Error
	})
}

func (r *providerRepo) GetByProviderID(dbc dbctx.Context, providerID string) (*domain.GeocodingProvider, error) {
	var p domain.GeocodingProvider
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("provider_id = ?", providerID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *providerRepo) ListEnabled(dbc dbctx.Context) ([]*domain.GeocodingProvider, error) {
	var out []*domain.GeocodingProvider
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("is_enabled = ?", true).
		Order("is_primary DESC, priority ASC").
		Find(&out).Error
	return out, err
}

func (r *providerRepo) ListAll(dbc dbctx.Context) ([]*domain.GeocodingProvider, error) {
	var out []*domain.GeocodingProvider
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Order("is_primary DESC, priority ASC").
		Find(&out).Error
	return out, err
}

func (r *providerRepo) SetPrimary(dbc dbctx.Context, id uuid.UUID) error {
	return r.tx(dbc).Transaction(func(txx *gorm.DB) error {
		if err := txx.WithContext(dbc.Ctx).Model(&domain.GeocodingProvider{}).
			Where("id <> ?", id).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return txx.WithContext(dbc.Ctx).Model(&domain.GeocodingProvider{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"is_primary": true, "updated_at": time.Now()}).Error
	})
}

func (r *providerRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	var p domain.GeocodingProvider
	if err := r.tx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if p.IsPrimary {
		return fmt.Errorf("%w: %s", ErrDeletePrimary, p.ProviderID)
	}
	return r.tx(dbc).WithContext(dbc.Ctx).Delete(&domain.GeocodingProvider{}, "id = ?", id).Error
}
