package voters

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// HouseholdFilter narrows the work set the geocoding pipeline materializes
// (spec §4.5's "filters" field on a geocoding job's payload).
type HouseholdFilter struct {
	City         string
	State        string
	Zip          string
	SkipGeocoded bool
	Limit        int
}

// HouseholdRepo is the shared writer for household address/geocode fields.
// It is the one place the geocoding pipeline reads and persists results.
type HouseholdRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Household, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Household, error)
	List(dbc dbctx.Context, filter HouseholdFilter) ([]*domain.Household, error)
	Create(dbc dbctx.Context, h *domain.Household) (*domain.Household, error)

	// MarkGeocoded atomically writes the result of a successful geocode
	// call for one household.
	MarkGeocoded(dbc dbctx.Context, id uuid.UUID, lat, lng float64, provider string, at time.Time) error
}

type householdRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHouseholdRepo(db *gorm.DB, baseLog *logger.Logger) HouseholdRepo {
	return &householdRepo{db: db, log: baseLog.With("repo", "HouseholdRepo")}
}

func (r *householdRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *householdRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Household, error) {
	var h domain.Household
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *householdRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Household, error) {
	var out []*domain.Household
	if len(ids) == 0 {
		return out, nil
	}
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *householdRepo) List(dbc dbctx.Context, filter HouseholdFilter) ([]*domain.Household, error) {
	q := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Household{})
	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.State != "" {
		q = q.Where("state = ?", filter.State)
	}
	if filter.Zip != "" {
		q = q.Where("zip = ?", filter.Zip)
	}
	if filter.SkipGeocoded {
		q = q.Where("geocoded = ?", false)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 50000 {
		limit = 50000
	}
	var out []*domain.Household
	err := q.Order("created_at ASC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *householdRepo) Create(dbc dbctx.Context, h *domain.Household) (*domain.Household, error) {
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(h).Error; err != nil {
		return nil, err
	}
	return h, nil
}

func (r *householdRepo) MarkGeocoded(dbc dbctx.Context, id uuid.UUID, lat, lng float64, provider string, at time.Time) error {
	return r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Household{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"geocoded":           true,
			"latitude":           lat,
			"longitude":          lng,
			"geocoded_at":        at,
			"geocoding_provider": provider,
			"updated_at":         time.Now(),
		}).Error
}
