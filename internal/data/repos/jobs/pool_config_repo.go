package jobs

import (
	"errors"
	"time"

	"gorm.io/gorm"

	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// PoolConfigRepo manages the single persisted worker-pool sizing row.
type PoolConfigRepo interface {
	Get(dbc dbctx.Context) (*domain.PoolConfig, error)
	Upsert(dbc dbctx.Context, cfg *domain.PoolConfig) (*domain.PoolConfig, error)
}

type poolConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPoolConfigRepo(db *gorm.DB, baseLog *logger.Logger) PoolConfigRepo {
	return &poolConfigRepo{db: db, log: baseLog.With("repo", "PoolConfigRepo")}
}

func (r *poolConfigRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *poolConfigRepo) Get(dbc dbctx.Context) (*domain.PoolConfig, error) {
	var cfg domain.PoolConfig
	err := r.tx(dbc).WithContext(dbc.Ctx).Order("updated_at DESC").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *poolConfigRepo) Upsert(dbc dbctx.Context, cfg *domain.PoolConfig) (*domain.PoolConfig, error) {
	existing, err := r.Get(dbc)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		cfg.UpdatedAt = time.Now()
		if err := r.tx(dbc).WithContext(dbc.Ctx).Create(cfg).Error; err != nil {
			return nil, err
		}
		return cfg, nil
	}
	cfg.ID = existing.ID
	cfg.UpdatedAt = time.Now()
	if err := r.tx(dbc).WithContext(dbc.Ctx).Save(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}
