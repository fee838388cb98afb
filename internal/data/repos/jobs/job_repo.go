package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// ListFilter narrows JobRepo.List by the fields the control plane exposes
// (GET /jobs query params).
type ListFilter struct {
	Type      string
	Status    string
	CreatedBy *uuid.UUID
	Limit     int
	Offset    int
}

// JobRepo is the durable job store (component A). Every state transition
// goes through a guarded UPDATE ... WHERE id = ? AND status = ? so that
// concurrent callers (handler + recovery + worker) never double-apply a
// transition; RowsAffected is the sole success signal, never a prior SELECT.
type JobRepo interface {
	Create(dbc dbctx.Context, job *domain.Job) (*domain.Job, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Job, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*domain.Job, int64, error)

	// StartIfPending performs the pending->processing CAS. Returns false,
	// nil if the row was not in pending (already started, or terminal) —
	// this is the idempotency guard the worker pool relies on.
	StartIfPending(dbc dbctx.Context, id uuid.UUID, startedAt time.Time) (bool, error)

	UpdateProgress(dbc dbctx.Context, id uuid.UUID, processed int, total *int) error
	AppendError(dbc dbctx.Context, id uuid.UUID, message string) error

	Complete(dbc dbctx.Context, id uuid.UUID, outputStats datatypes.JSON, completedAt time.Time) (bool, error)
	Fail(dbc dbctx.Context, id uuid.UUID, message string, completedAt time.Time) (bool, error)
	Pause(dbc dbctx.Context, id uuid.UUID) (bool, error)
	Resume(dbc dbctx.Context, id uuid.UUID) (bool, error)
	Cancel(dbc dbctx.Context, id uuid.UUID) (bool, error)

	UpdatePayload(dbc dbctx.Context, id uuid.UUID, payload datatypes.JSON) error

	// ListResumable returns every non-terminal job (pending or processing),
	// the set recovery reconciles at startup.
	ListResumable(dbc dbctx.Context) ([]*domain.Job, error)

	// NormalizeProcessingToPending performs the processing->pending CAS
	// recovery uses to make a job whose worker died reclaimable by the
	// Start CAS again. It is distinct from Resume, which only applies
	// from paused.
	NormalizeProcessingToPending(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{db: db, log: baseLog.With("repo", "JobRepo")}
}

func (r *jobRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *jobRepo) Create(dbc dbctx.Context, job *domain.Job) (*domain.Job, error) {
	if job.ErrorLog == nil {
		job.ErrorLog = datatypes.JSON("[]")
	}
	if job.Payload == nil {
		job.Payload = datatypes.JSON("{}")
	}
	if job.Status == "" {
		job.Status = jobsdomain.StatusPending
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) List(dbc dbctx.Context, filter ListFilter) ([]*domain.Job, int64, error) {
	q := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CreatedBy != nil {
		q = q.Where("created_by = ?", *filter.CreatedBy)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	var out []*domain.Job
	err := q.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *jobRepo) StartIfPending(dbc dbctx.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	res := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{}).
		Where("id = ? AND status = ?", id, jobsdomain.StatusPending).
		Updates(map[string]interface{}{
			"status":     jobsdomain.StatusProcessing,
			"started_at": startedAt,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRepo) UpdateProgress(dbc dbctx.Context, id uuid.UUID, processed int, total *int) error {
	updates := map[string]interface{}{
		"processed_items": processed,
		"updated_at":      time.Now(),
	}
	if total != nil {
		updates["total_items"] = *total
	}
	return r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Updates(updates).Error
}

// AppendError pushes one entry onto the bounded error log. It never fails
// the job itself — a write error here is logged by the caller, not
// propagated into the job's status.
func (r *jobRepo) AppendError(dbc dbctx.Context, id uuid.UUID, message string) error {
	job, err := r.GetByID(dbc, id)
	if err != nil || job == nil {
		return err
	}
	entries, _ := decodeErrorLog(job.ErrorLog)
	entries = append(entries, jobsdomain.ErrorEntry{Timestamp: time.Now(), Message: message})
	if len(entries) > jobsdomain.MaxErrorLogEntries {
		entries = entries[len(entries)-jobsdomain.MaxErrorLogEntries:]
	}
	encoded, err := encodeErrorLog(entries)
	if err != nil {
		return err
	}
	return r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"error_log":  encoded,
			"updated_at": time.Now(),
		}).Error
}

var terminalStatuses = []string{jobsdomain.StatusCompleted, jobsdomain.StatusFailed, jobsdomain.StatusCancelled}

func (r *jobRepo) Complete(dbc dbctx.Context, id uuid.UUID, outputStats datatypes.JSON, completedAt time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":       jobsdomain.StatusCompleted,
		"completed_at": completedAt,
		"updated_at":   time.Now(),
	}
	if outputStats != nil {
		updates["output_stats"] = outputStats
	}
	res := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{}).
		Where("id = ? AND status = ?", id, jobsdomain.StatusProcessing).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRepo) Fail(dbc dbctx.Context, id uuid.UUID, message string, completedAt time.Time) (bool, error) {
	res := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Updates(map[string]interface{}{
			"status":       jobsdomain.StatusFailed,
			"completed_at": completedAt,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	ok := res.RowsAffected > 0
	if ok && message != "" {
		_ = r.AppendError(dbc, id, message)
	}
	return ok, nil
}

func (r *jobRepo) Pause(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{}).
		Where("id = ? AND status IN ?", id, []string{jobsdomain.StatusPending, jobsdomain.StatusProcessing}).
		Updates(map[string]interface{}{
			"status":     jobsdomain.StatusPaused,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRepo) Resume(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{}).
		Where("id = ? AND status = ?", id, jobsdomain.StatusPaused).
		Updates(map[string]interface{}{
			"status":       jobsdomain.StatusPending,
			"completed_at": nil,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRepo) Cancel(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{}).
		Where("id = ? AND status IN ?", id, []string{jobsdomain.StatusPending, jobsdomain.StatusPaused, jobsdomain.StatusProcessing}).
		Updates(map[string]interface{}{
			"status":       jobsdomain.StatusCancelled,
			"completed_at": time.Now(),
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRepo) UpdatePayload(dbc dbctx.Context, id uuid.UUID, payload datatypes.JSON) error {
	return r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payload":    payload,
			"updated_at": time.Now(),
		}).Error
}

func (r *jobRepo) NormalizeProcessingToPending(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.Job{}).
		Where("id = ? AND status = ?", id, jobsdomain.StatusProcessing).
		Updates(map[string]interface{}{
			"status":     jobsdomain.StatusPending,
			"started_at": nil,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRepo) ListResumable(dbc dbctx.Context) ([]*domain.Job, error) {
	var out []*domain.Job
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("status IN ?", []string{jobsdomain.StatusPending, jobsdomain.StatusProcessing}).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
