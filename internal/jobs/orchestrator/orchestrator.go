package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/voter-canvass-backend/internal/data/repos"
	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
	"github.com/yungbote/voter-canvass-backend/internal/services"
)

// ErrIllegalTransition is returned when a control action does not apply to
// a job's current state (the state machine in spec §4.1). Handlers map it
// to 400; it never reaches the durable store as a job mutation.
var ErrIllegalTransition = errors.New("orchestrator: illegal state transition")

// CreateOptions seeds a new job's counters.
type CreateOptions struct {
	TotalItems int
	IsDynamic  bool

	// SkipEnqueue leaves the newly created row pending without attempting
	// the broker handoff. Callers that need a propagated enqueue error to
	// react to synchronously (voter-import's "delete the file and cancel
	// the job" contract, spec §6) set this and call Broker.Enqueue
	// themselves; every other caller relies on Create's own best-effort
	// enqueue, swallowed as a warning because recovery's startup scan
	// re-enqueues anything left pending anyway.
	SkipEnqueue bool
}

// Orchestrator is component C: CRUD over job rows, the state machine, and
// the mediator between API callers / workers and the broker. It is the
// only component permitted to mutate a Job's status, counters, or error
// log — grounded on the teacher's JobRunRepo.UpdateFieldsUnlessStatus
// CAS pattern, re-expressed against the flat Job model.
type Orchestrator interface {
	Create(ctx context.Context, jobType string, createdBy uuid.UUID, payload map[string]any, opts CreateOptions) (*domain.Job, error)
	Start(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	List(ctx context.Context, filter repos.ListFilter) ([]*domain.Job, int64, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, processed int, total *int) error
	AppendError(ctx context.Context, id uuid.UUID, message string)
	Complete(ctx context.Context, id uuid.UUID, outputStats map[string]any) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
	Pause(ctx context.Context, id uuid.UUID, reason string) error
	Resume(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID, reason string) error
	UpdatePayload(ctx context.Context, id uuid.UUID, payload map[string]any) error
}

type orchestrator struct {
	jobs   repos.JobRepo
	broker broker.Broker
	notify services.JobNotifier
	log    *logger.Logger
}

func New(jobs repos.JobRepo, brk broker.Broker, notify services.JobNotifier, baseLog *logger.Logger) Orchestrator {
	return &orchestrator{
		jobs:   jobs,
		broker: brk,
		notify: notify,
		log:    baseLog.With("component", "Orchestrator"),
	}
}

func (o *orchestrator) Create(ctx context.Context, jobType string, createdBy uuid.UUID, payload map[string]any, opts CreateOptions) (*domain.Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	job := &domain.Job{
		Type:       jobType,
		Status:     jobsdomain.StatusPending,
		IsDynamic:  opts.IsDynamic,
		TotalItems: opts.TotalItems,
		Payload:    datatypes.JSON(raw),
		CreatedBy:  createdBy,
	}
	created, err := o.jobs.Create(dbctx.Context{Ctx: ctx}, job)
	if err != nil {
		return nil, err
	}
	if opts.SkipEnqueue {
		return created, nil
	}
	queue := jobsdomain.QueueForType(jobType)
	if err := o.broker.Enqueue(ctx, queue, created.ID.String(), raw, broker.EnqueueOptions{}); err != nil {
		// Job remains durably pending; recovery's startup scan will
		// re-enqueue it even if this process never retries directly.
		o.log.Warn("enqueue after create failed", "job_id", created.ID, "queue", queue, "error", err)
	}
	return created, nil
}

func (o *orchestrator) Start(ctx context.Context, id uuid.UUID) (bool, error) {
	return o.jobs.StartIfPending(dbctx.Context{Ctx: ctx}, id, time.Now())
}

func (o *orchestrator) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return o.jobs.GetByID(dbctx.Context{Ctx: ctx}, id)
}

func (o *orchestrator) List(ctx context.Context, filter repos.ListFilter) ([]*domain.Job, int64, error) {
	return o.jobs.List(dbctx.Context{Ctx: ctx}, filter)
}

func (o *orchestrator) UpdateProgress(ctx context.Context, id uuid.UUID, processed int, total *int) error {
	if err := o.jobs.UpdateProgress(dbctx.Context{Ctx: ctx}, id, processed, total); err != nil {
		return err
	}
	o.notifyProgress(ctx, id)
	return nil
}

func (o *orchestrator) notifyProgress(ctx context.Context, id uuid.UUID) {
	if o.notify == nil {
		return
	}
	job, err := o.jobs.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil || job == nil {
		return
	}
	o.notify.Progress(job, "")
}

// AppendError never fails the job itself; a write error here is a logging
// concern for the caller, not a job-level failure (spec §3).
func (o *orchestrator) AppendError(ctx context.Context, id uuid.UUID, message string) {
	if err := o.jobs.AppendError(dbctx.Context{Ctx: ctx}, id, message); err != nil {
		o.log.Warn("append error log failed", "job_id", id, "error", err)
	}
}

func (o *orchestrator) Complete(ctx context.Context, id uuid.UUID, outputStats map[string]any) error {
	var raw datatypes.JSON
	if outputStats != nil {
		b, err := json.Marshal(outputStats)
		if err != nil {
			return fmt.Errorf("marshal output stats: %w", err)
		}
		raw = datatypes.JSON(b)
	}
	ok, err := o.jobs.Complete(dbctx.Context{Ctx: ctx}, id, raw, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: job %s is not processing", ErrIllegalTransition, id)
	}
	if o.notify != nil {
		if job, _ := o.jobs.GetByID(dbctx.Context{Ctx: ctx}, id); job != nil {
			o.notify.Completed(job)
		}
	}
	return nil
}

// Fail transitions from any non-terminal state, per spec §4.1.
func (o *orchestrator) Fail(ctx context.Context, id uuid.UUID, message string) error {
	ok, err := o.jobs.Fail(dbctx.Context{Ctx: ctx}, id, message, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: job %s is already terminal", ErrIllegalTransition, id)
	}
	if o.notify != nil {
		if job, _ := o.jobs.GetByID(dbctx.Context{Ctx: ctx}, id); job != nil {
			o.notify.Failed(job, message)
		}
	}
	return nil
}

func (o *orchestrator) Pause(ctx context.Context, id uuid.UUID, reason string) error {
	job, err := o.jobs.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: job %s not found", ErrIllegalTransition, id)
	}
	ok, err := o.jobs.Pause(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: job %s cannot be paused from %s", ErrIllegalTransition, id, job.Status)
	}
	// Evict an unstarted job from the broker; a running worker observes the
	// paused status at its next suspension point instead.
	_ = o.broker.Remove(ctx, jobsdomain.QueueForType(job.Type), id.String())
	if o.notify != nil {
		job.Status = jobsdomain.StatusPaused
		o.notify.Paused(job, reason)
	}
	return nil
}

func (o *orchestrator) Resume(ctx context.Context, id uuid.UUID) error {
	job, err := o.jobs.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: job %s not found", ErrIllegalTransition, id)
	}
	ok, err := o.jobs.Resume(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: job %s is not paused", ErrIllegalTransition, id)
	}
	queue := jobsdomain.QueueForType(job.Type)
	if err := o.broker.Enqueue(ctx, queue, id.String(), job.Payload, broker.EnqueueOptions{}); err != nil {
		o.log.Warn("re-enqueue on resume failed", "job_id", id, "queue", queue, "error", err)
	}
	return nil
}

func (o *orchestrator) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	job, err := o.jobs.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: job %s not found", ErrIllegalTransition, id)
	}
	if isTerminal(job.Status) {
		// Cancelling an already-terminal job is a no-op per spec §5.
		return nil
	}
	ok, err := o.jobs.Cancel(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: job %s could not be cancelled", ErrIllegalTransition, id)
	}
	_ = o.broker.Remove(ctx, jobsdomain.QueueForType(job.Type), id.String())
	if o.notify != nil {
		job.Status = jobsdomain.StatusCancelled
		o.notify.Cancelled(job, reason)
	}
	return nil
}

func (o *orchestrator) UpdatePayload(ctx context.Context, id uuid.UUID, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return o.jobs.UpdatePayload(dbctx.Context{Ctx: ctx}, id, datatypes.JSON(raw))
}

func isTerminal(status string) bool {
	switch status {
	case jobsdomain.StatusCompleted, jobsdomain.StatusFailed, jobsdomain.StatusCancelled:
		return true
	default:
		return false
	}
}
