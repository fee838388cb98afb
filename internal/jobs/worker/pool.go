package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/runtime"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

/*
Pool is the execution engine for one broker queue.

It is grounded on the teacher's single Worker type (claim -> dispatch ->
heartbeat -> panic recovery), generalized two ways:
  - claims come from a Broker queue instead of a SQL ClaimNextRunnable query,
    so durable state lives in the Orchestrator rather than the claim itself;
  - one Pool exists per queue (voter-import, geocode, scheduled), each with
    an independently resizable goroutine count, per spec §5's per-queue
    concurrency model.

Retries are the broker's concern (Nack with requeue), not the pool's: a
pool only ever runs a handler once per claim and reports the outcome back
via Ack/Nack.
*/
type Pool struct {
	queue        string
	log          *logger.Logger
	broker       broker.Broker
	orchestrator orchestrator.Orchestrator
	registry     *runtime.Registry

	mu      sync.Mutex
	cancel  []context.CancelFunc
	running atomic.Int32
}

func NewPool(queue string, brk broker.Broker, orch orchestrator.Orchestrator, registry *runtime.Registry, baseLog *logger.Logger) *Pool {
	return &Pool{
		queue:        queue,
		broker:       brk,
		orchestrator: orch,
		registry:     registry,
		log:          baseLog.With("component", "WorkerPool", "queue", queue),
	}
}

// Start launches n goroutines, each running an independent claim loop.
func (p *Pool) Start(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	p.log.Info("starting worker pool", "size", n)
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < n; i++ {
		unitCtx, cancel := context.WithCancel(ctx)
		p.cancel = append(p.cancel, cancel)
		p.running.Add(1)
		go p.runLoop(unitCtx, ctx, i+1)
	}
}

// Reconfigure changes the pool's goroutine count at runtime: it stops all
// current workers (each finishes its in-flight unit first, since cancel
// only prevents the *next* claim) and starts fresh ones sized to n. Per
// spec §5, resizing never aborts work already claimed.
func (p *Pool) Reconfigure(ctx context.Context, n int) {
	p.mu.Lock()
	old := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	for _, c := range old {
		c()
	}
	p.Start(ctx, n)
}

func (p *Pool) Size() int {
	return int(p.running.Load())
}

// runLoop claims with ctx (cancelled by Reconfigure) but runs each claimed
// unit with workCtx, so stopping a worker never cancels its in-flight unit.
func (p *Pool) runLoop(ctx, workCtx context.Context, workerID int) {
	defer p.running.Add(-1)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("worker stopped", "worker_id", workerID)
			return
		default:
		}

		unit, err := p.broker.Claim(ctx, p.queue, fmt.Sprintf("%s-%d", p.queue, workerID), 2*time.Second)
		if err != nil {
			if err == broker.ErrClaimTimeout {
				continue
			}
			p.log.Warn("claim failed", "worker_id", workerID, "error", err)
			continue
		}

		p.runUnit(workCtx, workerID, unit)
	}
}

func (p *Pool) runUnit(ctx context.Context, workerID int, unit *broker.Unit) {
	jobID, err := uuid.Parse(unit.JobKey)
	if err != nil {
		p.log.Error("claimed unit has a non-uuid job key", "worker_id", workerID, "job_key", unit.JobKey)
		_ = p.broker.Nack(ctx, p.queue, unit.Token, false)
		return
	}

	// The Start CAS is the one place a redelivered or duplicate claim is
	// rejected harmlessly: a job already processing (or terminal) yields
	// false here and the unit is simply acked away.
	started, err := p.orchestrator.Start(ctx, jobID)
	if err != nil {
		p.log.Warn("start failed", "worker_id", workerID, "job_id", jobID, "error", err)
		_ = p.broker.Nack(ctx, p.queue, unit.Token, true)
		return
	}
	if !started {
		_ = p.broker.Ack(ctx, p.queue, unit.Token)
		return
	}

	job, err := p.orchestrator.GetByID(ctx, jobID)
	if err != nil || job == nil {
		p.log.Error("job vanished after start", "worker_id", workerID, "job_id", jobID, "error", err)
		_ = p.orchestrator.Fail(ctx, jobID, "job record not found after start")
		_ = p.broker.Ack(ctx, p.queue, unit.Token)
		return
	}

	h, ok := p.registry.Get(job.Type)
	if !ok {
		p.log.Warn("no handler registered for job type", "worker_id", workerID, "job_type", job.Type, "job_id", jobID)
		_ = p.orchestrator.Fail(ctx, jobID, fmt.Sprintf("no handler registered for job type %q", job.Type))
		_ = p.broker.Ack(ctx, p.queue, unit.Token)
		return
	}

	jc := runtime.NewContext(ctx, job, p.orchestrator)

	func() {
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("handler panic", "worker_id", workerID, "job_id", jobID, "job_type", job.Type, "panic", r)
				_ = p.orchestrator.Fail(ctx, jobID, "panic: unexpected error")
			}
		}()
		if runErr := h.Run(jc); runErr != nil {
			_ = p.orchestrator.Fail(ctx, jobID, runErr.Error())
		}
	}()

	// Whatever state the handler left the job in (completed, failed,
	// paused, cancelled) is now durable; the broker's bookkeeping of this
	// unit ends here regardless.
	_ = p.broker.Ack(ctx, p.queue, unit.Token)
}

// Pools bundles one Pool per queue so app wiring can Start all three from a
// single PoolConfig row; each Pool is reconfigured on its own.
type Pools struct {
	VoterImport *Pool
	Geocode     *Pool
	Scheduled   *Pool
}

func NewPools(brk broker.Broker, orch orchestrator.Orchestrator, registry *runtime.Registry, baseLog *logger.Logger) *Pools {
	return &Pools{
		VoterImport: NewPool(jobsdomain.QueueVoterImport, brk, orch, registry, baseLog),
		Geocode:     NewPool(jobsdomain.QueueGeocode, brk, orch, registry, baseLog),
		Scheduled:   NewPool(jobsdomain.QueueScheduled, brk, orch, registry, baseLog),
	}
}

func (p *Pools) Start(ctx context.Context, importWorkers, geocodeWorkers, scheduledWorkers int) {
	p.VoterImport.Start(ctx, importWorkers)
	p.Geocode.Start(ctx, geocodeWorkers)
	p.Scheduled.Start(ctx, scheduledWorkers)
}
