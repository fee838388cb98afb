package recovery

import (
	"context"
	"fmt"

	"github.com/yungbote/voter-canvass-backend/internal/data/repos"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// knownTypes is the set of job types the orchestrator can resume (spec
// §4.6). Scheduled task types are deliberately left out: a task like
// provider_health_check is idempotent and safely re-created on its next
// tick, so a stuck scheduled job found at recovery time is failed outright
// rather than resumed.
var knownTypes = map[string]bool{
	jobsdomain.TypeVoterImport: true,
	jobsdomain.TypeGeocoding:   true,
}

// Run performs the startup reconciliation scan (component G): every
// job left in pending or processing status when the process last exited
// is either normalized back to pending and re-enqueued, or failed with a
// recovery-time error if its type or payload can't be resumed.
func Run(ctx context.Context, jobs repos.JobRepo, brk broker.Broker, orch orchestrator.Orchestrator, baseLog *logger.Logger) error {
	log := baseLog.With("component", "Recovery")
	dbc := dbctx.Context{Ctx: ctx}

	resumable, err := jobs.ListResumable(dbc)
	if err != nil {
		return fmt.Errorf("list resumable jobs: %w", err)
	}
	log.Info("recovery scan starting", "candidate_count", len(resumable))

	for _, job := range resumable {
		if job.Type == "" || len(job.Payload) == 0 {
			_ = orch.Fail(ctx, job.ID, "recovery: malformed job (empty type or payload)")
			log.Warn("failed malformed job at recovery", "job_id", job.ID)
			continue
		}
		if !knownTypes[job.Type] {
			_ = orch.Fail(ctx, job.ID, fmt.Sprintf("recovery: unknown job type %q", job.Type))
			log.Warn("failed job with unknown type at recovery", "job_id", job.ID, "job_type", job.Type)
			continue
		}

		if job.Status == jobsdomain.StatusProcessing {
			// Normalize back to pending so the Start CAS can apply again;
			// a dead worker's claim is simply discarded, the job's
			// checkpoint (if any) survives in its payload untouched.
			if _, err := jobs.NormalizeProcessingToPending(dbc, job.ID); err != nil {
				log.Warn("normalize processing job to pending failed", "job_id", job.ID, "error", err)
			}
		}

		queue := jobsdomain.QueueForType(job.Type)
		if err := brk.Enqueue(ctx, queue, job.ID.String(), job.Payload, broker.EnqueueOptions{}); err != nil {
			log.Warn("re-enqueue at recovery failed", "job_id", job.ID, "queue", queue, "error", err)
			continue
		}
		log.Info("re-enqueued job at recovery", "job_id", job.ID, "job_type", job.Type, "queue", queue)
	}

	return nil
}
