package scheduled

import (
	"fmt"

	"github.com/yungbote/voter-canvass-backend/internal/jobs/runtime"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// Dispatcher adapts one Task into a runtime.Handler so it can be claimed
// and run by the scheduled Pool exactly like an importer or geocoding job.
// A job's Type is the task name, so each task gets its own Dispatcher
// registered under that name in the runtime.Registry — the registry's
// one-handler-per-job-type invariant still holds, it is simply that every
// scheduled job_type happens to be a task name rather than a domain job type.
type Dispatcher struct {
	Task Task
	Log  *logger.Logger
}

func (d *Dispatcher) Type() string { return d.Task.Name() }

func (d *Dispatcher) Run(ctx *runtime.Context) error {
	log := d.Log.With("job_id", ctx.Job.ID, "task", d.Task.Name())
	if err := d.Task.Run(ctx.Ctx, log); err != nil {
		return fmt.Errorf("scheduled task %q: %w", d.Task.Name(), err)
	}
	return ctx.Orchestrator.Complete(ctx.Ctx, ctx.Job.ID, map[string]any{"task": d.Task.Name()})
}
