package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
)

/*
Context is the execution contract between the worker pool and all handler
code (importer runners, the geocoding pipeline, scheduled tasks). It wraps:
  - a request-scoped context.Context (cancellation/timeouts),
  - the claimed Job row,
  - the Orchestrator, the only sanctioned way to report progress or
    terminate a run.

Handlers never touch the job repo directly; they go through this object.
*/
type Context struct {
	Ctx          context.Context
	Job          *jobsdomain.Job
	Orchestrator orchestrator.Orchestrator
	payload      map[string]any
}

// NewContext constructs a runtime.Context for a claimed job, eagerly
// decoding its payload so handlers can read inputs via Payload()/PayloadX.
// A decode failure is non-fatal here; handlers validate required fields
// themselves and fail the job if something required is missing.
func NewContext(ctx context.Context, job *jobsdomain.Job, orch orchestrator.Orchestrator) *Context {
	c := &Context{Ctx: ctx, Job: job, Orchestrator: orch}
	_ = c.decodePayload()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil || len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

// Payload returns the decoded payload map; never nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

func (c *Context) PayloadString(key string) string {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (c *Context) PayloadInt(key string, def int) int {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func (c *Context) PayloadBool(key string, def bool) bool {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Progress reports counters through the Orchestrator (UpdateProgress).
func (c *Context) Progress(processed int, total *int) {
	if c == nil || c.Orchestrator == nil || c.Job == nil {
		return
	}
	_ = c.Orchestrator.UpdateProgress(c.Ctx, c.Job.ID, processed, total)
}

// AppendError records a transient, non-fatal unit error.
func (c *Context) AppendError(message string) {
	if c == nil || c.Orchestrator == nil || c.Job == nil {
		return
	}
	c.Orchestrator.AppendError(c.Ctx, c.Job.ID, message)
}

// UpdatePayload read-modify-writes the job's payload, used by the geocoding
// pipeline to persist checkpointIndex/failedHouseholdIds after each batch.
func (c *Context) UpdatePayload(payload map[string]any) error {
	if c == nil || c.Orchestrator == nil || c.Job == nil {
		return nil
	}
	c.payload = payload
	return c.Orchestrator.UpdatePayload(c.Ctx, c.Job.ID, payload)
}

// Status re-reads the job's current status. Handlers poll this at every
// suspension point (geocoding batch boundary, before each imported record) to honor pause/cancel
// issued mid-execution without busy-spinning between checks.
func (c *Context) Status() (string, error) {
	if c == nil || c.Orchestrator == nil || c.Job == nil {
		return "", nil
	}
	job, err := c.Orchestrator.GetByID(c.Ctx, c.Job.ID)
	if err != nil {
		return "", err
	}
	if job == nil {
		return "", nil
	}
	return job.Status, nil
}
