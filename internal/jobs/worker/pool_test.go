package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/testutil"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/runtime"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/worker"
)

type completingHandler struct{ jobType string }

func (h *completingHandler) Type() string { return h.jobType }
func (h *completingHandler) Run(ctx *runtime.Context) error {
	ctx.Progress(1, nil)
	return ctx.Orchestrator.Complete(ctx.Ctx, ctx.Job.ID, map[string]any{"processedCount": 1})
}

func TestPool_ClaimsStartsAndCompletesAJob(t *testing.T) {
	db := testutil.DB(t)
	repo := jobs.NewJobRepo(db, testutil.Logger(t))
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(repo, brk, nil, testutil.Logger(t))

	reg := runtime.NewRegistry()
	require.NoError(t, reg.Register(&completingHandler{jobType: jobsdomain.TypeGeocoding}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(jobsdomain.QueueGeocode, brk, orch, reg, testutil.Logger(t))
	pool.Start(ctx, 1)

	job, err := orch.Create(context.Background(), jobsdomain.TypeGeocoding, uuid.New(), map[string]any{}, orchestrator.CreateOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := orch.GetByID(context.Background(), job.ID)
		return err == nil && got != nil && got.Status == jobsdomain.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

type failingHandler struct{ jobType string }

func (h *failingHandler) Type() string                  { return h.jobType }
func (h *failingHandler) Run(ctx *runtime.Context) error { panic("boom") }

func TestPool_PanicInHandlerFailsTheJob(t *testing.T) {
	db := testutil.DB(t)
	repo := jobs.NewJobRepo(db, testutil.Logger(t))
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(repo, brk, nil, testutil.Logger(t))

	reg := runtime.NewRegistry()
	require.NoError(t, reg.Register(&failingHandler{jobType: jobsdomain.TypeVoterImport}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(jobsdomain.QueueVoterImport, brk, orch, reg, testutil.Logger(t))
	pool.Start(ctx, 1)

	job, err := orch.Create(context.Background(), jobsdomain.TypeVoterImport, uuid.New(), map[string]any{}, orchestrator.CreateOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := orch.GetByID(context.Background(), job.ID)
		return err == nil && got != nil && got.Status == jobsdomain.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}
