package orchestrator_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/testutil"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
)

func newOrchestrator(t *testing.T) (orchestrator.Orchestrator, broker.Broker) {
	db := testutil.DB(t)
	repo := jobs.NewJobRepo(db, testutil.Logger(t))
	brk := broker.NewMemoryBroker()
	return orchestrator.New(repo, brk, nil, testutil.Logger(t)), brk
}

func TestOrchestrator_CreateEnqueuesAndStartIsIdempotent(t *testing.T) {
	o, brk := newOrchestrator(t)
	ctx := context.Background()
	createdBy := uuid.New()

	job, err := o.Create(ctx, jobsdomain.TypeGeocoding, createdBy, map[string]any{"limit": 1}, orchestrator.CreateOptions{})
	require.NoError(t, err)
	require.Equal(t, jobsdomain.StatusPending, job.Status)

	unit, err := brk.Claim(ctx, jobsdomain.QueueGeocode, "w1", 0)
	require.NoError(t, err)
	require.Equal(t, job.ID.String(), unit.JobKey)

	ok, err := o.Start(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// A second Start (simulating at-least-once redelivery) is a no-op.
	ok, err = o.Start(ctx, job.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOrchestrator_CreateWithSkipEnqueueLeavesBrokerEmpty(t *testing.T) {
	o, brk := newOrchestrator(t)
	ctx := context.Background()

	job, err := o.Create(ctx, jobsdomain.TypeVoterImport, uuid.New(), map[string]any{"filePath": "/tmp/x.csv"}, orchestrator.CreateOptions{SkipEnqueue: true})
	require.NoError(t, err)
	require.Equal(t, jobsdomain.StatusPending, job.Status)

	_, err = brk.Claim(ctx, jobsdomain.QueueVoterImport, "w1", 0)
	require.ErrorIs(t, err, broker.ErrClaimTimeout)
}

func TestOrchestrator_PauseResumeCancelTransitions(t *testing.T) {
	o, _ := newOrchestrator(t)
	ctx := context.Background()
	createdBy := uuid.New()

	job, err := o.Create(ctx, jobsdomain.TypeVoterImport, createdBy, map[string]any{}, orchestrator.CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, o.Pause(ctx, job.ID, "user requested"))
	got, err := o.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, jobsdomain.StatusPaused, got.Status)

	require.NoError(t, o.Resume(ctx, job.ID))
	got, err = o.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, jobsdomain.StatusPending, got.Status)

	require.NoError(t, o.Cancel(ctx, job.ID, "done with it"))
	got, err = o.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, jobsdomain.StatusCancelled, got.Status)

	// Cancelling an already-terminal job is a no-op, not an error.
	require.NoError(t, o.Cancel(ctx, job.ID, "again"))
}

func TestOrchestrator_IllegalTransitionRejected(t *testing.T) {
	o, _ := newOrchestrator(t)
	ctx := context.Background()

	job, err := o.Create(ctx, jobsdomain.TypeGeocoding, uuid.New(), map[string]any{}, orchestrator.CreateOptions{})
	require.NoError(t, err)
	require.NoError(t, o.Cancel(ctx, job.ID, "early cancel"))

	err = o.Pause(ctx, job.ID, "too late")
	require.ErrorIs(t, err, orchestrator.ErrIllegalTransition)
}

func TestOrchestrator_CompleteRequiresProcessing(t *testing.T) {
	o, _ := newOrchestrator(t)
	ctx := context.Background()

	job, err := o.Create(ctx, jobsdomain.TypeGeocoding, uuid.New(), map[string]any{}, orchestrator.CreateOptions{})
	require.NoError(t, err)

	err = o.Complete(ctx, job.ID, map[string]any{"processedCount": 1})
	require.ErrorIs(t, err, orchestrator.ErrIllegalTransition)

	ok, err := o.Start(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, o.Complete(ctx, job.ID, map[string]any{"processedCount": 1}))
	got, err := o.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, jobsdomain.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}
