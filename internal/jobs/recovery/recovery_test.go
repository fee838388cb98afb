package recovery_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	jobsrepo "github.com/yungbote/voter-canvass-backend/internal/data/repos/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/testutil"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/recovery"
)

func TestRun_ReEnqueuesProcessingJobAfterNormalizing(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	job := testutil.SeedJob(t, ctx, db, jobsdomain.TypeGeocoding, jobsdomain.StatusProcessing, uuid.New())

	repo := jobsrepo.NewJobRepo(db, log)
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(repo, brk, nil, log)

	require.NoError(t, recovery.Run(ctx, repo, brk, orch, log))

	got, err := orch.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, jobsdomain.StatusPending, got.Status)

	unit, err := brk.Claim(ctx, jobsdomain.QueueGeocode, "w1", 0)
	require.NoError(t, err)
	require.Equal(t, job.ID.String(), unit.JobKey)
}

func TestRun_FailsJobWithUnknownType(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	job := testutil.SeedJob(t, ctx, db, "not_a_real_type", jobsdomain.StatusPending, uuid.New())

	repo := jobsrepo.NewJobRepo(db, log)
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(repo, brk, nil, log)

	require.NoError(t, recovery.Run(ctx, repo, brk, orch, log))

	got, err := orch.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, jobsdomain.StatusFailed, got.Status)
}
