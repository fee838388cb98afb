package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	jobsrepo "github.com/yungbote/voter-canvass-backend/internal/data/repos/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/testutil"
	votersrepo "github.com/yungbote/voter-canvass-backend/internal/data/repos/voters"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/importer"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/runtime"
)

func TestPipeline_ImportsFileAndRemovesItOnCompletion(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "voters.csv")
	require.NoError(t, os.WriteFile(path, []byte("voter_id,first_name,last_name\nV1,Jane,Doe\n"), 0o644))

	jobRepo := jobsrepo.NewJobRepo(db, log)
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(jobRepo, brk, nil, log)

	reg := importer.NewRegistry()
	require.NoError(t, reg.Register(&importer.SimpleCSV{
		Persons:   votersrepo.NewPersonRepo(db, log),
		Addresses: votersrepo.NewAddressRepo(db, log),
		Phones:    votersrepo.NewPhoneRepo(db, log),
		Emails:    votersrepo.NewEmailRepo(db, log),
	}))

	pipeline := &importer.Pipeline{Registry: reg, Log: log}

	payload := map[string]any{"filePath": path, "format": "simple_csv", "importType": "full"}
	job, err := orch.Create(ctx, jobsdomain.TypeVoterImport, uuid.New(), payload, orchestrator.CreateOptions{SkipEnqueue: true})
	require.NoError(t, err)

	ok, err := orch.Start(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)

	job, err = orch.GetByID(ctx, job.ID)
	require.NoError(t, err)

	rc := runtime.NewContext(ctx, job, orch)
	require.NoError(t, pipeline.Run(rc))

	final, err := orch.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, jobsdomain.StatusCompleted, final.Status)

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestPipeline_UnknownFormatReturnsErrorAndRemovesFile(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "voters.csv")
	require.NoError(t, os.WriteFile(path, []byte("voter_id\nV1\n"), 0o644))

	jobRepo := jobsrepo.NewJobRepo(db, log)
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(jobRepo, brk, nil, log)
	reg := importer.NewRegistry()

	pipeline := &importer.Pipeline{Registry: reg, Log: log}

	payload := map[string]any{"filePath": path, "format": "not_a_format", "importType": "full"}
	job, err := orch.Create(ctx, jobsdomain.TypeVoterImport, uuid.New(), payload, orchestrator.CreateOptions{SkipEnqueue: true})
	require.NoError(t, err)

	ok, err := orch.Start(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)

	job, err = orch.GetByID(ctx, job.ID)
	require.NoError(t, err)

	rc := runtime.NewContext(ctx, job, orch)
	require.Error(t, pipeline.Run(rc))

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
