package scheduled_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	jobsrepo "github.com/yungbote/voter-canvass-backend/internal/data/repos/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/geocoding"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/runtime"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/scheduled"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
)

type fakeProvider struct {
	id        string
	available bool
}

func (f *fakeProvider) ProviderID() string   { return f.id }
func (f *fakeProvider) ProviderName() string { return f.id }
func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return f.available }
func (f *fakeProvider) Geocode(ctx context.Context, req geocoding.Request) (*geocoding.Result, error) {
	return nil, nil
}

func TestProviderHealthCheck_LogsEachEnabledProvider(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	providers := jobsrepo.NewProviderRepo(db, log)

	_, err := providers.Create(dbctx.Context{Ctx: context.Background()}, &domain.GeocodingProvider{
		ProviderID: "census", ProviderName: "Census", IsEnabled: true, IsPrimary: true,
	})
	require.NoError(t, err)

	reg := geocoding.NewRegistry()
	require.NoError(t, reg.Register(&fakeProvider{id: "census", available: false}))

	task := &scheduled.ProviderHealthCheck{Providers: providers, Registry: reg}
	require.Equal(t, scheduled.TaskProviderHealthCheck, task.Name())
	require.NoError(t, task.Run(context.Background(), log))
}

func TestDispatcher_RunCompletesJobOnSuccess(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	jobRepo := jobsrepo.NewJobRepo(db, log)
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(jobRepo, brk, nil, log)

	providers := jobsrepo.NewProviderRepo(db, log)
	reg := geocoding.NewRegistry()
	task := &scheduled.ProviderHealthCheck{Providers: providers, Registry: reg}
	dispatcher := &scheduled.Dispatcher{Task: task, Log: log}
	require.Equal(t, scheduled.TaskProviderHealthCheck, dispatcher.Type())

	job, err := orch.Create(ctx, scheduled.TaskProviderHealthCheck, uuid.New(), map[string]any{}, orchestrator.CreateOptions{})
	require.NoError(t, err)

	ok, err := orch.Start(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)

	job, err = orch.GetByID(ctx, job.ID)
	require.NoError(t, err)

	rc := runtime.NewContext(ctx, job, orch)
	require.NoError(t, dispatcher.Run(rc))

	final, err := orch.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, jobsdomain.StatusCompleted, final.Status)
}
