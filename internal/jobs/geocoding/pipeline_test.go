package geocoding_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	jobsrepo "github.com/yungbote/voter-canvass-backend/internal/data/repos/jobs"
	votersrepo "github.com/yungbote/voter-canvass-backend/internal/data/repos/voters"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/testutil"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/geocoding"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/runtime"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
)

func TestPipeline_GeocodesDynamicWorkSetWithCatalogProvider(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	testutil.SeedHousehold(t, ctx, db, "100 Main St", "Springfield", "IL", "62701")
	testutil.SeedHousehold(t, ctx, db, "200 Oak Ave", "Springfield", "IL", "62701")
	testutil.SeedProvider(t, ctx, db, "catalog", true, 0)

	jobRepo := jobsrepo.NewJobRepo(db, log)
	householdRepo := votersrepo.NewHouseholdRepo(db, log)
	providerRepo := jobsrepo.NewProviderRepo(db, log)
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(jobRepo, brk, nil, log)

	reg := geocoding.NewRegistry()
	require.NoError(t, reg.Register(geocoding.NewCatalog(map[string]geocoding.Result{
		"100 main st springfield il 62701": {Latitude: 39.7, Longitude: -89.6},
		"200 oak ave springfield il 62701": {Latitude: 39.8, Longitude: -89.7},
	})))

	pipeline := &geocoding.Pipeline{
		Households: householdRepo,
		Providers:  providerRepo,
		Registry:   reg,
		Log:        log,
	}

	job, err := orch.Create(ctx, jobsdomain.TypeGeocoding, uuid.New(), map[string]any{"dynamic": true, "skipGeocoded": true}, orchestrator.CreateOptions{IsDynamic: true})
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

	households, err := householdRepo.List(dbctx.Context{Ctx: ctx}, votersrepo.HouseholdFilter{})
	require.NoError(t, err)
	for _, h := range households {
		require.True(t, h.Geocoded)
		require.Equal(t, "catalog", h.GeocodingProvider)
	}
}
