package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	votersrepo "github.com/yungbote/voter-canvass-backend/internal/data/repos/voters"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/testutil"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/importer"
)

func TestSimpleCSV_FullImportCreatesPersonsAndContacts(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "voters.csv")
	content := "voter_id,first_name,last_name,line1,city,state,zip,phone,email\n" +
		"V1,Jane,Doe,100 Main St,Springfield,IL,62701,555-1234,jane@example.com\n" +
		"V2,John,Roe,200 Oak Ave,Springfield,IL,62701,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	imp := &importer.SimpleCSV{
		Persons:   votersrepo.NewPersonRepo(db, log),
		Addresses: votersrepo.NewAddressRepo(db, log),
		Phones:    votersrepo.NewPhoneRepo(db, log),
		Emails:    votersrepo.NewEmailRepo(db, log),
	}

	require.NoError(t, importer.Validate(imp, path, importer.TypeFull))

	result, err := imp.Import(context.Background(), path, importer.TypeFull, nil, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 2, result.Processed)
	require.Equal(t, 2, result.Created)
	require.Equal(t, 0, result.Skipped)
}

func TestSimpleCSV_IncrementalUpsertsByVoterID(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)

	imp := &importer.SimpleCSV{
		Persons:   votersrepo.NewPersonRepo(db, log),
		Addresses: votersrepo.NewAddressRepo(db, log),
		Phones:    votersrepo.NewPhoneRepo(db, log),
		Emails:    votersrepo.NewEmailRepo(db, log),
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "voters.csv")
	require.NoError(t, os.WriteFile(path, []byte("voter_id,first_name,last_name\nV1,Jane,Doe\n"), 0o644))
	first, err := imp.Import(context.Background(), path, importer.TypeIncremental, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, first.Created)

	require.NoError(t, os.WriteFile(path, []byte("voter_id,first_name,last_name\nV1,Jane,Smith\n"), 0o644))
	second, err := imp.Import(context.Background(), path, importer.TypeIncremental, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, second.Created)
	require.Equal(t, 1, second.Updated)
}

func TestRegistry_DuplicateFormatRejected(t *testing.T) {
	reg := importer.NewRegistry()
	imp := &importer.SimpleCSV{}
	require.NoError(t, reg.Register(imp))
	require.Error(t, reg.Register(imp))

	got, ok := reg.Get("simple_csv")
	require.True(t, ok)
	require.Equal(t, imp, got)
}
