package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	jobsrepo "github.com/yungbote/voter-canvass-backend/internal/data/repos/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/testutil"
	votersrepo "github.com/yungbote/voter-canvass-backend/internal/data/repos/voters"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/handlers"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/importer"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
)

func newMultipartUploadRequest(t *testing.T, fieldFile, filename, content, format, importType string) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile(fieldFile, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	require.NoError(t, w.WriteField("format", format))
	require.NoError(t, w.WriteField("importType", importType))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/voter-import-jobs", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestVoterImportHandler_CreateStoresFileAndEnqueues(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := jobsrepo.NewJobRepo(db, log)
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(repo, brk, nil, log)

	reg := importer.NewRegistry()
	require.NoError(t, reg.Register(&importer.SimpleCSV{
		Persons:   votersrepo.NewPersonRepo(db, log),
		Addresses: votersrepo.NewAddressRepo(db, log),
		Phones:    votersrepo.NewPhoneRepo(db, log),
		Emails:    votersrepo.NewEmailRepo(db, log),
	}))

	uploadDir := t.TempDir()
	h := handlers.NewVoterImportHandler(orch, brk, reg, uploadDir)

	csv := "voter_id,first_name,last_name\nV1,Jane,Doe\n"
	req := newMultipartUploadRequest(t, "file", "voters.csv", csv, "simple_csv", "full")
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req

	h.Create(c)

	require.Equal(t, http.StatusAccepted, rec.Code)

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	unit, err := brk.Claim(req.Context(), jobsdomain.QueueVoterImport, "w1", 0)
	require.NoError(t, err)
	require.NotEmpty(t, unit.JobKey)
}

func TestVoterImportHandler_CreateRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := jobsrepo.NewJobRepo(db, log)
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(repo, brk, nil, log)
	reg := importer.NewRegistry()

	uploadDir := t.TempDir()
	h := handlers.NewVoterImportHandler(orch, brk, reg, uploadDir)

	req := newMultipartUploadRequest(t, "file", "voters.csv", "voter_id\nV1\n", "not_a_format", "full")
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req

	h.Create(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestVoterImportHandler_CreateRejectsUnsupportedExtension(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := jobsrepo.NewJobRepo(db, log)
	brk := broker.NewMemoryBroker()
	orch := orchestrator.New(repo, brk, nil, log)

	reg := importer.NewRegistry()
	require.NoError(t, reg.Register(&importer.SimpleCSV{
		Persons:   votersrepo.NewPersonRepo(db, log),
		Addresses: votersrepo.NewAddressRepo(db, log),
		Phones:    votersrepo.NewPhoneRepo(db, log),
		Emails:    votersrepo.NewEmailRepo(db, log),
	}))

	uploadDir := t.TempDir()
	h := handlers.NewVoterImportHandler(orch, brk, reg, uploadDir)

	req := newMultipartUploadRequest(t, "file", "voters.pdf", "not a csv", "simple_csv", "full")
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req

	h.Create(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
