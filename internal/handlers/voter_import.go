package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/broker"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/importer"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/platform/ctxutil"
)

// VoterImportHandler is the multipart upload entry point for component E
// (spec §6): it owns both the Orchestrator and the Broker directly, rather
// than going through the Orchestrator's own best-effort internal enqueue,
// because this endpoint's contract requires a synchronous enqueue error to
// react to — delete the file, cancel the job — instead of letting
// recovery's startup scan paper over it.
type VoterImportHandler struct {
	orch      orchestrator.Orchestrator
	brk       broker.Broker
	importers *importer.Registry
	uploadDir string
}

func NewVoterImportHandler(orch orchestrator.Orchestrator, brk broker.Broker, importers *importer.Registry, uploadDir string) *VoterImportHandler {
	return &VoterImportHandler{orch: orch, brk: brk, importers: importers, uploadDir: uploadDir}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	cleaned := unsafeFilenameChars.ReplaceAllString(base, "_")
	if cleaned == "" {
		cleaned = "upload"
	}
	return cleaned
}

// POST /voter-import-jobs
func (h *VoterImportHandler) Create(c *gin.Context) {
	format := c.PostForm("format")
	importType := c.PostForm("importType")
	if format == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("format is required"))
		return
	}
	imp, ok := h.importers.Get(format)
	if !ok {
		RespondError(c, http.StatusBadRequest, "unknown_format", fmt.Errorf("no importer registered for format %q", format))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("file is required: %w", err))
		return
	}

	it := importer.ImportType(importType)
	if it == "" {
		it = importer.TypeFull
	}
	if err := importer.Validate(imp, fileHeader.Filename, it); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_import", err)
		return
	}

	destPath, err := h.storeUpload(fileHeader)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "store_upload_failed", err)
		return
	}

	ctx := c.Request.Context()
	createdBy := ctxutil.GetUserID(ctx)
	data := map[string]any{
		"filePath":   destPath,
		"format":     format,
		"importType": string(it),
	}
	job, err := h.orch.Create(ctx, jobsdomain.TypeVoterImport, createdBy, data, orchestrator.CreateOptions{SkipEnqueue: true})
	if err != nil {
		_ = os.Remove(destPath)
		RespondError(c, http.StatusInternalServerError, "create_job_failed", err)
		return
	}

	if err := h.brk.Enqueue(ctx, jobsdomain.QueueVoterImport, job.ID.String(), []byte(job.Payload), broker.EnqueueOptions{}); err != nil {
		_ = os.Remove(destPath)
		_ = h.orch.Cancel(ctx, job.ID, "enqueue failed: "+err.Error())
		RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"jobId": job.ID})
}

// storeUpload writes the multipart file to ./{uploadDir}/{unixMillis}_{sanitisedFilename}
// per spec §6, creating the directory if it does not yet exist.
func (h *VoterImportHandler) storeUpload(fileHeader *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), sanitizeFilename(fileHeader.Filename))
	destPath := filepath.Join(h.uploadDir, name)

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write destination file: %w", err)
	}
	return destPath, nil
}
