package importer

import (
	"encoding/json"
	"fmt"
	"os"

	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/runtime"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// Pipeline is the voter-import runtime.Handler (component E's claimed-job
// side): it reads the uploaded file path and format out of the job payload,
// looks the format up in the Registry, runs it to completion honoring
// pause/cancel polls, and removes the uploaded file once the job reaches
// any terminal status (spec §6: "the runner removes the file when the job
// reaches any terminal status").
type Pipeline struct {
	Registry *Registry
	Log      *logger.Logger
}

func (p *Pipeline) Type() string { return jobsdomain.TypeVoterImport }

type importPayload struct {
	FilePath   string `json:"filePath"`
	Format     string `json:"format"`
	ImportType string `json:"importType"`
}

// Run never uses a blanket defer to remove the uploaded file: a paused job
// is not terminal and must keep its file around for the resumed claim, so
// every return path below decides file removal for itself.
func (p *Pipeline) Run(ctx *runtime.Context) error {
	payload := decodeImportPayload(ctx)
	log := p.Log.With("job_id", ctx.Job.ID, "format", payload.Format)

	if payload.FilePath == "" {
		return fmt.Errorf("import job payload missing filePath")
	}
	imp, ok := p.Registry.Get(payload.Format)
	if !ok {
		removeUploadedFile(log, payload.FilePath)
		return fmt.Errorf("no importer registered for format %q", payload.Format)
	}
	importType := ImportType(payload.ImportType)
	if importType == "" {
		importType = TypeFull
	}
	if err := Validate(imp, payload.FilePath, importType); err != nil {
		removeUploadedFile(log, payload.FilePath)
		return err
	}

	onProgress := func(processed int) { ctx.Progress(processed, nil) }
	shouldCancel := func() bool {
		status, err := ctx.Status()
		if err != nil {
			return false
		}
		return status == jobsdomain.StatusPaused || status == jobsdomain.StatusCancelled
	}

	result, err := imp.Import(ctx.Ctx, payload.FilePath, importType, onProgress, shouldCancel)
	if err != nil {
		removeUploadedFile(log, payload.FilePath)
		return err
	}
	for _, msg := range result.Errors {
		ctx.AppendError(msg)
	}
	if status, _ := ctx.Status(); status == jobsdomain.StatusPaused {
		log.Info("import suspended at pause poll", "processed", result.Processed)
		return nil
	}
	if status, _ := ctx.Status(); status == jobsdomain.StatusCancelled {
		log.Info("import stopped at cancel poll", "processed", result.Processed)
		removeUploadedFile(log, payload.FilePath)
		return nil
	}
	if !result.Success {
		removeUploadedFile(log, payload.FilePath)
		return fmt.Errorf("import reported failure after %d processed rows", result.Processed)
	}

	stats, err := json.Marshal(result)
	if err != nil {
		removeUploadedFile(log, payload.FilePath)
		return fmt.Errorf("marshal import result: %w", err)
	}
	var statsMap map[string]any
	if err := json.Unmarshal(stats, &statsMap); err != nil {
		removeUploadedFile(log, payload.FilePath)
		return fmt.Errorf("decode import result: %w", err)
	}
	if err := ctx.Orchestrator.Complete(ctx.Ctx, ctx.Job.ID, statsMap); err != nil {
		// The returned error makes the pool fail the job (or it is already
		// terminal), so the file is removed here too.
		removeUploadedFile(log, payload.FilePath)
		return err
	}
	removeUploadedFile(log, payload.FilePath)
	return nil
}

func decodeImportPayload(ctx *runtime.Context) importPayload {
	return importPayload{
		FilePath:   ctx.PayloadString("filePath"),
		Format:     ctx.PayloadString("format"),
		ImportType: ctx.PayloadString("importType"),
	}
}

func removeUploadedFile(log *logger.Logger, filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Warn("remove uploaded file failed", "file_path", filePath, "error", err)
	}
}
