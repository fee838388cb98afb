package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/voter-canvass-backend/internal/data/repos"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/platform/ctxutil"
)

// JobsHandler exposes the generic control plane over the orchestrator
// (§6): create, list, fetch, legacy cancel, and full pause/resume/cancel
// control. It wraps a single Orchestrator reference the way the teacher's
// handlers wrap a single service, and uses the shared RespondOK/RespondError
// envelope helpers for every response.
type JobsHandler struct {
	orch orchestrator.Orchestrator
}

func NewJobsHandler(orch orchestrator.Orchestrator) *JobsHandler {
	return &JobsHandler{orch: orch}
}

type createJobRequest struct {
	Type      string         `json:"type" binding:"required"`
	Data      map[string]any `json:"data"`
	IsDynamic bool           `json:"isDynamic"`
}

// POST /jobs
func (h *JobsHandler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	createdBy := ctxutil.GetUserID(c.Request.Context())
	job, err := h.orch.Create(c.Request.Context(), req.Type, createdBy, req.Data, orchestrator.CreateOptions{IsDynamic: req.IsDynamic})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_job_failed", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// GET /jobs
func (h *JobsHandler) ListJobs(c *gin.Context) {
	filter := repos.ListFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := c.Query("createdById"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.CreatedBy = &id
		}
	}

	jobs, total, err := h.orch.List(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_jobs_failed", err)
		return
	}
	RespondOK(c, gin.H{"jobs": withProgress(jobs), "total": total})
}

// GET /jobs/:id
func (h *JobsHandler) GetJobByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.orch.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_job_failed", err)
		return
	}
	if job == nil {
		RespondError(c, http.StatusNotFound, "job_not_found", errors.New("job not found"))
		return
	}
	RespondOK(c, gin.H{"job": job, "progress": job.Progress()})
}

// DELETE /jobs/:id — legacy cancel, pending-only.
func (h *JobsHandler) CancelPendingJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.orch.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_job_failed", err)
		return
	}
	if job == nil {
		RespondError(c, http.StatusNotFound, "job_not_found", errors.New("job not found"))
		return
	}
	if job.Status != jobsdomain.StatusPending {
		RespondError(c, http.StatusBadRequest, "illegal_transition", errors.New("only pending jobs can be cancelled via DELETE /jobs/:id"))
		return
	}
	if err := h.orch.Cancel(c.Request.Context(), id, "legacy cancel"); err != nil {
		respondOrchestratorErr(c, err)
		return
	}
	RespondOK(c, gin.H{"cancelled": true})
}

type jobControlRequest struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

// POST /jobs/:id/control — {action: pause|resume|cancel}
func (h *JobsHandler) Control(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	var req jobControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ctx := c.Request.Context()
	switch req.Action {
	case "pause":
		err = h.orch.Pause(ctx, id, req.Reason)
	case "resume":
		err = h.orch.Resume(ctx, id)
	case "cancel":
		err = h.orch.Cancel(ctx, id, req.Reason)
	default:
		RespondError(c, http.StatusBadRequest, "unknown_action", errors.New("action must be one of pause, resume, cancel"))
		return
	}
	if err != nil {
		respondOrchestratorErr(c, err)
		return
	}

	job, err := h.orch.GetByID(ctx, id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_job_failed", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

func respondOrchestratorErr(c *gin.Context, err error) {
	if errors.Is(err, orchestrator.ErrIllegalTransition) {
		RespondError(c, http.StatusBadRequest, "illegal_transition", err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "control_failed", err)
}

// jobView pairs a job with its computed progress (§4.1) so list/get
// responses carry the same derived percentage the SSE notifier pushes.
type jobView struct {
	Job      *jobsdomain.Job `json:"job"`
	Progress int             `json:"progress"`
}

func withProgress(jobs []*jobsdomain.Job) []jobView {
	out := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobView{Job: j, Progress: j.Progress()})
	}
	return out
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
