package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/voter-canvass-backend/internal/data/repos"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/orchestrator"
	"github.com/yungbote/voter-canvass-backend/internal/platform/ctxutil"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
)

const maxGeocodingLimit = 50000

// GeocodingHandler is a convenience wrapper over JobsHandler.CreateJob that
// builds the geocoding-specific payload shape and refuses the request
// before a job ever reaches the store if no provider is configured (§6/§7).
type GeocodingHandler struct {
	orch      orchestrator.Orchestrator
	providers repos.ProviderRepo
}

func NewGeocodingHandler(orch orchestrator.Orchestrator, providers repos.ProviderRepo) *GeocodingHandler {
	return &GeocodingHandler{orch: orch, providers: providers}
}

type createGeocodingJobRequest struct {
	Filters      map[string]any `json:"filters"`
	Limit        int            `json:"limit"`
	SkipGeocoded *bool          `json:"skipGeocoded"`
	ProviderID   string         `json:"providerId"`
	Mode         string         `json:"mode" binding:"required"`
}

// POST /geocoding-jobs
func (h *GeocodingHandler) Create(c *gin.Context) {
	var req createGeocodingJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Mode != "static" && req.Mode != "dynamic" {
		RespondError(c, http.StatusBadRequest, "invalid_mode", errors.New("mode must be static or dynamic"))
		return
	}

	enabled, err := h.providers.ListEnabled(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_providers_failed", err)
		return
	}
	if len(enabled) == 0 {
		RespondError(c, http.StatusBadRequest, "no_providers_configured", errors.New("no enabled geocoding provider is configured"))
		return
	}

	if req.Limit <= 0 || req.Limit > maxGeocodingLimit {
		req.Limit = maxGeocodingLimit
	}
	skipGeocoded := true
	if req.SkipGeocoded != nil {
		skipGeocoded = *req.SkipGeocoded
	}

	data := map[string]any{
		"filters":      req.Filters,
		"limit":        req.Limit,
		"skipGeocoded": skipGeocoded,
		"providerId":   req.ProviderID,
		"dynamic":      req.Mode == "dynamic",
	}

	createdBy := ctxutil.GetUserID(c.Request.Context())
	job, err := h.orch.Create(c.Request.Context(), jobsdomain.TypeGeocoding, createdBy, data, orchestrator.CreateOptions{IsDynamic: req.Mode == "dynamic"})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_job_failed", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}
