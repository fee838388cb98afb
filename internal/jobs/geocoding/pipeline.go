package geocoding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/voter-canvass-backend/internal/data/repos"
	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/jobs/runtime"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

const (
	batchSize       = 100
	interBatchDelay = 100 * time.Millisecond
	perCallTimeout  = 5 * time.Second
)

// Pipeline is the runtime.Handler for geocoding jobs (component F). It
// implements spec §4.5's seven execution steps: materialize work set,
// select a provider, process fixed-size batches with per-household
// geocode calls, checkpoint after each batch, observe pause/cancel before
// each batch, rate-limit between batches, and terminate with summary
// counts.
type Pipeline struct {
	Households repos.HouseholdRepo
	Providers  repos.ProviderRepo
	Registry   *Registry
	Log        *logger.Logger
}

func (p *Pipeline) Type() string { return jobsdomain.TypeGeocoding }

type geocodePayload struct {
	Filters            filterPayload `json:"filters"`
	Limit              int           `json:"limit"`
	SkipGeocoded       *bool         `json:"skipGeocoded"`
	ProviderID         string        `json:"providerId"`
	Dynamic            bool          `json:"dynamic"`
	HouseholdIDs       []string      `json:"householdIds"`
	CheckpointIndex    int           `json:"checkpointIndex"`
	FailedHouseholdIDs []string      `json:"failedHouseholdIds"`
}

type filterPayload struct {
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

func (p *Pipeline) Run(ctx *runtime.Context) error {
	payload := decodeGeocodePayload(ctx)
	skipGeocoded := true
	if payload.SkipGeocoded != nil {
		skipGeocoded = *payload.SkipGeocoded
	}

	ids, err := p.materializeWorkSet(ctx, &payload, skipGeocoded)
	if err != nil {
		return fmt.Errorf("materialize work set: %w", err)
	}

	configs, err := p.Providers.ListEnabled(dbctx.Context{Ctx: ctx.Ctx})
	if err != nil {
		return fmt.Errorf("list providers: %w", err)
	}
	provider, err := Select(ctx.Ctx, p.Registry, configs, payload.ProviderID, p.Log)
	if err != nil {
		return err
	}

	failed := map[string]bool{}
	for _, id := range payload.FailedHouseholdIDs {
		failed[id] = true
	}

	successCount, failureCount := 0, 0
	processed := payload.CheckpointIndex

	for start := payload.CheckpointIndex; start < len(ids); start += batchSize {
		status, err := ctx.Status()
		if err != nil {
			return fmt.Errorf("poll status: %w", err)
		}
		if status == jobsdomain.StatusPaused || status == jobsdomain.StatusCancelled {
			return p.checkpoint(ctx, &payload, start, failed)
		}

		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		households, err := p.Households.GetByIDs(dbctx.Context{Ctx: ctx.Ctx}, batch)
		if err != nil {
			return fmt.Errorf("load batch: %w", err)
		}
		byID := make(map[uuid.UUID]int, len(households))
		for i, h := range households {
			byID[h.ID] = i
		}

		for _, id := range batch {
			idx, ok := byID[id]
			if !ok {
				continue
			}
			h := households[idx]
			processed++

			addr := h.Address()
			if addr == "" {
				failed[h.ID.String()] = true
				failureCount++
				ctx.AppendError(fmt.Sprintf("household %s has no address to geocode", h.ID))
				continue
			}

			callCtx, cancel := context.WithTimeout(ctx.Ctx, perCallTimeout)
			result, gerr := provider.Geocode(callCtx, Request{Address: h.Line1, City: h.City, State: h.State, ZipCode: h.Zip})
			cancel()

			if gerr != nil || result == nil {
				failed[h.ID.String()] = true
				failureCount++
				if gerr != nil {
					ctx.AppendError(fmt.Sprintf("geocode household %s: %v", h.ID, gerr))
				} else {
					ctx.AppendError(fmt.Sprintf("geocode household %s: no match", h.ID))
				}
				continue
			}

			delete(failed, h.ID.String())
			if err := p.Households.MarkGeocoded(dbctx.Context{Ctx: ctx.Ctx}, h.ID, result.Latitude, result.Longitude, result.Source, time.Now()); err != nil {
				failed[h.ID.String()] = true
				failureCount++
				ctx.AppendError(fmt.Sprintf("persist geocode result for household %s: %v", h.ID, err))
				continue
			}
			successCount++
		}

		if err := p.checkpoint(ctx, &payload, end, failed); err != nil {
			return err
		}

		if end < len(ids) {
			time.Sleep(interBatchDelay)
		}
	}

	return ctx.Orchestrator.Complete(ctx.Ctx, ctx.Job.ID, map[string]any{
		"processedCount": processed,
		"successCount":   successCount,
		"failureCount":   failureCount,
	})
}

// checkpoint persists the new checkpointIndex/failedHouseholdIds into the
// job payload and reports progress, per spec §4.5 step 4.
func (p *Pipeline) checkpoint(ctx *runtime.Context, payload *geocodePayload, newIndex int, failed map[string]bool) error {
	failedIDs := make([]string, 0, len(failed))
	for id := range failed {
		failedIDs = append(failedIDs, id)
	}

	updated := map[string]any{
		"filters":            payload.Filters,
		"limit":              payload.Limit,
		"skipGeocoded":       payload.SkipGeocoded,
		"providerId":         payload.ProviderID,
		"dynamic":            payload.Dynamic,
		"householdIds":       payload.HouseholdIDs,
		"checkpointIndex":    newIndex,
		"failedHouseholdIds": failedIDs,
	}
	if err := ctx.UpdatePayload(updated); err != nil {
		return fmt.Errorf("checkpoint payload: %w", err)
	}
	total := len(payload.HouseholdIDs)
	ctx.Progress(newIndex, &total)
	return nil
}

// materializeWorkSet implements step 1: static mode resumes the
// pre-materialised id list from the payload; dynamic mode queries the
// household store once (never again, even across pause/resume) and
// stores the resulting id list so subsequent resumes behave like static
// mode.
func (p *Pipeline) materializeWorkSet(ctx *runtime.Context, payload *geocodePayload, skipGeocoded bool) ([]uuid.UUID, error) {
	if len(payload.HouseholdIDs) > 0 {
		return parseIDs(payload.HouseholdIDs), nil
	}

	filter := repos.HouseholdFilter{
		City:         payload.Filters.City,
		State:        payload.Filters.State,
		Zip:          payload.Filters.Zip,
		SkipGeocoded: skipGeocoded,
		Limit:        payload.Limit,
	}
	households, err := p.Households.List(dbctx.Context{Ctx: ctx.Ctx}, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(households))
	idStrs := make([]string, 0, len(households))
	for _, h := range households {
		ids = append(ids, h.ID)
		idStrs = append(idStrs, h.ID.String())
	}
	payload.HouseholdIDs = idStrs
	payload.CheckpointIndex = 0
	return ids, nil
}

func parseIDs(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func decodeGeocodePayload(ctx *runtime.Context) geocodePayload {
	p := ctx.Payload()
	out := geocodePayload{
		Limit:      ctx.PayloadInt("limit", 0),
		ProviderID: ctx.PayloadString("providerId"),
		Dynamic:    ctx.PayloadBool("dynamic", false),
	}
	if skip, ok := p["skipGeocoded"].(bool); ok {
		out.SkipGeocoded = &skip
	}
	if filters, ok := p["filters"].(map[string]any); ok {
		out.Filters = filterPayload{
			City:  stringOrEmpty(filters["city"]),
			State: stringOrEmpty(filters["state"]),
			Zip:   stringOrEmpty(filters["zip"]),
		}
	}
	out.HouseholdIDs = toStringSlice(p["householdIds"])
	out.CheckpointIndex = ctx.PayloadInt("checkpointIndex", 0)
	out.FailedHouseholdIDs = toStringSlice(p["failedHouseholdIds"])
	return out
}

func stringOrEmpty(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		out = append(out, fmt.Sprint(e))
	}
	return out
}
