package geocoding

import (
	"context"
	"fmt"

	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// SelectionErrorCode classifies why provider selection failed, the same
// typed-error-code shape the teacher uses for object-storage bootstrap
// failures (internal/app/storage_provider.go's resolveBucketService).
type SelectionErrorCode string

const (
	SelectionErrorUnknownRequested   SelectionErrorCode = "unknown_requested_provider"
	SelectionErrorRequestedDisabled  SelectionErrorCode = "requested_provider_disabled"
	SelectionErrorNoEnabledProviders SelectionErrorCode = "no_enabled_providers"
	SelectionErrorNoneAvailable      SelectionErrorCode = "no_available_provider"
)

type SelectionError struct {
	Code      SelectionErrorCode
	Requested string
}

func (e *SelectionError) Error() string {
	if e == nil {
		return "geocoding provider selection failed"
	}
	return fmt.Sprintf("geocoding provider selection failed (code=%s requested=%q)", e.Code, e.Requested)
}

// Select implements spec §4.5 step 2: a requested providerId wins if
// enabled and available; otherwise the primary is tried, then the
// remaining enabled providers in priority order. A config row with no
// matching registered Provider is skipped the same way as an unavailable one.
func Select(ctx context.Context, reg *Registry, configs []*domain.GeocodingProvider, requestedID string, log *logger.Logger) (Provider, error) {
	byID := make(map[string]*domain.GeocodingProvider, len(configs))
	for _, c := range configs {
		byID[c.ProviderID] = c
	}

	if requestedID != "" {
		if cfg, ok := byID[requestedID]; ok && cfg.IsEnabled {
			p, ok := reg.Get(requestedID)
			if ok && p.IsAvailable(ctx) {
				return p, nil
			}
		}
		log.Warn("requested geocoding provider not enabled or unavailable, falling through to priority order", "provider_id", requestedID)
	}

	if len(configs) == 0 {
		return nil, &SelectionError{Code: SelectionErrorNoEnabledProviders}
	}

	// configs is already ordered primary-first, then priority ascending
	// (ProviderRepo.ListEnabled's ORDER BY), so a straight scan implements
	// "try primary, then remaining enabled providers in priority order".
	for _, cfg := range configs {
		if !cfg.IsEnabled {
			continue
		}
		p, ok := reg.Get(cfg.ProviderID)
		if !ok {
			continue
		}
		if p.IsAvailable(ctx) {
			return p, nil
		}
		log.Warn("geocoding provider unavailable, trying next", "provider_id", cfg.ProviderID)
	}

	return nil, &SelectionError{Code: SelectionErrorNoneAvailable}
}
