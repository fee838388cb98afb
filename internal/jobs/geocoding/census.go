package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Census models the US Census Bureau's free, keyless geocoder
// (geocoding.geo.census.gov). Grounded on the teacher's HTTP-client
// conventions: a plain net/http.Client plus a small hand-rolled JSON
// decode, no generated client, matching the shape of geocode.Client in
// the example corpus's geocode_queue.go.
type Census struct {
	BaseURL string
	Client  *http.Client
}

func NewCensus() *Census {
	return &Census{
		BaseURL: "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress",
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Census) ProviderID() string   { return "census" }
func (c *Census) ProviderName() string { return "US Census Bureau Geocoder" }

// IsAvailable never probes the network; it reports configuration
// readiness only. A transient outage surfaces as a per-call Geocode
// error, which the pipeline logs and counts as a household failure
// rather than taking the whole provider offline mid-batch.
func (c *Census) IsAvailable(ctx context.Context) bool {
	return c.BaseURL != ""
}

type censusResponse struct {
	Result struct {
		AddressMatches []struct {
			MatchedAddress string `json:"matchedAddress"`
			Coordinates    struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"coordinates"`
			TigerLine struct {
				Side string `json:"side"`
			} `json:"tigerLine"`
		} `json:"addressMatches"`
	} `json:"result"`
}

func (c *Census) Geocode(ctx context.Context, req Request) (*Result, error) {
	oneLine := req.Address
	if req.City != "" {
		oneLine += ", " + req.City
	}
	if req.State != "" {
		oneLine += ", " + req.State
	}
	if req.ZipCode != "" {
		oneLine += " " + req.ZipCode
	}
	if oneLine == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("address", oneLine)
	q.Set("benchmark", "Public_AR_Current")
	q.Set("format", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("census: build request: %w", err)
	}

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("census: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("census: unexpected status %d", resp.StatusCode)
	}

	var parsed censusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("census: decode response: %w", err)
	}
	if len(parsed.Result.AddressMatches) == 0 {
		return nil, nil
	}
	m := parsed.Result.AddressMatches[0]
	return &Result{
		Latitude:   m.Coordinates.Y,
		Longitude:  m.Coordinates.X,
		Confidence: 1.0,
		MatchType:  "exact",
		Source:     c.ProviderID(),
	}, nil
}

func (c *Census) CustomProperties() map[string]any {
	return map[string]any{"baseUrl": c.BaseURL, "benchmark": "Public_AR_Current"}
}
