// Package geocode converts free-text addresses into coordinates using a
// viewport-biased external geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/civicworks/idlewatch/internal/config"
	"github.com/civicworks/idlewatch/internal/logger"
	"github.com/civicworks/idlewatch/internal/observability"
)

// Coordinates is a geocoded point.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Geocoder resolves an address to coordinates. A nil result with a nil
// error means the service answered but found nothing; the caller is
// expected to degrade, not fail.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (*Coordinates, error)
}

// Client implements Geocoder against a Google-style geocoding endpoint.
// All configuration is injected; nothing is read from ambient state.
type Client struct {
	baseURL    string
	apiKey     string
	viewport   string
	httpClient *http.Client
	metrics    *observability.Metrics
	log        *logger.Logger
}

// NewClient creates a geocoding client from explicit configuration.
func NewClient(cfg config.GeocoderConfig, metrics *observability.Metrics, log *logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		viewport:   cfg.Viewport,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    metrics,
		log:        log,
	}
}

// Lookup geocodes an address biased toward the configured viewport.
// Zero results and non-OK statuses yield (nil, nil): the report is still
// created, just without coordinates. Only transport and decode failures
// return an error.
func (c *Client) Lookup(ctx context.Context, address string) (*Coordinates, error) {
	params := url.Values{
		"address": {address},
		"bounds":  {c.viewport},
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		c.log.Warn("Geocoding service returned non-200", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(body),
		})
		return nil, nil
	}

	var geoResp response
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if geoResp.Status != "OK" || len(geoResp.Results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		c.log.Debug("Geocoding produced no results", map[string]interface{}{
			"address": address,
			"status":  geoResp.Status,
		})
		return nil, nil
	}

	loc := geoResp.Results[0].Geometry.Location
	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return &Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// Geocoding service response types.

type response struct {
	Status  string   `json:"status"`
	Results []result `json:"results"`
}

type result struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}
