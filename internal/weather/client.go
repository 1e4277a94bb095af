// Package weather fetches current conditions for a geocoded point and
// formats them into a short human-readable summary.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/civicworks/idlewatch/internal/config"
	"github.com/civicworks/idlewatch/internal/logger"
	"github.com/civicworks/idlewatch/internal/observability"
)

// Conditions holds whatever fields the weather service returned. Absent
// fields stay nil and are simply omitted from the summary.
type Conditions struct {
	Description *string
	Temp        *float64 // degrees Fahrenheit
	Pressure    *float64 // hPa
	Humidity    *float64 // percent
	WindSpeed   *float64 // miles per hour
}

// Client calls an OpenWeatherMap-style current-weather endpoint. All
// configuration is injected at construction.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *observability.Metrics
	log        *logger.Logger
}

// NewClient creates a weather client from explicit configuration.
func NewClient(cfg config.WeatherConfig, metrics *observability.Metrics, log *logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    metrics,
		log:        log,
	}
}

// Current fetches the current conditions at the given coordinates.
// Latitude and longitude are passed through as the decimal strings the
// Location row stores.
func (c *Client) Current(ctx context.Context, lat, lng string) (Conditions, error) {
	params := url.Values{
		"APPID": {c.apiKey},
		"units": {"imperial"},
		"lat":   {lat},
		"lon":   {lng},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return Conditions{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return Conditions{}, fmt.Errorf("weather service error: status %d: %s", resp.StatusCode, body)
	}

	var wr response
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return Conditions{}, fmt.Errorf("decode response: %w", err)
	}

	c.metrics.WeatherRequests.WithLabelValues("success").Inc()

	cond := Conditions{}
	if len(wr.Weather) > 0 && wr.Weather[0].Description != "" {
		desc := wr.Weather[0].Description
		cond.Description = &desc
	}
	if wr.Main != nil {
		cond.Temp = wr.Main.Temp
		cond.Pressure = wr.Main.Pressure
		cond.Humidity = wr.Main.Humidity
	}
	if wr.Wind != nil {
		cond.WindSpeed = wr.Wind.Speed
	}
	return cond, nil
}

// Summary formats the present fields into a multi-line string. Absent
// fields are omitted; a fully empty Conditions yields "".
func (c Conditions) Summary() string {
	var b strings.Builder

	if c.Description != nil {
		fmt.Fprintf(&b, "Description: %s\n", *c.Description)
	}
	if c.Temp != nil {
		fmt.Fprintf(&b, "Temperature: %v degrees fahrenheit\n", *c.Temp)
	}
	if c.Pressure != nil {
		fmt.Fprintf(&b, "Atmospheric pressure: %v hPa\n", *c.Pressure)
	}
	if c.Humidity != nil {
		fmt.Fprintf(&b, "Humidity: %v%%\n", *c.Humidity)
	}
	if c.WindSpeed != nil {
		fmt.Fprintf(&b, "Wind speed: %v miles/hour\n", *c.WindSpeed)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Weather service response types.

type response struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Pressure *float64 `json:"pressure"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}
