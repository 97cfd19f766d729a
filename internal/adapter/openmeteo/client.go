package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/SurawutP/Projectpm2.5/internal/domain"
	"github.com/SurawutP/Projectpm2.5/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// DefaultBaseURL is the public Open-Meteo forecast endpoint.
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

const hourlyVariables = "wind_speed_10m,wind_direction_10m,boundary_layer_height"

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
)

// Client implements domain.WeatherSource using the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger

	// Unavailable responses are retried with doubling backoff.
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewClient creates an Open-Meteo forecast client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:        baseURL,
		metrics:        metrics,
		logger:         logger,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
}

// FetchReading returns the wind speed, wind direction, and boundary layer
// height forecast for coord at the given hour of date. The date's location
// is sent as the forecast timezone so hours line up with local time.
//
// A forecast that does not cover the requested hour yields ErrNotFound.
// Transport failures, non-200 responses, and undecodable bodies yield
// ErrUnavailable once retries are exhausted. Hours the provider reports as
// null come back as nil fields.
func (c *Client) FetchReading(ctx context.Context, coord domain.Coordinate, date time.Time, hour int) (domain.MeteorologicalReading, error) {
	start := time.Now()
	reading, err := c.fetchWithRetry(ctx, coord, date, hour)
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	case errors.Is(err, domain.ErrNotFound):
		c.metrics.WeatherRequests.WithLabelValues("not_found").Inc()
	default:
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
	}
	return reading, err
}

func (c *Client) fetchWithRetry(ctx context.Context, coord domain.Coordinate, date time.Time, hour int) (domain.MeteorologicalReading, error) {
	backoff := c.initialBackoff
	for attempt := 1; ; attempt++ {
		reading, err := c.fetch(ctx, coord, date, hour)
		if err == nil || !errors.Is(err, domain.ErrUnavailable) || attempt >= c.maxAttempts {
			return reading, err
		}

		c.logger.Warn("forecast request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if !retry.SleepWithContext(ctx, backoff) {
			return domain.MeteorologicalReading{}, fmt.Errorf("forecast retry: %w", ctx.Err())
		}
		backoff = retry.NextBackoff(backoff, c.maxBackoff)
	}
}

func (c *Client) fetch(ctx context.Context, coord domain.Coordinate, date time.Time, hour int) (domain.MeteorologicalReading, error) {
	day := date.Format(domain.DateLayout)
	params := url.Values{
		"latitude":        {strconv.FormatFloat(coord.Lat, 'f', 6, 64)},
		"longitude":       {strconv.FormatFloat(coord.Lng, 'f', 6, 64)},
		"hourly":          {hourlyVariables},
		"timezone":        {date.Location().String()},
		"start_date":      {day},
		"end_date":        {day},
		"wind_speed_unit": {"ms"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.MeteorologicalReading{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.MeteorologicalReading{}, fmt.Errorf("forecast request: %w", ctxErr)
		}
		return domain.MeteorologicalReading{}, fmt.Errorf("%w: forecast request: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		// Open-Meteo answers 400 for dates outside the forecast range.
		return domain.MeteorologicalReading{}, fmt.Errorf("%w: open-meteo: %s", domain.ErrNotFound, errorReason(resp.Body))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.MeteorologicalReading{}, fmt.Errorf("%w: open-meteo API error: status %d: %s", domain.ErrUnavailable, resp.StatusCode, body)
	}

	var forecast response
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return domain.MeteorologicalReading{}, fmt.Errorf("%w: decode response: %v", domain.ErrUnavailable, err)
	}

	key := fmt.Sprintf("%sT%02d:00", day, hour)
	i := slices.Index(forecast.Hourly.Time, key)
	if i < 0 {
		c.logger.Debug("forecast hour missing", "hour", key, "hours_returned", len(forecast.Hourly.Time))
		return domain.MeteorologicalReading{}, fmt.Errorf("%w: no forecast for %s", domain.ErrNotFound, key)
	}

	return domain.MeteorologicalReading{
		WindSpeed:     at(forecast.Hourly.WindSpeed, i),
		WindDirection: at(forecast.Hourly.WindDirection, i),
		MixingHeight:  at(forecast.Hourly.BoundaryLayerHeight, i),
	}, nil
}

// at returns a copy of values[i], or nil when the series is short or the value is null.
func at(values []*float64, i int) *float64 {
	if i >= len(values) || values[i] == nil {
		return nil
	}
	v := *values[i]
	return &v
}

func errorReason(body io.Reader) string {
	var apiErr errorResponse
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&apiErr); err != nil || apiErr.Reason == "" {
		return "bad request"
	}
	return apiErr.Reason
}

// Open-Meteo API response types.

type response struct {
	Hourly hourly `json:"hourly"`
}

type hourly struct {
	Time                []string   `json:"time"` // local "YYYY-MM-DDTHH:MM"
	WindSpeed           []*float64 `json:"wind_speed_10m"`
	WindDirection       []*float64 `json:"wind_direction_10m"`
	BoundaryLayerHeight []*float64 `json:"boundary_layer_height"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}
