package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/observability"
	"golang.org/x/time/rate"
)

// msToKPH converts metres per second to kilometres per hour.
const msToKPH = 3.6

var (
	errMissingHour = errors.New("hourly series does not cover the current hour")
	errNullReading = errors.New("null wind reading")
)

// Client implements domain.WindProvider using the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client. Outgoing requests are limited to
// ratePerSec with a burst of one.
func NewClient(baseURL string, timeout time.Duration, ratePerSec float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		metrics: metrics,
		logger:  logger,
	}
}

// CurrentWind returns the 10 m wind for the current UTC hour at lat, lon.
func (c *Client) CurrentWind(ctx context.Context, lat, lon float64) (domain.Wind, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Wind{}, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"latitude":        {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":       {strconv.FormatFloat(lon, 'f', -1, 64)},
		"hourly":          {"wind_speed_10m,wind_direction_10m"},
		"wind_speed_unit": {"ms"},
		"forecast_days":   {"1"},
		"timezone":        {"GMT"},
	}

	start := time.Now()
	wind, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.WindAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WindRequests.WithLabelValues("error").Inc()
		return domain.Wind{}, err
	}
	c.metrics.WindRequests.WithLabelValues("success").Inc()
	return wind, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Wind, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Wind{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Wind{}, fmt.Errorf("wind request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Wind{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var forecast response
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return domain.Wind{}, fmt.Errorf("decode response: %w", err)
	}

	return forecast.windAt(domain.Now().Hour())
}

// Open-Meteo API response types.

type response struct {
	Hourly hourly `json:"hourly"`
}

type hourly struct {
	Time          []string   `json:"time"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`     // m/s
	WindDirection []*float64 `json:"wind_direction_10m"` // degrees
}

// windAt picks the reading at index hour. Series start at 00:00 GMT.
func (r response) windAt(hour int) (domain.Wind, error) {
	h := r.Hourly
	if hour >= len(h.WindSpeed) || hour >= len(h.WindDirection) {
		return domain.Wind{}, fmt.Errorf("%w: hour %d, %d speeds, %d directions",
			errMissingHour, hour, len(h.WindSpeed), len(h.WindDirection))
	}
	speed, dir := h.WindSpeed[hour], h.WindDirection[hour]
	if speed == nil || dir == nil {
		return domain.Wind{}, fmt.Errorf("%w at hour %d", errNullReading, hour)
	}
	return domain.Wind{
		SpeedKPH:     math.Round(*speed*msToKPH*10) / 10,
		DirectionDeg: *dir,
	}, nil
}
