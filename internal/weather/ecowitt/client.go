package ecowitt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"labajada-cloud/internal/observability/metrics"
	"labajada-cloud/internal/wind"
)

const (
	defaultBaseURL  = "https://api.ecowitt.net/api/v3"
	defaultAttempts = 3
	initialBackoff  = time.Second
)

// Client reads live wind data from the Ecowitt cloud API.
type Client struct {
	baseURL        string
	applicationKey string
	apiKey         string
	mac            string
	attempts       int
	client         *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithAttempts sets the total fetch attempts.
func WithAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

// NewClient constructs an Ecowitt client.
func NewClient(applicationKey, apiKey, mac string, opts ...Option) (*Client, error) {
	if applicationKey == "" || apiKey == "" || mac == "" {
		return nil, errors.New("ecowitt: missing credentials")
	}
	c := &Client{
		baseURL:        defaultBaseURL,
		applicationKey: applicationKey,
		apiKey:         apiKey,
		mac:            mac,
		attempts:       defaultAttempts,
		client:         &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type realTimeResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Wind struct {
			WindSpeed     measurement `json:"wind_speed"`
			WindGust      measurement `json:"wind_gust"`
			WindDirection measurement `json:"wind_direction"`
		} `json:"wind"`
	} `json:"data"`
}

type measurement struct {
	Value string `json:"value"`
}

// Current fetches the latest reading, retrying transient failures with a
// doubling backoff.
func (c *Client) Current(ctx context.Context) (wind.Reading, error) {
	if c == nil {
		return wind.Reading{}, errors.New("ecowitt: nil client")
	}
	backoff := initialBackoff
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			metrics.IncFetchRetry()
			select {
			case <-ctx.Done():
				return wind.Reading{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		reading, err := c.fetch(ctx)
		if err == nil {
			return reading, nil
		}
		lastErr = err
	}
	metrics.IncFetchError("exhausted")
	return wind.Reading{}, lastErr
}

func (c *Client) fetch(ctx context.Context) (wind.Reading, error) {
	query := url.Values{}
	query.Set("application_key", c.applicationKey)
	query.Set("api_key", c.apiKey)
	query.Set("mac", c.mac)
	// Unit id 8 is knots; thresholds downstream assume knot values.
	query.Set("wind_speed_unitid", "8")
	query.Set("call_back", "wind")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/device/real_time?"+query.Encode(), nil)
	if err != nil {
		return wind.Reading{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return wind.Reading{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return wind.Reading{}, fmt.Errorf("ecowitt: http %d", resp.StatusCode)
	}

	var parsed realTimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return wind.Reading{}, err
	}
	if parsed.Code != 0 {
		return wind.Reading{}, fmt.Errorf("ecowitt: api code %d: %s", parsed.Code, parsed.Msg)
	}

	reading := wind.Reading{
		Speed:     parseValue(parsed.Data.Wind.WindSpeed.Value),
		Gust:      parseValue(parsed.Data.Wind.WindGust.Value),
		Direction: parseValue(parsed.Data.Wind.WindDirection.Value),
		TakenAt:   time.Now().UTC(),
	}
	if reading.Speed == nil && reading.Gust == nil && reading.Direction == nil {
		return wind.Reading{}, errors.New("ecowitt: empty wind block")
	}
	return reading, nil
}

// Values arrive string-encoded; anything unparsable is treated as missing.
func parseValue(raw string) *float64 {
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
