package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/undownding/city-card/internal/domain/geo"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Config controls the reverse geocoding client.
type Config struct {
	BaseURL   string
	UserAgent string
	Zoom      int
}

// Client resolves coordinates against a Nominatim compatible endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

// NewClient builds a geocoding client guarded by a circuit breaker.
func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Zoom <= 0 {
		cfg.Zoom = 10
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "nominatim",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

type reverseResponse struct {
	Address map[string]any `json:"address"`
}

// Reverse fetches the address object for the given coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon string) (geo.Address, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", lat)
	query.Set("lon", lon)
	query.Set("zoom", strconv.Itoa(c.cfg.Zoom))
	query.Set("addressdetails", "1")
	endpoint := fmt.Sprintf("%s/reverse?%s", c.cfg.BaseURL, query.Encode())

	body, err := c.doWithRetry(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var raw reverseResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode reverse geocode response: %w", err)
	}
	return geo.Address(raw.Address), nil
}

// doWithRetry executes the request through the circuit breaker with a short
// bounded backoff. An open circuit fails fast without touching the upstream;
// 4xx responses are deterministic and never retried.
func (c *Client) doWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	const maxAttempts = 3
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<(attempt-1)) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			return c.doOnce(ctx, endpoint)
		})
		if err == nil {
			return result.([]byte), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("geocoder circuit open: %w", err)
		}
		var httpErr *statusError
		if errors.As(err, &httpErr) && httpErr.status < 500 {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build reverse geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &statusError{status: resp.StatusCode, body: string(payload)}
	}

	return io.ReadAll(resp.Body)
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("reverse geocode error: status=%d body=%s", e.status, e.body)
}
