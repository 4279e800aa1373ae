// Package fetch implements the outbound client for the current-conditions
// weather endpoint. One request per city per run; failures are classified by
// the caller via errors.Is, not retried.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	// ErrNotFound marks a remote not-found condition for the coordinate.
	ErrNotFound = errors.New("reading not found")
)

// Fetcher is the contract the download strategies depend on.
type Fetcher interface {
	Current(ctx context.Context, lat, lon float64) (map[string]any, error)
}

// Client fetches current conditions from the weather endpoint. A circuit
// breaker shields the shared endpoint when many per-city calls fail in a row.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a Client for the given base endpoint and API key.
func NewClient(client *http.Client, baseURL, apiKey string, logger *zap.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		circuit: cb,
		logger:  logger,
	}
}

// Current performs one GET for the coordinate, excluding the minutely, hourly,
// daily and alert blocks, and returns the decoded JSON document.
func (c *Client) Current(ctx context.Context, lat, lon float64) (map[string]any, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("exclude", "hourly,daily,minutely,alerts")
	values.Set("appid", c.apiKey)

	u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())

	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: lat=%f lon=%f", ErrNotFound, lat, lon)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		var payload map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}

	payload, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return payload, nil
}
