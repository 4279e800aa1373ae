// Package geo resolves configured cities to coordinates via the direct
// geocoding endpoint and caches the results locally between runs.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrNoMatch is returned when the geocoding provider has no result for a
	// city. Resolution is batch-fatal: one unresolvable city aborts the set.
	ErrNoMatch = errors.New("no geocoding match")
)

// CityEntry identifies one configured city. State participates in the lookup
// query only for US cities. Immutable once loaded.
type CityEntry struct {
	Name    string
	Country string
	State   string
}

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ResolvedCity pairs a configured city with its resolved coordinates.
type ResolvedCity struct {
	CityEntry
	Coordinates
}

// Resolver looks up coordinates for city entries, one query per city, first
// result wins. Lookups are rate limited to stay inside the provider quota.
type Resolver struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewResolver creates a Resolver against the given geocoding endpoint.
func NewResolver(client *http.Client, baseURL, apiKey string, ratePerSec float64, logger *zap.Logger) *Resolver {
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Resolver{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		logger:  logger,
	}
}

// Query builds the geocoding query string for a city: "{city},{state},{country}"
// for US cities with a state, "{city},{country}" otherwise.
func Query(c CityEntry) string {
	if c.Country == "US" && c.State != "" {
		return fmt.Sprintf("%s,%s,%s", c.Name, c.State, c.Country)
	}
	return fmt.Sprintf("%s,%s", c.Name, c.Country)
}

// Resolve looks up coordinates for every entry. Any lookup failure or empty
// result aborts the whole batch.
func (r *Resolver) Resolve(ctx context.Context, cities []CityEntry) ([]ResolvedCity, error) {
	resolved := make([]ResolvedCity, 0, len(cities))

	for _, city := range cities {
		coords, err := r.lookup(ctx, city)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", city.Name, err)
		}
		r.logger.Info("resolved city",
			zap.String("city", city.Name),
			zap.Float64("lat", coords.Lat),
			zap.Float64("lon", coords.Lon),
		)
		resolved = append(resolved, ResolvedCity{CityEntry: city, Coordinates: coords})
	}

	return resolved, nil
}

func (r *Resolver) lookup(ctx context.Context, city CityEntry) (Coordinates, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Coordinates{}, err
	}

	values := url.Values{}
	values.Set("q", Query(city))
	values.Set("limit", "1")
	values.Set("appid", r.apiKey)

	u := fmt.Sprintf("%s?%s", r.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinates{}, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Coordinates{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geocoding status %d", resp.StatusCode)
	}

	var matches []Coordinates
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		return Coordinates{}, fmt.Errorf("decoding geocoding response: %w", err)
	}
	if len(matches) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %s", ErrNoMatch, Query(city))
	}

	return matches[0], nil
}
