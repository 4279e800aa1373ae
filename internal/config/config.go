package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-reader/internal/geo"
)

// DefaultCities is the built-in city set, loaded once at startup and immutable
// thereafter. WEATHER_CITIES overrides it.
var DefaultCities = []geo.CityEntry{
	{Name: "Istanbul", Country: "TR"},
	{Name: "London", Country: "GB"},
	{Name: "Saint Petersburg", Country: "RU"},
	{Name: "Berlin", Country: "DE"},
	{Name: "Madrid", Country: "ES"},
	{Name: "Kyiv", Country: "UA"},
	{Name: "Rome", Country: "IT"},
	{Name: "Bucharest", Country: "RO"},
	{Name: "Paris", Country: "FR"},
	{Name: "Minsk", Country: "BY"},
	{Name: "Vienna", Country: "AT"},
	{Name: "Warsaw", Country: "PL"},
	{Name: "Hamburg", Country: "DE"},
	{Name: "Budapest", Country: "HU"},
	{Name: "Belgrade", Country: "RS"},
	{Name: "Barcelona", Country: "ES"},
	{Name: "Munich", Country: "DE"},
	{Name: "Kharkiv", Country: "UA"},
	{Name: "Milan", Country: "IT"},
}

type AppConfig struct {
	APIKey string

	// Endpoints. Defaults point at the OpenWeatherMap One Call and direct
	// geocoding APIs.
	WeatherURL string
	GeoURL     string

	HTTPTimeout time.Duration
	GeoRate     float64

	// Cities to read weather for.
	Cities []geo.CityEntry

	// Download strategy and its max concurrency.
	Strategy       string
	MaxConcurrency int

	// Local artifacts.
	DataDir   string
	CachePath string

	// Optional relational sink; empty DSN disables it.
	DatabaseDSN string

	// Serve-mode settings.
	FetchInterval time.Duration
	Port          string

	// Run-summary store retention in serve mode.
	StoreMaxHistory int
	StoreMaxAge     time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.APIKey = os.Getenv("API_KEY")
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY is required")
	}

	cfg.WeatherURL = getenvDefault("WEATHER_URL", "https://api.openweathermap.org/data/3.0/onecall")
	cfg.GeoURL = getenvDefault("GEO_URL", "https://api.openweathermap.org/geo/1.0/direct")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.GeoRate = getenvFloat("GEO_RATE", 5.0)

	cities, err := loadCities()
	if err != nil {
		return nil, err
	}
	cfg.Cities = cities

	cfg.Strategy = getenvDefault("DOWNLOAD_STRATEGY", "sequential")
	cfg.MaxConcurrency = getenvInt("MAX_CONCURRENCY", 5)

	cfg.DataDir = getenvDefault("DATA_DIR", "data")
	cfg.CachePath = getenvDefault("COORD_CACHE_PATH", "data/city_lat_lon.db")
	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")

	intervalStr := getenvDefault("FETCH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96)
	maxAgeStr := getenvDefault("STORE_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	return cfg, nil
}

// loadCities parses WEATHER_CITIES, a comma-separated list of "Name:CC" or
// "Name:CC:State" entries. Empty falls back to DefaultCities.
func loadCities() ([]geo.CityEntry, error) {
	raw := os.Getenv("WEATHER_CITIES")
	if raw == "" {
		return DefaultCities, nil
	}

	var cities []geo.CityEntry
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		switch len(parts) {
		case 2:
			cities = append(cities, geo.CityEntry{Name: parts[0], Country: parts[1]})
		case 3:
			cities = append(cities, geo.CityEntry{Name: parts[0], Country: parts[1], State: parts[2]})
		default:
			return nil, fmt.Errorf("invalid WEATHER_CITIES entry %q", entry)
		}
	}
	return cities, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
