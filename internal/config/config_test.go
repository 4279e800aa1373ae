package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-reader/internal/geo"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-key", cfg.APIKey)
		assert.Equal(t, "https://api.openweathermap.org/data/3.0/onecall", cfg.WeatherURL)
		assert.Equal(t, "https://api.openweathermap.org/geo/1.0/direct", cfg.GeoURL)
		assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, "sequential", cfg.Strategy)
		assert.Equal(t, 5, cfg.MaxConcurrency)
		assert.Equal(t, DefaultCities, cfg.Cities)
		assert.Equal(t, 15*time.Minute, cfg.FetchInterval)
		assert.Empty(t, cfg.DatabaseDSN)
	})

	t.Run("missing api key", func(t *testing.T) {
		t.Setenv("API_KEY", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("custom environment", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("DOWNLOAD_STRATEGY", "gate")
		t.Setenv("MAX_CONCURRENCY", "8")
		t.Setenv("HTTP_TIMEOUT", "3s")
		t.Setenv("DATABASE_DSN", "postgres://localhost:5432/weather")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "gate", cfg.Strategy)
		assert.Equal(t, 8, cfg.MaxConcurrency)
		assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, "postgres://localhost:5432/weather", cfg.DatabaseDSN)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("HTTP_TIMEOUT", "soon")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadCities(t *testing.T) {
	t.Run("custom list", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("WEATHER_CITIES", "Portland:US:OR, Lyon:FR,Graz:AT")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, []geo.CityEntry{
			{Name: "Portland", Country: "US", State: "OR"},
			{Name: "Lyon", Country: "FR"},
			{Name: "Graz", Country: "AT"},
		}, cfg.Cities)
	})

	t.Run("malformed entry", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("WEATHER_CITIES", "Lyon")

		_, err := Load()
		assert.Error(t, err)
	})
}
