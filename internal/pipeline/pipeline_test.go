package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/weather-reader/internal/geo"
	"github.com/i474232898/weather-reader/internal/reading"
	"github.com/i474232898/weather-reader/internal/sink"
)

// stubStrategy returns a canned batch and records the city set it was given.
type stubStrategy struct {
	batch reading.Batch
	seen  []geo.ResolvedCity
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Download(ctx context.Context, cities []geo.ResolvedCity) (reading.Batch, reading.Tally) {
	s.seen = cities
	return s.batch, s.batch.Tally
}

func newTestResolver(t *testing.T) *geo.CachedResolver {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]geo.Coordinates{{Lat: 48.8534, Lon: 2.3488}})
	}))
	t.Cleanup(srv.Close)

	cache, err := geo.OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return geo.NewCachedResolver(
		cache,
		geo.NewResolver(srv.Client(), srv.URL, "k", 100, zap.NewNop()),
		zap.NewNop(),
	)
}

func TestRunProducesSummaryAndParquet(t *testing.T) {
	logger := zap.NewNop()
	dataDir := t.TempDir()

	row := reading.Reading{
		Lat: 48.8534, Lon: 2.3488, Timezone: "Europe/Paris",
		Dt: 1684929490, Humidity: 50, Timestamp: time.Now(), City: "Paris",
	}
	strategy := &stubStrategy{
		batch: reading.Batch{
			Rows: []reading.Reading{row},
			Tally: reading.Tally{
				reading.StatusOK:       1,
				reading.StatusNotFound: 1,
				reading.StatusError:    2,
			},
		},
	}

	p := New(
		[]geo.CityEntry{{Name: "Paris", Country: "FR"}},
		newTestResolver(t),
		strategy,
		reading.NewValidator(logger),
		sink.NewParquetWriter(dataDir, logger),
		nil,
		logger,
	)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, summary.RunID)
	assert.Equal(t, "stub", summary.Strategy)
	assert.Equal(t, 1, summary.OK)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, 2, summary.Errors)
	assert.Equal(t, 1, summary.Rows)
	assert.Greater(t, summary.Elapsed, time.Duration(0))

	require.Len(t, strategy.seen, 1)
	assert.Equal(t, "Paris", strategy.seen[0].Name)
	assert.Equal(t, 48.8534, strategy.seen[0].Lat)

	require.NotEmpty(t, summary.ParquetPath)
	_, err = os.Stat(summary.ParquetPath)
	assert.NoError(t, err)
}

func TestRunFailsWhenResolutionFails(t *testing.T) {
	logger := zap.NewNop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]geo.Coordinates{})
	}))
	t.Cleanup(srv.Close)

	cache, err := geo.OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	resolver := geo.NewCachedResolver(
		cache,
		geo.NewResolver(srv.Client(), srv.URL, "k", 100, zap.NewNop()),
		zap.NewNop(),
	)

	p := New(
		[]geo.CityEntry{{Name: "Atlantis", Country: "GR"}},
		resolver,
		&stubStrategy{},
		reading.NewValidator(logger),
		sink.NewParquetWriter(t.TempDir(), logger),
		nil,
		logger,
	)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, geo.ErrNoMatch)
}
