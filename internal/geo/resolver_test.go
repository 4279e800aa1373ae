package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		city CityEntry
		want string
	}{
		{"plain city", CityEntry{Name: "Paris", Country: "FR"}, "Paris,FR"},
		{"us city with state", CityEntry{Name: "Portland", Country: "US", State: "OR"}, "Portland,OR,US"},
		{"us city without state", CityEntry{Name: "Chicago", Country: "US"}, "Chicago,US"},
		{"state ignored outside us", CityEntry{Name: "Munich", Country: "DE", State: "BY"}, "Munich,DE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Query(tt.city))
		})
	}
}

func TestResolve(t *testing.T) {
	coords := map[string]Coordinates{
		"Paris,FR":  {Lat: 48.8534, Lon: 2.3488},
		"Berlin,DE": {Lat: 52.5244, Lon: 13.4105},
	}

	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		queries = append(queries, q)

		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))

		c, ok := coords[q]
		if !ok {
			json.NewEncoder(w).Encode([]Coordinates{})
			return
		}
		json.NewEncoder(w).Encode([]Coordinates{c})
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), srv.URL, "test-key", 100, zap.NewNop())

	t.Run("resolves every city in order", func(t *testing.T) {
		cities := []CityEntry{
			{Name: "Paris", Country: "FR"},
			{Name: "Berlin", Country: "DE"},
		}

		resolved, err := r.Resolve(context.Background(), cities)
		require.NoError(t, err)
		require.Len(t, resolved, 2)

		assert.Equal(t, "Paris", resolved[0].Name)
		assert.Equal(t, 48.8534, resolved[0].Lat)
		assert.Equal(t, "Berlin", resolved[1].Name)
		assert.Equal(t, 13.4105, resolved[1].Lon)
	})

	t.Run("unknown city aborts the batch", func(t *testing.T) {
		cities := []CityEntry{
			{Name: "Paris", Country: "FR"},
			{Name: "Atlantis", Country: "GR"},
			{Name: "Berlin", Country: "DE"},
		}

		queries = nil
		resolved, err := r.Resolve(context.Background(), cities)
		assert.Nil(t, resolved)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoMatch)

		// Lookup stops at the first failure.
		assert.Equal(t, []string{"Paris,FR", "Atlantis,GR"}, queries)
	})
}

func TestResolveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), srv.URL, "test-key", 100, zap.NewNop())

	_, err := r.Resolve(context.Background(), []CityEntry{{Name: "Paris", Country: "FR"}})
	assert.Error(t, err)
}
