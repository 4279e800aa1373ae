package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCurrentDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "hourly,daily,minutely,alerts", q.Get("exclude"))
		assert.Equal(t, "test-key", q.Get("appid"))
		assert.NotEmpty(t, q.Get("lat"))
		assert.NotEmpty(t, q.Get("lon"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"lat": 48.8534, "lon": 2.3488, "timezone": "Europe/Paris", "current": {"temp": 292.55}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "test-key", zap.NewNop())

	payload, err := c.Current(context.Background(), 48.8534, 2.3488)
	require.NoError(t, err)

	assert.Equal(t, 48.8534, payload["lat"])
	assert.Equal(t, "Europe/Paris", payload["timezone"])

	current, ok := payload["current"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 292.55, current["temp"])
}

func TestCurrentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "test-key", zap.NewNop())

	_, err := c.Current(context.Background(), 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCurrentUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "test-key", zap.NewNop())

	_, err := c.Current(context.Background(), 48.8534, 2.3488)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCurrentMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lat": `))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "test-key", zap.NewNop())

	_, err := c.Current(context.Background(), 48.8534, 2.3488)
	assert.Error(t, err)
}
