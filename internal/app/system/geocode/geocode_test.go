package geocode_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/bloodlink/internal/app/system/geocode"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_ResolveAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12 Main St", r.URL.Query().Get("address"))
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":1.5,"lng":-2.25}}}]}`))
	}))
	defer srv.Close()

	c := geocode.NewClient(srv.URL, "k", zap.NewNop())
	got, err := c.ResolveAddress(context.Background(), "12 Main St")
	require.NoError(t, err)
	assert.Equal(t, models.Coordinates{Lat: 1.5, Lng: -2.25}, got)
}

func TestClient_ResolveAddress_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	c := geocode.NewClient(srv.URL, "k", zap.NewNop())
	_, err := c.ResolveAddress(context.Background(), "nowhere")

	var se *geocode.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "ZERO_RESULTS", se.Status)
}

func TestClient_ResolveAddress_NoKey(t *testing.T) {
	c := geocode.NewClient("", "", zap.NewNop())
	_, err := c.ResolveAddress(context.Background(), "x")
	assert.ErrorIs(t, err, geocode.ErrNoAPIKey)
}

type stubResolver struct {
	coords models.Coordinates
	err    error
}

func (s stubResolver) ResolveAddress(context.Context, string) (models.Coordinates, error) {
	return s.coords, s.err
}

func TestResolveOrDefault(t *testing.T) {
	log := zap.NewNop()
	ctx := context.Background()

	got, ok := geocode.ResolveOrDefault(ctx, stubResolver{coords: models.Coordinates{Lat: 3, Lng: 4}}, "a", log)
	assert.True(t, ok)
	assert.Equal(t, models.Coordinates{Lat: 3, Lng: 4}, got)

	got, ok = geocode.ResolveOrDefault(ctx, stubResolver{err: &geocode.StatusError{Status: "REQUEST_DENIED"}}, "a", log)
	assert.False(t, ok)
	assert.Equal(t, geocode.DefaultCoordinates, got)

	got, ok = geocode.ResolveOrDefault(ctx, nil, "a", log)
	assert.False(t, ok)
	assert.Equal(t, geocode.DefaultCoordinates, got)
}
