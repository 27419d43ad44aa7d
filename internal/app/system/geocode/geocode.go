// Package geocode resolves street addresses to coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultEndpoint is the Google Geocoding API JSON endpoint.
const DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// DefaultCoordinates is used when an address cannot be resolved.
var DefaultCoordinates = models.Coordinates{Lat: 12.9165, Lng: 79.1325}

// Resolver is the geocoding collaborator.
type Resolver interface {
	ResolveAddress(ctx context.Context, address string) (models.Coordinates, error)
}

// StatusError reports a non-OK geocoder status such as ZERO_RESULTS.
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return "geocode was not successful: " + e.Status
}

// ErrNoAPIKey is returned when the client has no API key.
var ErrNoAPIKey = errors.New("geocode api key not configured")

// Client calls the Google Geocoding API.
type Client struct {
	http   *resty.Client
	apiKey string
	logger *zap.Logger
}

// NewClient builds a geocoding client. An empty endpoint uses DefaultEndpoint.
func NewClient(endpoint, apiKey string, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	hc := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(10*time.Second).
		SetRetryCount(1).
		SetHeader("Accept", "application/json")

	return &Client{http: hc, apiKey: apiKey, logger: logger}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// ResolveAddress returns the first match's coordinates.
func (c *Client) ResolveAddress(ctx context.Context, address string) (models.Coordinates, error) {
	if c.apiKey == "" {
		return models.Coordinates{}, ErrNoAPIKey
	}

	var out geocodeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"address": address, "key": c.apiKey}).
		SetResult(&out).
		Get("")
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("geocode request: %w", err)
	}
	if resp.IsError() {
		return models.Coordinates{}, fmt.Errorf("geocode request: status %d", resp.StatusCode())
	}
	if out.Status != "OK" || len(out.Results) == 0 {
		status := out.Status
		if status == "" {
			status = "ZERO_RESULTS"
		}
		return models.Coordinates{}, &StatusError{Status: status}
	}

	loc := out.Results[0].Geometry.Location
	return models.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// ResolveOrDefault resolves address, falling back to DefaultCoordinates
// (and logging) on any failure. The bool reports whether the result came
// from the geocoder.
func ResolveOrDefault(ctx context.Context, r Resolver, address string, log *zap.Logger) (models.Coordinates, bool) {
	if r == nil {
		return DefaultCoordinates, false
	}
	coords, err := r.ResolveAddress(ctx, address)
	if err != nil {
		log.Warn("geocoding failed; using default coordinates",
			zap.String("address", address),
			zap.Error(err))
		return DefaultCoordinates, false
	}
	return coords, true
}
