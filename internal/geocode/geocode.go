// Package geocode wraps the Google Maps geocoding API behind a resolver
// interface that yields plain coordinates.
package geocode

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/dealscope/warmap-backend-go/internal/apperr"
	"github.com/dealscope/warmap-backend-go/internal/models"
)

// Resolver resolves a street address to a coordinate
type Resolver interface {
	Resolve(ctx context.Context, address string) (models.LngLat, error)
}

// GoogleResolver resolves addresses through the Google Maps geocoding API
type GoogleResolver struct {
	client *maps.Client
}

// NewGoogleResolver creates a resolver with the given API key
func NewGoogleResolver(apiKey string) (*GoogleResolver, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("maps API key not set")
	}

	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return &GoogleResolver{client: client}, nil
}

// Resolve returns the coordinate of the first geocoding result. No retries;
// a miss surfaces as a NotFoundError for the caller to report inline.
func (g *GoogleResolver) Resolve(ctx context.Context, address string) (models.LngLat, error) {
	req := &maps.GeocodingRequest{Address: address}

	results, err := g.client.Geocode(ctx, req)
	if err != nil {
		return models.LngLat{}, fmt.Errorf("geocoding request failed: %w", err)
	}

	if len(results) == 0 {
		return models.LngLat{}, apperr.NotFound("address", address)
	}

	loc := results[0].Geometry.Location
	return models.LngLat{Lng: loc.Lng, Lat: loc.Lat}, nil
}
