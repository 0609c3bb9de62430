package service

import (
	"context"

	"github.com/dealscope/warmap-backend-go/internal/geocode"
	"github.com/dealscope/warmap-backend-go/internal/models"
)

// GeocodingService resolves addresses and feeds the drawing controller.
// Two flows: a new development geocodes then opens a boundary drawing
// session centred on the hit; an existing property geocodes straight into a
// Point geometry with no drawing.
type GeocodingService struct {
	resolver geocode.Resolver
	drawing  *DrawingService
}

// NewGeocodingService creates a new geocoding service
func NewGeocodingService(resolver geocode.Resolver, drawing *DrawingService) *GeocodingService {
	return &GeocodingService{resolver: resolver, drawing: drawing}
}

// Resolve returns the coordinate for an address, or a NotFoundError when
// the geocoder has no match. No session is created here.
func (s *GeocodingService) Resolve(ctx context.Context, address string) (models.LngLat, error) {
	return s.resolver.Resolve(ctx, address)
}

// StartBoundaryDrawing geocodes the address and opens a boundary drawing
// session with the hit as the camera center. A geocoding miss surfaces
// before any session state changes.
func (s *GeocodingService) StartBoundaryDrawing(ctx context.Context, userID, address string) (*models.DrawingSession, error) {
	center, err := s.resolver.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}

	return s.drawing.StartSession(userID, models.DrawingModeBoundary, &center)
}

// ExistingProperty geocodes the address and immediately completes a Point
// capture, skipping the drawing state entirely.
func (s *GeocodingService) ExistingProperty(ctx context.Context, userID, address string) (*CompletedDrawing, error) {
	point, err := s.resolver.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}

	return s.drawing.CompletePoint(userID, models.DrawingModeBoundary, point)
}
