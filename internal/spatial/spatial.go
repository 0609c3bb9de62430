// Package spatial provides the geometric helpers used by boundary capture
// and camera fitting: great-circle distance, ring area, centroids and
// bounding boxes over WGS84 coordinates.
package spatial

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/dealscope/warmap-backend-go/internal/models"
)

// EarthRadiusMeters is the mean earth radius used for metric conversions
const EarthRadiusMeters = 6371008.8

// HaversineDistance calculates the great-circle distance between two points
// in meters
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// RingAreaSqm returns the area in square meters enclosed by the given ring.
// The ring is treated as a simple polygon; orientation does not matter.
// Rings with fewer than 3 vertices have zero area.
func RingAreaSqm(ring []models.LngLat) float64 {
	if len(ring) < 3 {
		return 0
	}

	points := make([]s2.Point, len(ring))
	for i, c := range ring {
		points[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lng))
	}

	loop := s2.LoopFromPoints(points)
	loop.Normalize()
	return loop.Area() * EarthRadiusMeters * EarthRadiusMeters
}

// RingCentroid returns the vertex centroid of a ring
func RingCentroid(ring []models.LngLat) models.LngLat {
	if len(ring) == 0 {
		return models.LngLat{}
	}

	var sumLat, sumLng float64
	for _, c := range ring {
		sumLat += c.Lat
		sumLng += c.Lng
	}

	return models.LngLat{
		Lng: sumLng / float64(len(ring)),
		Lat: sumLat / float64(len(ring)),
	}
}

// BoundingBox returns (minLng, minLat, maxLng, maxLat) for a set of
// coordinates
func BoundingBox(coords []models.LngLat) (float64, float64, float64, float64) {
	if len(coords) == 0 {
		return 0, 0, 0, 0
	}

	minLng, maxLng := coords[0].Lng, coords[0].Lng
	minLat, maxLat := coords[0].Lat, coords[0].Lat

	for _, c := range coords[1:] {
		minLng = math.Min(minLng, c.Lng)
		maxLng = math.Max(maxLng, c.Lng)
		minLat = math.Min(minLat, c.Lat)
		maxLat = math.Max(maxLat, c.Lat)
	}

	return minLng, minLat, maxLng, maxLat
}
