package models

import (
	"encoding/json"
	"fmt"
)

// Geometry is a GeoJSON Point or Polygon. Polygon coordinates hold a single
// exterior ring; holes are not captured by the drawing flow.
type Geometry struct {
	Type  string       // "Point" or "Polygon"
	Point LngLat       // set when Type == "Point"
	Ring  []LngLat     // exterior ring when Type == "Polygon", closed on marshal
}

// GeometryType constants
const (
	GeometryPoint   = "Point"
	GeometryPolygon = "Polygon"
)

// NewPoint returns a Point geometry
func NewPoint(lng, lat float64) *Geometry {
	return &Geometry{Type: GeometryPoint, Point: LngLat{Lng: lng, Lat: lat}}
}

// NewPolygon returns a Polygon geometry over the given exterior ring
func NewPolygon(ring []LngLat) *Geometry {
	return &Geometry{Type: GeometryPolygon, Ring: ring}
}

// geoJSON is the wire shape
type geoJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// MarshalJSON emits standard GeoJSON with [lng, lat] coordinate order.
// Polygon rings are closed (first vertex repeated last) on output.
func (g *Geometry) MarshalJSON() ([]byte, error) {
	switch g.Type {
	case GeometryPoint:
		coords, err := json.Marshal([2]float64{g.Point.Lng, g.Point.Lat})
		if err != nil {
			return nil, err
		}
		return json.Marshal(geoJSON{Type: GeometryPoint, Coordinates: coords})
	case GeometryPolygon:
		ring := make([][2]float64, 0, len(g.Ring)+1)
		for _, p := range g.Ring {
			ring = append(ring, [2]float64{p.Lng, p.Lat})
		}
		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		coords, err := json.Marshal([][][2]float64{ring})
		if err != nil {
			return nil, err
		}
		return json.Marshal(geoJSON{Type: GeometryPolygon, Coordinates: coords})
	}
	return nil, fmt.Errorf("unsupported geometry type: %q", g.Type)
}

// UnmarshalJSON parses a GeoJSON Point or Polygon. Only the exterior ring of
// a polygon is kept; a closing duplicate vertex is dropped.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var raw geoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case GeometryPoint:
		var coords [2]float64
		if err := json.Unmarshal(raw.Coordinates, &coords); err != nil {
			return fmt.Errorf("invalid point coordinates: %w", err)
		}
		g.Type = GeometryPoint
		g.Point = LngLat{Lng: coords[0], Lat: coords[1]}
		g.Ring = nil
	case GeometryPolygon:
		var rings [][][2]float64
		if err := json.Unmarshal(raw.Coordinates, &rings); err != nil {
			return fmt.Errorf("invalid polygon coordinates: %w", err)
		}
		if len(rings) == 0 {
			return fmt.Errorf("polygon has no rings")
		}
		ring := rings[0]
		if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
			ring = ring[:len(ring)-1]
		}
		g.Type = GeometryPolygon
		g.Ring = make([]LngLat, len(ring))
		for i, c := range ring {
			g.Ring[i] = LngLat{Lng: c[0], Lat: c[1]}
		}
	default:
		return fmt.Errorf("unsupported geometry type: %q", raw.Type)
	}

	return nil
}

// VertexCount returns the number of captured vertices (0 or 1 for points)
func (g *Geometry) VertexCount() int {
	if g == nil {
		return 0
	}
	if g.Type == GeometryPoint {
		return 1
	}
	return len(g.Ring)
}
