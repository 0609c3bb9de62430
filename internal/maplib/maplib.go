// Package maplib is the narrow port to the third-party interactive map.
// The rendering pipeline and drawing controller talk to the surface only
// through this interface; tile handling, camera animation and draw tooling
// stay on the other side of it.
package maplib

import (
	"sync"

	"github.com/dealscope/warmap-backend-go/internal/models"
)

// Primitive kinds
const (
	PrimitiveMarker      = "marker"
	PrimitiveHeatmapCell = "heatmap_cell"
	PrimitiveShape       = "shape"
	PrimitiveBubble      = "bubble"
)

// DrawPrimitive is a single drawable instruction for the map surface
type DrawPrimitive struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	LayerID string          `json:"layer_id"`
	ZIndex  int             `json:"z_index"`
	Lng     float64         `json:"lng"`
	Lat     float64         `json:"lat"`
	Color   string          `json:"color,omitempty"`
	Icon    string          `json:"icon,omitempty"`
	Label   string          `json:"label,omitempty"`
	Opacity float64         `json:"opacity"`
	Weight  float64         `json:"weight,omitempty"` // heatmap intensity / bubble radius
	Ring    []models.LngLat `json:"ring,omitempty"`   // shape outline
	Popup   models.JSONMap  `json:"popup,omitempty"`
}

// Surface is the external map collaborator
type Surface interface {
	AddPrimitive(p DrawPrimitive)
	RemovePrimitive(id string)
	FlyTo(center models.LngLat, zoom float64)
	OnGeometryChange(fn func(g models.Geometry))
}

// Recorder is a Surface that records calls. It backs headless operation and
// tests; a browser client replays the recorded camera state on attach.
type Recorder struct {
	mu         sync.Mutex
	primitives map[string]DrawPrimitive
	center     models.LngLat
	zoom       float64
	flyCount   int
	geomFns    []func(models.Geometry)
}

// NewRecorder creates an empty recording surface
func NewRecorder() *Recorder {
	return &Recorder{primitives: make(map[string]DrawPrimitive)}
}

// AddPrimitive implements Surface
func (r *Recorder) AddPrimitive(p DrawPrimitive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primitives[p.ID] = p
}

// RemovePrimitive implements Surface
func (r *Recorder) RemovePrimitive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.primitives, id)
}

// FlyTo implements Surface
func (r *Recorder) FlyTo(center models.LngLat, zoom float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.center = center
	r.zoom = zoom
	r.flyCount++
}

// OnGeometryChange implements Surface
func (r *Recorder) OnGeometryChange(fn func(g models.Geometry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.geomFns = append(r.geomFns, fn)
}

// EmitGeometry delivers a geometry event to registered listeners
func (r *Recorder) EmitGeometry(g models.Geometry) {
	r.mu.Lock()
	fns := make([]func(models.Geometry), len(r.geomFns))
	copy(fns, r.geomFns)
	r.mu.Unlock()

	for _, fn := range fns {
		fn(g)
	}
}

// Camera returns the last FlyTo target and how many flights happened
func (r *Recorder) Camera() (models.LngLat, float64, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.center, r.zoom, r.flyCount
}

// PrimitiveCount returns the number of primitives currently on the surface
func (r *Recorder) PrimitiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.primitives)
}
