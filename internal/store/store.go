// Package store holds the authoritative in-memory layer state for one map.
// Every mutation applies to memory first, then persists; a failed persist
// restores the pre-mutation snapshot and surfaces the error, so callers
// always observe either the old state or the new one.
package store

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dealscope/warmap-backend-go/internal/apperr"
	"github.com/dealscope/warmap-backend-go/internal/models"
)

// Persister is the backend the store writes through to
type Persister interface {
	Create(layer *models.MapLayer) error
	UpdateVisibility(id string, visible bool) error
	UpdateOpacity(id string, opacity float64) error
	UpdateOrder(order []models.LayerOrder) error
	Delete(id string) error
}

// CachePurger drops cached point data for a layer. The fetcher implements
// this; deleting a layer must purge its data, not merely hide it.
type CachePurger interface {
	Purge(layerID string)
}

// LayerStore is the in-memory layer set of a single map. It is owned by the
// map that created it and passed to consumers explicitly; there is no
// package-level instance.
type LayerStore struct {
	mu        sync.Mutex
	mapID     string
	layers    map[string]*models.MapLayer
	persister Persister
	purger    CachePurger
}

// New creates a store for the given map
func New(mapID string, persister Persister, purger CachePurger) *LayerStore {
	return &LayerStore{
		mapID:     mapID,
		layers:    make(map[string]*models.MapLayer),
		persister: persister,
		purger:    purger,
	}
}

// MapID returns the owning map id
func (s *LayerStore) MapID() string {
	return s.mapID
}

// Load replaces the in-memory set with already-persisted layers. Used when
// hydrating from the repository on map open; no persistence call is made.
func (s *LayerStore) Load(layers []*models.MapLayer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.layers = make(map[string]*models.MapLayer, len(layers))
	for _, layer := range layers {
		s.layers[layer.ID] = layer.Clone()
	}
}

// Layers returns the current layer set ordered by z_index ascending
func (s *LayerStore) Layers() []*models.MapLayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderedLocked()
}

// Get returns a copy of a single layer
func (s *LayerStore) Get(id string) (*models.MapLayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer, ok := s.layers[id]
	if !ok {
		return nil, apperr.NotFound("layer", id)
	}
	return layer.Clone(), nil
}

// CreateLayer validates the request, appends the layer at the top of the
// stack and persists it
func (s *LayerStore) CreateLayer(req models.CreateLayerRequest) (*models.MapLayer, error) {
	if !models.ValidLayerType(req.LayerType) {
		return nil, apperr.Validationf("layer_type", "unknown layer type %q", req.LayerType)
	}
	if !models.ValidSourceType(req.SourceType) {
		return nil, apperr.Validationf("source_type", "unknown source type %q", req.SourceType)
	}

	opacity := 1.0
	if req.Opacity != nil {
		if !models.ValidOpacity(*req.Opacity) {
			return nil, apperr.Validationf("opacity", "opacity %v outside [0,1]", *req.Opacity)
		}
		opacity = *req.Opacity
	}

	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}

	layer := &models.MapLayer{
		ID:           uuid.NewString(),
		MapID:        s.mapID,
		Name:         req.Name,
		LayerType:    req.LayerType,
		SourceType:   req.SourceType,
		Visible:      visible,
		Opacity:      opacity,
		Filters:      req.Filters,
		Style:        req.Style,
		SourceConfig: req.SourceConfig,
	}
	if layer.Filters == nil {
		layer.Filters = models.JSONMap{}
	}
	if layer.Style == nil {
		layer.Style = models.JSONMap{}
	}
	if layer.SourceConfig == nil {
		layer.SourceConfig = models.JSONMap{}
	}

	s.mu.Lock()
	layer.ZIndex = s.nextZIndexLocked()
	s.layers[layer.ID] = layer
	s.mu.Unlock()

	if err := s.persister.Create(layer); err != nil {
		s.mu.Lock()
		delete(s.layers, layer.ID)
		s.mu.Unlock()
		return nil, apperr.Persistence("create layer", err)
	}

	return layer.Clone(), nil
}

// ToggleVisibility flips a layer's visible flag. Opacity and style are
// untouched, so toggling twice restores the original appearance.
func (s *LayerStore) ToggleVisibility(id string) (*models.MapLayer, error) {
	s.mu.Lock()
	layer, ok := s.layers[id]
	if !ok {
		s.mu.Unlock()
		return nil, apperr.NotFound("layer", id)
	}

	prev := layer.Visible
	layer.Visible = !prev
	next := layer.Visible
	s.mu.Unlock()

	if err := s.persister.UpdateVisibility(id, next); err != nil {
		s.mu.Lock()
		if l, ok := s.layers[id]; ok {
			l.Visible = prev
		}
		s.mu.Unlock()
		return nil, apperr.Persistence("toggle visibility", err)
	}

	if !next && s.purger != nil {
		s.purger.Purge(id)
	}

	s.mu.Lock()
	out := s.layers[id].Clone()
	s.mu.Unlock()
	return out, nil
}

// UpdateOpacity sets a layer's opacity. Values outside [0,1] are rejected,
// not clamped; a caller sending 1.5 has a bug worth surfacing.
func (s *LayerStore) UpdateOpacity(id string, value float64) (*models.MapLayer, error) {
	if !models.ValidOpacity(value) {
		return nil, apperr.Validationf("opacity", "opacity %v outside [0,1]", value)
	}

	s.mu.Lock()
	layer, ok := s.layers[id]
	if !ok {
		s.mu.Unlock()
		return nil, apperr.NotFound("layer", id)
	}

	prev := layer.Opacity
	layer.Opacity = value
	s.mu.Unlock()

	if err := s.persister.UpdateOpacity(id, value); err != nil {
		s.mu.Lock()
		if l, ok := s.layers[id]; ok {
			l.Opacity = prev
		}
		s.mu.Unlock()
		return nil, apperr.Persistence("update opacity", err)
	}

	s.mu.Lock()
	out := s.layers[id].Clone()
	s.mu.Unlock()
	return out, nil
}

// Reorder reassigns z_index by position in the supplied order. The order
// must name exactly the current layer ids; the result is contiguous and
// unique 0..N-1.
func (s *LayerStore) Reorder(orderedIDs []string) ([]*models.MapLayer, error) {
	s.mu.Lock()

	if len(orderedIDs) != len(s.layers) {
		s.mu.Unlock()
		return nil, apperr.Validationf("order", "order has %d ids, map has %d layers", len(orderedIDs), len(s.layers))
	}

	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			s.mu.Unlock()
			return nil, apperr.Validationf("order", "duplicate layer id %s", id)
		}
		if _, ok := s.layers[id]; !ok {
			s.mu.Unlock()
			return nil, apperr.Validationf("order", "unknown layer id %s", id)
		}
		seen[id] = true
	}

	// Snapshot for rollback, then assign positions
	prev := make(map[string]int, len(s.layers))
	order := make([]models.LayerOrder, len(orderedIDs))
	for i, id := range orderedIDs {
		prev[id] = s.layers[id].ZIndex
		s.layers[id].ZIndex = i
		order[i] = models.LayerOrder{ID: id, ZIndex: i}
	}
	s.mu.Unlock()

	if err := s.persister.UpdateOrder(order); err != nil {
		s.mu.Lock()
		for id, z := range prev {
			if l, ok := s.layers[id]; ok {
				l.ZIndex = z
			}
		}
		s.mu.Unlock()
		return nil, apperr.Persistence("reorder layers", err)
	}

	s.mu.Lock()
	out := s.orderedLocked()
	s.mu.Unlock()
	return out, nil
}

// DeleteLayer removes a layer and purges its cached point data
func (s *LayerStore) DeleteLayer(id string) error {
	s.mu.Lock()
	layer, ok := s.layers[id]
	if !ok {
		s.mu.Unlock()
		return apperr.NotFound("layer", id)
	}

	snapshot := layer.Clone()
	delete(s.layers, id)
	s.mu.Unlock()

	if s.purger != nil {
		s.purger.Purge(id)
	}

	if err := s.persister.Delete(id); err != nil {
		// Restore the layer; its data will be refetched on next reconcile
		s.mu.Lock()
		s.layers[id] = snapshot
		s.mu.Unlock()
		return apperr.Persistence("delete layer", err)
	}

	return nil
}

// nextZIndexLocked returns max(existing)+1, or 0 for an empty stack
func (s *LayerStore) nextZIndexLocked() int {
	next := 0
	for _, layer := range s.layers {
		if layer.ZIndex >= next {
			next = layer.ZIndex + 1
		}
	}
	return next
}

// orderedLocked returns cloned layers sorted by z_index ascending
func (s *LayerStore) orderedLocked() []*models.MapLayer {
	out := make([]*models.MapLayer, 0, len(s.layers))
	for _, layer := range s.layers {
		out = append(out, layer.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}
