package service

import (
	"fmt"
	"sync"

	"github.com/dealscope/warmap-backend-go/internal/apperr"
	"github.com/dealscope/warmap-backend-go/internal/fetcher"
	"github.com/dealscope/warmap-backend-go/internal/maplib"
	"github.com/dealscope/warmap-backend-go/internal/models"
	"github.com/dealscope/warmap-backend-go/internal/renderer"
	"github.com/dealscope/warmap-backend-go/internal/repository"
	"github.com/dealscope/warmap-backend-go/internal/store"
)

// LayerService orchestrates the per-map layer stores, the data fetcher and
// the renderer. Stores are hydrated from the repository the first time a
// map is touched and kept for the life of the process.
type LayerService struct {
	layerRepo  *repository.LayerRepository
	sourceRepo *repository.SourceRepository
	fetcher    *fetcher.Fetcher

	mu     sync.Mutex
	stores map[string]*store.LayerStore
}

// NewLayerService creates a new layer service
func NewLayerService(layerRepo *repository.LayerRepository, sourceRepo *repository.SourceRepository) *LayerService {
	return &LayerService{
		layerRepo:  layerRepo,
		sourceRepo: sourceRepo,
		fetcher:    fetcher.New(sourceRepo),
		stores:     make(map[string]*store.LayerStore),
	}
}

// Fetcher exposes the shared data fetcher
func (s *LayerService) Fetcher() *fetcher.Fetcher {
	return s.fetcher
}

// StoreFor returns the layer store for a map, hydrating it from the
// repository on first use
func (s *LayerService) StoreFor(mapID string) (*store.LayerStore, error) {
	s.mu.Lock()
	st, ok := s.stores[mapID]
	s.mu.Unlock()
	if ok {
		return st, nil
	}

	layers, err := s.layerRepo.ListByMap(mapID)
	if err != nil {
		return nil, apperr.Persistence("load layers", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[mapID]; ok {
		return st, nil
	}
	st = store.New(mapID, s.layerRepo, s.fetcher)
	st.Load(layers)
	s.stores[mapID] = st
	return st, nil
}

// ListLayers returns a map's layers in stacking order
func (s *LayerService) ListLayers(mapID string) ([]*models.MapLayer, error) {
	st, err := s.StoreFor(mapID)
	if err != nil {
		return nil, err
	}
	return st.Layers(), nil
}

// CreateLayer creates a layer on the given map and kicks off its data fetch
func (s *LayerService) CreateLayer(mapID string, req models.CreateLayerRequest) (*models.MapLayer, error) {
	st, err := s.StoreFor(mapID)
	if err != nil {
		return nil, err
	}

	layer, err := st.CreateLayer(req)
	if err != nil {
		return nil, err
	}

	s.fetcher.EnsureVisible(mapID, st.Layers())
	return layer, nil
}

// ToggleVisibility flips a layer's visible flag
func (s *LayerService) ToggleVisibility(layerID string) (*models.MapLayer, error) {
	st, err := s.storeForLayer(layerID)
	if err != nil {
		return nil, err
	}

	layer, err := st.ToggleVisibility(layerID)
	if err != nil {
		return nil, err
	}

	s.fetcher.EnsureVisible(st.MapID(), st.Layers())
	return layer, nil
}

// UpdateOpacity sets a layer's opacity
func (s *LayerService) UpdateOpacity(layerID string, value float64) (*models.MapLayer, error) {
	st, err := s.storeForLayer(layerID)
	if err != nil {
		return nil, err
	}
	return st.UpdateOpacity(layerID, value)
}

// Reorder reassigns the stacking order of a map's layers
func (s *LayerService) Reorder(mapID string, orderedIDs []string) ([]*models.MapLayer, error) {
	st, err := s.StoreFor(mapID)
	if err != nil {
		return nil, err
	}
	return st.Reorder(orderedIDs)
}

// DeleteLayer removes a layer and its cached data
func (s *LayerService) DeleteLayer(layerID string) error {
	st, err := s.storeForLayer(layerID)
	if err != nil {
		return err
	}
	return st.DeleteLayer(layerID)
}

// ReplaceLayers swaps a map's layer set for the given definitions, in
// order. Materialization is best-effort: definitions created before a
// failure stay; the error reports the failed entry and how many were
// skipped.
func (s *LayerService) ReplaceLayers(mapID string, defs models.LayerConfig) ([]*models.MapLayer, error) {
	st, err := s.StoreFor(mapID)
	if err != nil {
		return nil, err
	}

	for _, layer := range st.Layers() {
		if err := st.DeleteLayer(layer.ID); err != nil {
			return nil, err
		}
	}

	var materializeErr error
	for i, def := range defs {
		opacity := def.Opacity
		visible := def.Visible
		_, err := st.CreateLayer(models.CreateLayerRequest{
			Name:         def.Name,
			LayerType:    def.LayerType,
			SourceType:   def.SourceType,
			Visible:      &visible,
			Opacity:      &opacity,
			Filters:      def.Filters,
			Style:        def.Style,
			SourceConfig: def.SourceConfig,
		})
		if err != nil {
			detail := fmt.Sprintf("materializing %q (entry %d of %d, %d skipped)",
				def.Name, i+1, len(defs), len(defs)-i-1)
			// A bad definition is the caller's problem; a failed write is not
			if apperr.IsValidation(err) {
				materializeErr = apperr.Validationf("layer_config", "%s: %v", detail, err)
			} else {
				materializeErr = apperr.Persistence(detail, err)
			}
			break
		}
	}

	s.fetcher.EnsureVisible(mapID, st.Layers())
	return st.Layers(), materializeErr
}

// Render derives the current draw list for a map. The fetcher reconciles
// first; layers still loading are simply absent from this pass.
func (s *LayerService) Render(mapID string) ([]maplib.DrawPrimitive, error) {
	st, err := s.StoreFor(mapID)
	if err != nil {
		return nil, err
	}

	layers := st.Layers()
	s.fetcher.EnsureVisible(mapID, layers)
	return renderer.Render(layers, s.fetcher), nil
}

// SourcePoints serves the per-source data endpoint directly
func (s *LayerService) SourcePoints(sourceType, mapID string) ([]models.LayerDataPoint, error) {
	if !models.ValidSourceType(sourceType) {
		return nil, apperr.Validationf("source_type", "unknown source type %q", sourceType)
	}

	points, err := s.sourceRepo.PointsFor(sourceType, mapID)
	if err != nil {
		return nil, apperr.Fetch(sourceType, err)
	}
	return points, nil
}

// storeForLayer finds the store owning a layer by looking the layer up in
// the repository
func (s *LayerService) storeForLayer(layerID string) (*store.LayerStore, error) {
	s.mu.Lock()
	for _, st := range s.stores {
		if _, err := st.Get(layerID); err == nil {
			s.mu.Unlock()
			return st, nil
		}
	}
	s.mu.Unlock()

	layer, err := s.layerRepo.GetByID(layerID)
	if err != nil {
		return nil, apperr.NotFound("layer", layerID)
	}
	return s.StoreFor(layer.MapID)
}
