// Package fetcher loads per-layer point data lazily and caches it keyed by
// layer id. Fetches for distinct layers run independently; a response that
// arrives after its layer was hidden or deleted is discarded.
package fetcher

import (
	"log"
	"sync"

	"github.com/dealscope/warmap-backend-go/internal/apperr"
	"github.com/dealscope/warmap-backend-go/internal/models"
)

// PointSource supplies the per-source data endpoint
type PointSource interface {
	PointsFor(sourceType, mapID string) ([]models.LayerDataPoint, error)
}

// entry is the cache slot for one layer
type entry struct {
	mapID      string
	generation int
	loading    bool
	loaded     bool
	points     []models.LayerDataPoint
	lastErr    error
}

// Fetcher reconciles cached point data against the visible layer set
type Fetcher struct {
	mu      sync.Mutex
	source  PointSource
	entries map[string]*entry
	wg      sync.WaitGroup
}

// New creates a fetcher over the given point source
func New(source PointSource) *Fetcher {
	return &Fetcher{
		source:  source,
		entries: make(map[string]*entry),
	}
}

// EnsureVisible reconciles the cache against the current layer set of one
// map: starts fetches for visible data-bearing layers that have no data yet,
// and purges data for that map's layers that are no longer visible so memory
// stays bounded. Entries owned by other maps are untouched.
func (f *Fetcher) EnsureVisible(mapID string, layers []*models.MapLayer) {
	wanted := make(map[string]bool, len(layers))

	f.mu.Lock()
	for _, layer := range layers {
		if !layer.Visible || !layer.DataBearing() {
			continue
		}
		wanted[layer.ID] = true

		e, ok := f.entries[layer.ID]
		if ok && (e.loading || e.loaded) {
			continue
		}
		if !ok {
			e = &entry{mapID: layer.MapID}
			f.entries[layer.ID] = e
		}
		e.generation++
		e.loading = true
		e.lastErr = nil

		f.wg.Add(1)
		go f.fetch(layer.Clone(), e.generation)
	}

	// Purge, not hide: data for now-invisible layers is dropped entirely.
	// Only this map's entries are candidates; a mutation on one map never
	// invalidates another map's cache.
	for id, e := range f.entries {
		if e.mapID == mapID && !wanted[id] {
			delete(f.entries, id)
		}
	}
	f.mu.Unlock()
}

// fetch performs one layer load and commits the result if still wanted
func (f *Fetcher) fetch(layer *models.MapLayer, generation int) {
	defer f.wg.Done()

	points, err := f.source.PointsFor(layer.SourceType, layer.MapID)

	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[layer.ID]
	if !ok || e.generation != generation {
		// Layer was hidden, deleted or refreshed while in flight
		return
	}

	e.loading = false
	if err != nil {
		e.lastErr = apperr.Fetch(layer.ID, err)
		log.Printf("Layer data fetch failed for %s (%s): %v", layer.ID, layer.SourceType, err)
		return
	}

	e.loaded = true
	e.points = points
}

// Data returns the cached points and loading flag for a layer. Layers with
// no cache entry report not loading and no data.
func (f *Fetcher) Data(layerID string) ([]models.LayerDataPoint, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[layerID]
	if !ok || !e.loaded {
		loading := ok && e.loading
		return nil, loading
	}
	return e.points, false
}

// Err returns the last fetch error for a layer, if any
func (f *Fetcher) Err(layerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.entries[layerID]; ok {
		return e.lastErr
	}
	return nil
}

// Purge drops the cache entry for a layer. In-flight responses for the
// purged generation are discarded on arrival.
func (f *Fetcher) Purge(layerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, layerID)
}

// Refresh forces a reload for a single layer
func (f *Fetcher) Refresh(layer *models.MapLayer) {
	if !layer.DataBearing() {
		return
	}

	f.mu.Lock()
	e, ok := f.entries[layer.ID]
	if !ok {
		e = &entry{mapID: layer.MapID}
		f.entries[layer.ID] = e
	}
	e.generation++
	e.loading = true
	e.loaded = false
	e.points = nil
	e.lastErr = nil

	f.wg.Add(1)
	go f.fetch(layer.Clone(), e.generation)
	f.mu.Unlock()
}

// CachedLayerCount returns how many layers currently hold cache entries
func (f *Fetcher) CachedLayerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// WaitIdle blocks until no fetches are in flight
func (f *Fetcher) WaitIdle() {
	f.wg.Wait()
}
