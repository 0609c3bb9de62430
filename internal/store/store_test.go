package store

import (
	"errors"
	"testing"

	"github.com/dealscope/warmap-backend-go/internal/apperr"
	"github.com/dealscope/warmap-backend-go/internal/models"
)

// fakePersister lets tests fail individual backend calls
type fakePersister struct {
	failCreate     bool
	failVisibility bool
	failOpacity    bool
	failOrder      bool
	failDelete     bool
}

var errBackend = errors.New("backend down")

func (f *fakePersister) Create(layer *models.MapLayer) error {
	if f.failCreate {
		return errBackend
	}
	return nil
}

func (f *fakePersister) UpdateVisibility(id string, visible bool) error {
	if f.failVisibility {
		return errBackend
	}
	return nil
}

func (f *fakePersister) UpdateOpacity(id string, opacity float64) error {
	if f.failOpacity {
		return errBackend
	}
	return nil
}

func (f *fakePersister) UpdateOrder(order []models.LayerOrder) error {
	if f.failOrder {
		return errBackend
	}
	return nil
}

func (f *fakePersister) Delete(id string) error {
	if f.failDelete {
		return errBackend
	}
	return nil
}

// fakePurger records purged layer ids
type fakePurger struct {
	purged []string
}

func (f *fakePurger) Purge(layerID string) {
	f.purged = append(f.purged, layerID)
}

func pinRequest(name string) models.CreateLayerRequest {
	return models.CreateLayerRequest{
		Name:       name,
		LayerType:  models.LayerTypePin,
		SourceType: models.SourceTypeAssets,
	}
}

func newTestStore() (*LayerStore, *fakePersister, *fakePurger) {
	persister := &fakePersister{}
	purger := &fakePurger{}
	return New("map-1", persister, purger), persister, purger
}

func TestCreateLayer_AppendsAtTopOfStack(t *testing.T) {
	s, _, _ := newTestStore()

	a, err := s.CreateLayer(pinRequest("a"))
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	if a.ZIndex != 0 {
		t.Fatalf("expected first layer z_index 0, got %d", a.ZIndex)
	}

	b, err := s.CreateLayer(pinRequest("b"))
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if b.ZIndex != 1 {
		t.Fatalf("expected second layer z_index 1, got %d", b.ZIndex)
	}

	if a.MapID != "map-1" || b.MapID != "map-1" {
		t.Fatalf("expected layers bound to map-1, got %s and %s", a.MapID, b.MapID)
	}
}

func TestCreateLayer_RejectsInvalidInput(t *testing.T) {
	s, _, _ := newTestStore()

	req := pinRequest("bad")
	req.LayerType = "hologram"
	if _, err := s.CreateLayer(req); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for layer type, got %v", err)
	}

	req = pinRequest("bad")
	req.SourceType = "telepathy"
	if _, err := s.CreateLayer(req); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for source type, got %v", err)
	}

	req = pinRequest("bad")
	opacity := 1.5
	req.Opacity = &opacity
	if _, err := s.CreateLayer(req); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for opacity, got %v", err)
	}

	if len(s.Layers()) != 0 {
		t.Fatalf("expected no layers after rejected creates, got %d", len(s.Layers()))
	}
}

func TestCreateLayer_RollsBackOnPersistFailure(t *testing.T) {
	s, persister, _ := newTestStore()
	persister.failCreate = true

	_, err := s.CreateLayer(pinRequest("a"))
	if !apperr.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if len(s.Layers()) != 0 {
		t.Fatalf("expected store empty after rollback, got %d layers", len(s.Layers()))
	}
}

func TestUpdateOpacity_RejectsOutOfRange(t *testing.T) {
	s, _, _ := newTestStore()
	layer, _ := s.CreateLayer(pinRequest("a"))

	for _, v := range []float64{-0.1, 1.01, 2} {
		if _, err := s.UpdateOpacity(layer.ID, v); !apperr.IsValidation(err) {
			t.Fatalf("expected validation error for opacity %v, got %v", v, err)
		}
	}

	got, err := s.Get(layer.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Opacity != 1.0 {
		t.Fatalf("expected opacity unchanged at 1.0, got %v", got.Opacity)
	}
}

func TestUpdateOpacity_RollsBackOnPersistFailure(t *testing.T) {
	s, persister, _ := newTestStore()
	layer, _ := s.CreateLayer(pinRequest("a"))
	persister.failOpacity = true

	if _, err := s.UpdateOpacity(layer.ID, 0.5); !apperr.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	got, _ := s.Get(layer.ID)
	if got.Opacity != 1.0 {
		t.Fatalf("expected opacity rolled back to 1.0, got %v", got.Opacity)
	}
}

func TestToggleVisibility_DoubleToggleRestoresAppearance(t *testing.T) {
	s, _, _ := newTestStore()

	req := pinRequest("a")
	opacity := 0.4
	req.Opacity = &opacity
	req.Style = models.JSONMap{"color": "#ff0000"}
	layer, _ := s.CreateLayer(req)

	hidden, err := s.ToggleVisibility(layer.ID)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if hidden.Visible {
		t.Fatal("expected layer hidden after first toggle")
	}

	shown, err := s.ToggleVisibility(layer.ID)
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !shown.Visible {
		t.Fatal("expected layer visible after second toggle")
	}
	if shown.Opacity != 0.4 {
		t.Fatalf("expected opacity preserved at 0.4, got %v", shown.Opacity)
	}
	if shown.Style.GetString("color", "") != "#ff0000" {
		t.Fatalf("expected style preserved, got %v", shown.Style)
	}
}

func TestToggleVisibility_PurgesCacheWhenHidden(t *testing.T) {
	s, _, purger := newTestStore()
	layer, _ := s.CreateLayer(pinRequest("a"))

	if _, err := s.ToggleVisibility(layer.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if len(purger.purged) != 1 || purger.purged[0] != layer.ID {
		t.Fatalf("expected purge of %s, got %v", layer.ID, purger.purged)
	}
}

func TestReorder_AssignsContiguousUniqueIndexes(t *testing.T) {
	s, _, _ := newTestStore()
	a, _ := s.CreateLayer(pinRequest("a"))
	b, _ := s.CreateLayer(pinRequest("b"))
	c, _ := s.CreateLayer(pinRequest("c"))

	// Drag b above a: order becomes b, a, c
	layers, err := s.Reorder([]string{b.ID, a.ID, c.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	seen := make(map[int]string)
	for i, layer := range layers {
		if layer.ZIndex != i {
			t.Fatalf("expected contiguous z_index, position %d has %d", i, layer.ZIndex)
		}
		if prev, dup := seen[layer.ZIndex]; dup {
			t.Fatalf("duplicate z_index %d on %s and %s", layer.ZIndex, prev, layer.ID)
		}
		seen[layer.ZIndex] = layer.ID
	}

	if seen[0] != b.ID || seen[1] != a.ID || seen[2] != c.ID {
		t.Fatalf("unexpected order: %v", seen)
	}
}

func TestReorder_DragAboveSwapsTwoLayers(t *testing.T) {
	s, _, _ := newTestStore()
	a, _ := s.CreateLayer(pinRequest("a")) // z_index 0
	b, _ := s.CreateLayer(pinRequest("b")) // z_index 1

	if _, err := s.Reorder([]string{b.ID, a.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	gotB, _ := s.Get(b.ID)
	gotA, _ := s.Get(a.ID)
	if gotB.ZIndex != 0 || gotA.ZIndex != 1 {
		t.Fatalf("expected b=0, a=1, got b=%d a=%d", gotB.ZIndex, gotA.ZIndex)
	}
}

func TestReorder_RejectsMismatchedIDSet(t *testing.T) {
	s, _, _ := newTestStore()
	a, _ := s.CreateLayer(pinRequest("a"))
	b, _ := s.CreateLayer(pinRequest("b"))

	if _, err := s.Reorder([]string{a.ID}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for short order, got %v", err)
	}
	if _, err := s.Reorder([]string{a.ID, a.ID}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for duplicate id, got %v", err)
	}
	if _, err := s.Reorder([]string{a.ID, "ghost"}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for unknown id, got %v", err)
	}

	gotA, _ := s.Get(a.ID)
	gotB, _ := s.Get(b.ID)
	if gotA.ZIndex != 0 || gotB.ZIndex != 1 {
		t.Fatalf("expected order untouched after rejected reorders, got a=%d b=%d", gotA.ZIndex, gotB.ZIndex)
	}
}

func TestReorder_RollsBackOnPersistFailure(t *testing.T) {
	s, persister, _ := newTestStore()
	a, _ := s.CreateLayer(pinRequest("a"))
	b, _ := s.CreateLayer(pinRequest("b"))
	persister.failOrder = true

	if _, err := s.Reorder([]string{b.ID, a.ID}); !apperr.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	gotA, _ := s.Get(a.ID)
	gotB, _ := s.Get(b.ID)
	if gotA.ZIndex != 0 || gotB.ZIndex != 1 {
		t.Fatalf("expected z_index rolled back, got a=%d b=%d", gotA.ZIndex, gotB.ZIndex)
	}
}

func TestDeleteLayer_PurgesCacheAndRollsBackOnFailure(t *testing.T) {
	s, persister, purger := newTestStore()
	layer, _ := s.CreateLayer(pinRequest("a"))

	if err := s.DeleteLayer(layer.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(purger.purged) != 1 || purger.purged[0] != layer.ID {
		t.Fatalf("expected purge of %s, got %v", layer.ID, purger.purged)
	}
	if _, err := s.Get(layer.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected layer gone, got %v", err)
	}

	// Failed delete restores the layer
	layer2, _ := s.CreateLayer(pinRequest("b"))
	persister.failDelete = true
	if err := s.DeleteLayer(layer2.ID); !apperr.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, err := s.Get(layer2.ID); err != nil {
		t.Fatalf("expected layer restored after failed delete: %v", err)
	}
}
