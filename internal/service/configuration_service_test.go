package service

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/dealscope/warmap-backend-go/internal/apperr"
	"github.com/dealscope/warmap-backend-go/internal/database"
	"github.com/dealscope/warmap-backend-go/internal/maplib"
	"github.com/dealscope/warmap-backend-go/internal/models"
	"github.com/dealscope/warmap-backend-go/internal/repository"
)

// newTestDB opens a migrated throwaway database
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}

// newTestServices wires real repositories over a test database
func newTestServices(t *testing.T) (*ConfigurationService, *LayerService, *maplib.Recorder) {
	t.Helper()

	db := newTestDB(t)
	layerService := NewLayerService(
		repository.NewLayerRepository(db),
		repository.NewSourceRepository(db),
	)
	surface := maplib.NewRecorder()
	configService := NewConfigurationService(
		repository.NewConfigurationRepository(db), layerService, surface)

	t.Cleanup(layerService.Fetcher().WaitIdle)
	return configService, layerService, surface
}

func warMapRequest(name string) models.CreateConfigurationRequest {
	return models.CreateConfigurationRequest{
		Name:       name,
		ConfigType: models.ConfigTypeWarMap,
		MapCenter:  models.LngLat{Lng: -96.8, Lat: 32.78},
		MapZoom:    11,
		LayerConfig: models.LayerConfig{
			{Name: "Owned Assets", LayerType: models.LayerTypePin, SourceType: models.SourceTypeAssets, Visible: true, Opacity: 1},
			{Name: "Pipeline", LayerType: models.LayerTypePin, SourceType: models.SourceTypePipeline, Visible: true, Opacity: 0.9},
		},
	}
}

func TestSetDefault_AtMostOneHolder(t *testing.T) {
	s, _, _ := newTestServices(t)

	cfg1, err := s.Create("user-1", warMapRequest("first"))
	if err != nil {
		t.Fatalf("create cfg1: %v", err)
	}
	cfg2, err := s.Create("user-1", warMapRequest("second"))
	if err != nil {
		t.Fatalf("create cfg2: %v", err)
	}

	if err := s.SetDefault("user-1", cfg1.ID); err != nil {
		t.Fatalf("set default cfg1: %v", err)
	}
	if err := s.SetDefault("user-1", cfg2.ID); err != nil {
		t.Fatalf("set default cfg2: %v", err)
	}

	configs, err := s.List("user-1", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	defaults := 0
	for _, c := range configs {
		if c.IsDefault {
			defaults++
			if c.ID != cfg2.ID {
				t.Fatalf("expected %s as default, got %s", cfg2.ID, c.ID)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly 1 default, got %d", defaults)
	}
}

func TestClone_NewIDSameContentNeverDefault(t *testing.T) {
	s, _, _ := newTestServices(t)

	orig, err := s.Create("user-1", warMapRequest("original"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetDefault("user-1", orig.ID); err != nil {
		t.Fatalf("set default: %v", err)
	}

	clone, err := s.Clone("user-1", orig.ID, "the copy")
	if err != nil {
		t.Fatalf("clone: %v", err)
	}

	if clone.ID == orig.ID {
		t.Fatal("expected clone to get a new id")
	}
	if clone.IsDefault {
		t.Fatal("expected clone to never be default")
	}
	if clone.Name != "the copy" {
		t.Fatalf("expected clone named 'the copy', got %q", clone.Name)
	}
	if clone.MapCenter != orig.MapCenter || clone.MapZoom != orig.MapZoom {
		t.Fatalf("expected camera copied, got %v/%v", clone.MapCenter, clone.MapZoom)
	}
	if len(clone.LayerConfig) != len(orig.LayerConfig) {
		t.Fatalf("expected %d layer defs, got %d", len(orig.LayerConfig), len(clone.LayerConfig))
	}
	for i, def := range clone.LayerConfig {
		if def.Name != orig.LayerConfig[i].Name || def.SourceType != orig.LayerConfig[i].SourceType {
			t.Fatalf("layer def %d differs: %+v vs %+v", i, def, orig.LayerConfig[i])
		}
	}
}

func TestDelete_DefaultElectsEarliestSuccessor(t *testing.T) {
	s, _, _ := newTestServices(t)

	first, _ := s.Create("user-1", warMapRequest("first"))
	second, _ := s.Create("user-1", warMapRequest("second"))
	third, _ := s.Create("user-1", warMapRequest("third"))

	if err := s.SetDefault("user-1", second.ID); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if err := s.Delete("user-1", second.ID); err != nil {
		t.Fatalf("delete default: %v", err)
	}

	def, err := s.GetDefault("user-1")
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if def == nil {
		t.Fatal("expected a successor default")
	}
	if def.ID != first.ID {
		t.Fatalf("expected earliest-created %s as successor, got %s", first.ID, def.ID)
	}

	// Deleting everything leaves no default
	if err := s.Delete("user-1", first.ID); err != nil {
		t.Fatalf("delete first: %v", err)
	}
	if err := s.Delete("user-1", third.ID); err != nil {
		t.Fatalf("delete third: %v", err)
	}
	def, err = s.GetDefault("user-1")
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if def != nil {
		t.Fatalf("expected no default left, got %s", def.ID)
	}
}

func TestDelete_NonDefaultLeavesDefaultAlone(t *testing.T) {
	s, _, _ := newTestServices(t)

	keep, _ := s.Create("user-1", warMapRequest("keep"))
	drop, _ := s.Create("user-1", warMapRequest("drop"))

	if err := s.SetDefault("user-1", keep.ID); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if err := s.Delete("user-1", drop.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	def, _ := s.GetDefault("user-1")
	if def == nil || def.ID != keep.ID {
		t.Fatalf("expected default unchanged, got %v", def)
	}
}

func TestSelect_MaterializesLayersAndMovesCamera(t *testing.T) {
	s, layerService, surface := newTestServices(t)

	cfg, err := s.Create("user-1", warMapRequest("dallas"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	layers, err := s.Select("user-1", cfg.ID, "map-1")
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	if len(layers) != 2 {
		t.Fatalf("expected 2 materialized layers, got %d", len(layers))
	}
	for i, layer := range layers {
		if layer.ZIndex != i {
			t.Fatalf("expected definition order preserved, position %d has z_index %d", i, layer.ZIndex)
		}
	}

	center, zoom, flights := surface.Camera()
	if flights != 1 {
		t.Fatalf("expected 1 camera move, got %d", flights)
	}
	if center != cfg.MapCenter || zoom != cfg.MapZoom {
		t.Fatalf("expected camera at %v/%v, got %v/%v", cfg.MapCenter, cfg.MapZoom, center, zoom)
	}

	// Selecting replaces, never appends
	if _, err := s.Select("user-1", cfg.ID, "map-1"); err != nil {
		t.Fatalf("re-select: %v", err)
	}
	again, _ := layerService.ListLayers("map-1")
	if len(again) != 2 {
		t.Fatalf("expected layer set replaced, got %d layers", len(again))
	}
}

func TestSelect_PartialFailureKeepsCreatedLayers(t *testing.T) {
	s, layerService, _ := newTestServices(t)

	req := warMapRequest("broken")
	cfg, err := s.Create("user-1", req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Corrupt the stored second definition through Update, which does not
	// re-validate defs; creation-time validation would reject it
	update := cfg.LayerConfig
	update[1].LayerType = "hologram"
	if _, err := s.Update("user-1", cfg.ID, models.UpdateConfigurationRequest{LayerConfig: &update}); err != nil {
		t.Fatalf("update: %v", err)
	}

	layers, err := s.Select("user-1", cfg.ID, "map-2")
	if err == nil {
		t.Fatal("expected materialization error")
	}
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(layers) != 1 {
		t.Fatalf("expected the layer created before the failure to remain, got %d", len(layers))
	}

	live, _ := layerService.ListLayers("map-2")
	if len(live) != 1 || live[0].Name != "Owned Assets" {
		t.Fatalf("expected 'Owned Assets' live after partial select, got %v", live)
	}
}

func TestViewCountBufferingAndFlush(t *testing.T) {
	s, _, _ := newTestServices(t)

	cfg, _ := s.Create("user-1", warMapRequest("counted"))

	for i := 0; i < 3; i++ {
		if _, err := s.Select("user-1", cfg.ID, "map-1"); err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
	}

	// Counts are buffered until the sweep flushes
	before, _ := s.Get("user-1", cfg.ID)
	if before.ViewCount != 0 {
		t.Fatalf("expected buffered count, stored value is %d", before.ViewCount)
	}

	s.FlushViewCounts()

	after, _ := s.Get("user-1", cfg.ID)
	if after.ViewCount != 3 {
		t.Fatalf("expected view_count 3 after flush, got %d", after.ViewCount)
	}

	// Second flush is a no-op
	s.FlushViewCounts()
	again, _ := s.Get("user-1", cfg.ID)
	if again.ViewCount != 3 {
		t.Fatalf("expected view_count still 3, got %d", again.ViewCount)
	}
}

func TestGet_HidesOtherUsersPrivateConfigurations(t *testing.T) {
	s, _, _ := newTestServices(t)

	private, _ := s.Create("user-1", warMapRequest("private"))

	if _, err := s.Get("user-2", private.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found for foreign private config, got %v", err)
	}

	public := warMapRequest("shared")
	public.IsPublic = true
	shared, _ := s.Create("user-1", public)

	if _, err := s.Get("user-2", shared.ID); err != nil {
		t.Fatalf("expected public config readable, got %v", err)
	}
}
