package service

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/dealscope/warmap-backend-go/internal/apperr"
	"github.com/dealscope/warmap-backend-go/internal/maplib"
	"github.com/dealscope/warmap-backend-go/internal/models"
	"github.com/dealscope/warmap-backend-go/internal/repository"
)

// ConfigurationService manages war maps: named bundles of layer
// definitions plus a camera position, selectable as a unit.
type ConfigurationService struct {
	repo         *repository.ConfigurationRepository
	layerService *LayerService
	surface      maplib.Surface

	viewMu    sync.Mutex
	viewDelta map[string]int64 // buffered view counts, flushed by the sweep
}

// NewConfigurationService creates a new configuration service
func NewConfigurationService(repo *repository.ConfigurationRepository, layerService *LayerService, surface maplib.Surface) *ConfigurationService {
	return &ConfigurationService{
		repo:         repo,
		layerService: layerService,
		surface:      surface,
		viewDelta:    make(map[string]int64),
	}
}

// Create validates and stores a new configuration
func (s *ConfigurationService) Create(userID string, req models.CreateConfigurationRequest) (*models.MapConfiguration, error) {
	configType := req.ConfigType
	if configType == "" {
		configType = models.ConfigTypeWarMap
	}
	if !models.ValidConfigType(configType) {
		return nil, apperr.Validationf("config_type", "unknown config type %q", configType)
	}

	for i, def := range req.LayerConfig {
		if !models.ValidLayerType(def.LayerType) {
			return nil, apperr.Validationf("layer_config", "entry %d: unknown layer type %q", i, def.LayerType)
		}
		if !models.ValidSourceType(def.SourceType) {
			return nil, apperr.Validationf("layer_config", "entry %d: unknown source type %q", i, def.SourceType)
		}
		if !models.ValidOpacity(def.Opacity) {
			return nil, apperr.Validationf("layer_config", "entry %d: opacity %v outside [0,1]", i, def.Opacity)
		}
	}

	cfg := &models.MapConfiguration{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        req.Name,
		Icon:        req.Icon,
		ConfigType:  configType,
		LayerConfig: req.LayerConfig,
		IsPublic:    req.IsPublic,
		MapCenter:   req.MapCenter,
		MapZoom:     req.MapZoom,
	}
	if cfg.LayerConfig == nil {
		cfg.LayerConfig = models.LayerConfig{}
	}

	if err := s.repo.Create(cfg); err != nil {
		return nil, apperr.Persistence("create configuration", err)
	}
	return cfg, nil
}

// Get returns a configuration visible to the user
func (s *ConfigurationService) Get(userID, id string) (*models.MapConfiguration, error) {
	cfg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, apperr.NotFound("configuration", id)
	}
	if cfg.UserID != userID && !cfg.IsPublic {
		return nil, apperr.NotFound("configuration", id)
	}
	return cfg, nil
}

// List returns the user's configurations, optionally filtered by type
func (s *ConfigurationService) List(userID, configType string) ([]*models.MapConfiguration, error) {
	if configType != "" && !models.ValidConfigType(configType) {
		return nil, apperr.Validationf("config_type", "unknown config type %q", configType)
	}

	configs, err := s.repo.ListByUser(userID, configType)
	if err != nil {
		return nil, apperr.Persistence("list configurations", err)
	}
	return configs, nil
}

// GetDefault returns the user's default configuration, or nil
func (s *ConfigurationService) GetDefault(userID string) (*models.MapConfiguration, error) {
	cfg, err := s.repo.GetDefault(userID)
	if err != nil {
		return nil, apperr.Persistence("get default configuration", err)
	}
	return cfg, nil
}

// Update writes the mutable fields of an owned configuration
func (s *ConfigurationService) Update(userID, id string, req models.UpdateConfigurationRequest) (*models.MapConfiguration, error) {
	cfg, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		cfg.Name = *req.Name
	}
	if req.Icon != nil {
		cfg.Icon = *req.Icon
	}
	if req.IsPublic != nil {
		cfg.IsPublic = *req.IsPublic
	}
	if req.LayerConfig != nil {
		cfg.LayerConfig = *req.LayerConfig
	}
	if req.MapCenter != nil {
		cfg.MapCenter = *req.MapCenter
	}
	if req.MapZoom != nil {
		cfg.MapZoom = *req.MapZoom
	}

	if err := s.repo.Update(cfg); err != nil {
		return nil, apperr.Persistence("update configuration", err)
	}
	return cfg, nil
}

// Clone deep-copies a configuration under a new name. A clone is never the
// default, regardless of the original.
func (s *ConfigurationService) Clone(userID, id, newName string) (*models.MapConfiguration, error) {
	orig, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if newName == "" {
		newName = orig.Name + " (copy)"
	}

	clone := &models.MapConfiguration{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        newName,
		Icon:        orig.Icon,
		ConfigType:  orig.ConfigType,
		IsDefault:   false,
		IsPublic:    false,
		LayerConfig: orig.LayerConfig.Clone(),
		MapCenter:   orig.MapCenter,
		MapZoom:     orig.MapZoom,
	}

	if err := s.repo.Create(clone); err != nil {
		return nil, apperr.Persistence("clone configuration", err)
	}
	return clone, nil
}

// SetDefault makes the configuration the user's single default. The swap is
// one repository transaction; no observable state has zero or two defaults.
func (s *ConfigurationService) SetDefault(userID, id string) error {
	if _, err := s.owned(userID, id); err != nil {
		return err
	}

	if err := s.repo.SetDefault(userID, id); err != nil {
		return apperr.Persistence("set default configuration", err)
	}
	return nil
}

// Delete removes a configuration. Deleting the default elects a successor:
// another default candidate if one exists, else the earliest-created
// remaining configuration; with nothing left the user has no default.
func (s *ConfigurationService) Delete(userID, id string) error {
	cfg, err := s.owned(userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return apperr.Persistence("delete configuration", err)
	}

	s.viewMu.Lock()
	delete(s.viewDelta, id)
	s.viewMu.Unlock()

	if !cfg.IsDefault {
		return nil
	}

	remaining, err := s.repo.ListByUser(userID, "")
	if err != nil {
		return apperr.Persistence("elect successor default", err)
	}
	if len(remaining) == 0 {
		return nil
	}

	successor := remaining[0]
	for _, c := range remaining {
		if c.IsDefault {
			successor = c
			break
		}
	}

	if err := s.repo.SetDefault(userID, successor.ID); err != nil {
		return apperr.Persistence("elect successor default", err)
	}
	return nil
}

// Select materializes a configuration's layer definitions onto the target
// map, replacing its current layer set, and moves the camera. A partial
// materialization keeps the layers already created and reports the failure
// once.
func (s *ConfigurationService) Select(userID, id, mapID string) ([]*models.MapLayer, error) {
	cfg, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	layers, materializeErr := s.layerService.ReplaceLayers(mapID, cfg.LayerConfig)

	s.surface.FlyTo(cfg.MapCenter, cfg.MapZoom)

	s.viewMu.Lock()
	s.viewDelta[cfg.ID]++
	s.viewMu.Unlock()

	return layers, materializeErr
}

// FlushViewCounts writes buffered view increments to the repository. Called
// by the maintenance sweep.
func (s *ConfigurationService) FlushViewCounts() {
	s.viewMu.Lock()
	pending := s.viewDelta
	s.viewDelta = make(map[string]int64)
	s.viewMu.Unlock()

	for id, delta := range pending {
		if err := s.repo.IncrementViewCount(id, delta); err != nil {
			log.Printf("Failed to flush view count for %s: %v", id, err)
		}
	}
}

// owned fetches a configuration and checks ownership
func (s *ConfigurationService) owned(userID, id string) (*models.MapConfiguration, error) {
	cfg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, apperr.NotFound("configuration", id)
	}
	if cfg.UserID != userID {
		return nil, apperr.NotFound("configuration", id)
	}
	return cfg, nil
}
