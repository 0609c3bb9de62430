package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LayerDef is a layer definition inside a configuration's layer_config.
// Definitions are not materialized as persisted MapLayers until the
// configuration is selected.
type LayerDef struct {
	Name         string  `json:"name"`
	LayerType    string  `json:"layer_type"`
	SourceType   string  `json:"source_type"`
	Visible      bool    `json:"visible"`
	Opacity      float64 `json:"opacity"`
	Filters      JSONMap `json:"filters,omitempty"`
	Style        JSONMap `json:"style,omitempty"`
	SourceConfig JSONMap `json:"source_config,omitempty"`
}

// LayerConfig is the ordered list of layer definitions, stored as a JSON
// TEXT column in definition order.
type LayerConfig []LayerDef

// Value implements driver.Valuer
func (lc LayerConfig) Value() (driver.Value, error) {
	if lc == nil {
		return "[]", nil
	}
	b, err := json.Marshal(lc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal layer config: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (lc *LayerConfig) Scan(value interface{}) error {
	if value == nil {
		*lc = LayerConfig{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported type for layer config: %T", value)
	}

	if len(data) == 0 {
		*lc = LayerConfig{}
		return nil
	}

	return json.Unmarshal(data, lc)
}

// Clone returns a deep copy of the layer config
func (lc LayerConfig) Clone() LayerConfig {
	out := make(LayerConfig, len(lc))
	for i, def := range lc {
		out[i] = def
		out[i].Filters = def.Filters.Clone()
		out[i].Style = def.Style.Clone()
		out[i].SourceConfig = def.SourceConfig.Clone()
	}
	return out
}

// MapConfiguration is a named, shareable bundle of layer definitions plus a
// camera position ("war map")
type MapConfiguration struct {
	ID          string      `json:"id" db:"id"`
	UserID      string      `json:"user_id" db:"user_id"`
	Name        string      `json:"name" db:"name"`
	Icon        string      `json:"icon" db:"icon"`
	ConfigType  string      `json:"config_type" db:"config_type"` // war_map, custom, template
	IsDefault   bool        `json:"is_default" db:"is_default"`   // at most one per user
	IsPublic    bool        `json:"is_public" db:"is_public"`
	LayerConfig LayerConfig `json:"layer_config" db:"layer_config"`
	MapCenter   LngLat      `json:"map_center"`
	MapZoom     float64     `json:"map_zoom" db:"map_zoom"`
	ViewCount   int64       `json:"view_count" db:"view_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ConfigType constants
const (
	ConfigTypeWarMap   = "war_map"
	ConfigTypeCustom   = "custom"
	ConfigTypeTemplate = "template"
)

// ValidConfigType reports whether t is one of the known configuration types
func ValidConfigType(t string) bool {
	switch t {
	case ConfigTypeWarMap, ConfigTypeCustom, ConfigTypeTemplate:
		return true
	}
	return false
}

// LngLat is a WGS84 coordinate pair
type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// CreateConfigurationRequest is the payload for creating a configuration
type CreateConfigurationRequest struct {
	Name        string      `json:"name" binding:"required"`
	Icon        string      `json:"icon"`
	ConfigType  string      `json:"config_type"`
	IsPublic    bool        `json:"is_public"`
	LayerConfig LayerConfig `json:"layer_config"`
	MapCenter   LngLat      `json:"map_center"`
	MapZoom     float64     `json:"map_zoom"`
}

// UpdateConfigurationRequest is the payload for updating a configuration.
// Pointer fields distinguish "absent" from zero values.
type UpdateConfigurationRequest struct {
	Name        *string      `json:"name"`
	Icon        *string      `json:"icon"`
	IsPublic    *bool        `json:"is_public"`
	LayerConfig *LayerConfig `json:"layer_config"`
	MapCenter   *LngLat      `json:"map_center"`
	MapZoom     *float64     `json:"map_zoom"`
}
