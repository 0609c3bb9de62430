package models

import "time"

// MapLayer represents a single styleable dataset bound to a map
type MapLayer struct {
	ID           string  `json:"id" db:"id"`
	MapID        string  `json:"map_id" db:"map_id"`
	Name         string  `json:"name" db:"name"`
	LayerType    string  `json:"layer_type" db:"layer_type"`   // pin, heatmap, boundary, overlay, bubble
	SourceType   string  `json:"source_type" db:"source_type"` // assets, pipeline, email, news, market, custom
	Visible      bool    `json:"visible" db:"visible"`
	Opacity      float64 `json:"opacity" db:"opacity"` // 0.0 - 1.0
	ZIndex       int     `json:"z_index" db:"z_index"` // higher paints on top, unique per map
	Filters      JSONMap `json:"filters" db:"filters"`
	Style        JSONMap `json:"style" db:"style"`
	SourceConfig JSONMap `json:"source_config" db:"source_config"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LayerType constants
const (
	LayerTypePin      = "pin"
	LayerTypeHeatmap  = "heatmap"
	LayerTypeBoundary = "boundary"
	LayerTypeOverlay  = "overlay"
	LayerTypeBubble   = "bubble"
)

// SourceType constants
const (
	SourceTypeAssets   = "assets"
	SourceTypePipeline = "pipeline"
	SourceTypeEmail    = "email"
	SourceTypeNews     = "news"
	SourceTypeMarket   = "market"
	SourceTypeCustom   = "custom"
)

// ValidLayerType reports whether t is one of the known layer types
func ValidLayerType(t string) bool {
	switch t {
	case LayerTypePin, LayerTypeHeatmap, LayerTypeBoundary, LayerTypeOverlay, LayerTypeBubble:
		return true
	}
	return false
}

// ValidSourceType reports whether t is one of the known source types
func ValidSourceType(t string) bool {
	switch t {
	case SourceTypeAssets, SourceTypePipeline, SourceTypeEmail, SourceTypeNews, SourceTypeMarket, SourceTypeCustom:
		return true
	}
	return false
}

// ValidOpacity reports whether v is inside the [0,1] contract
func ValidOpacity(v float64) bool {
	return v >= 0 && v <= 1
}

// DataBearing reports whether this layer type carries per-point data that
// the fetcher should load. Boundary and overlay layers draw from their own
// source_config geometry instead.
func (l *MapLayer) DataBearing() bool {
	switch l.LayerType {
	case LayerTypePin, LayerTypeHeatmap, LayerTypeBubble:
		return true
	}
	return false
}

// Clone returns a deep copy of the layer
func (l *MapLayer) Clone() *MapLayer {
	c := *l
	c.Filters = l.Filters.Clone()
	c.Style = l.Style.Clone()
	c.SourceConfig = l.SourceConfig.Clone()
	return &c
}

// LayerOrder is a single entry of a reorder payload
type LayerOrder struct {
	ID     string `json:"id"`
	ZIndex int    `json:"z_index"`
}

// CreateLayerRequest is the payload for creating a layer. The in-browser
// drag-and-drop transfer uses the same shape (name, source_type, layer_type,
// style) with the remaining fields defaulted.
type CreateLayerRequest struct {
	Name         string  `json:"name" binding:"required"`
	LayerType    string  `json:"layer_type" binding:"required"`
	SourceType   string  `json:"source_type" binding:"required"`
	Visible      *bool   `json:"visible"`
	Opacity      *float64 `json:"opacity"`
	Filters      JSONMap `json:"filters"`
	Style        JSONMap `json:"style"`
	SourceConfig JSONMap `json:"source_config"`
}
