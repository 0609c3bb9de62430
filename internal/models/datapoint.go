package models

// LayerDataPoint is an ephemeral datum supplied by a layer's source
// endpoint. Points are never persisted by the map subsystem; they are
// cached transiently keyed by layer id.
type LayerDataPoint struct {
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
	Color string  `json:"color,omitempty"` // overrides the layer's style.color
	Icon  string  `json:"icon,omitempty"`  // overrides the layer's style.icon
	Popup JSONMap `json:"popup,omitempty"`
}
