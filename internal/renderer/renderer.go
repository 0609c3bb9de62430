// Package renderer derives the draw list for the map surface from the
// current layer set. Render is pure: it never mutates the store and never
// triggers fetches, so the same inputs always yield the same primitives.
package renderer

import (
	"encoding/json"

	"github.com/dealscope/warmap-backend-go/internal/maplib"
	"github.com/dealscope/warmap-backend-go/internal/models"
)

// DataProvider exposes cached point data. The fetcher satisfies this; tests
// substitute a map-backed fake.
type DataProvider interface {
	Data(layerID string) (points []models.LayerDataPoint, loading bool)
}

// typeOrder fixes the group paint order: area-like geometry underneath,
// markers on top. Within a group z_index decides.
var typeOrder = []string{
	models.LayerTypeBoundary,
	models.LayerTypeOverlay,
	models.LayerTypeHeatmap,
	models.LayerTypeBubble,
	models.LayerTypePin,
}

// Render produces the ordered primitive list for the visible layers.
// Layers whose data is still loading emit nothing this pass; they appear on
// a later render once their fetch commits.
func Render(layers []*models.MapLayer, data DataProvider) []maplib.DrawPrimitive {
	groups := make(map[string][]*models.MapLayer)
	for _, layer := range layers {
		if !layer.Visible {
			continue
		}
		groups[layer.LayerType] = append(groups[layer.LayerType], layer)
	}

	var out []maplib.DrawPrimitive
	for _, layerType := range typeOrder {
		group := groups[layerType]
		// Ascending z_index: later-drawn primitives occlude earlier ones
		sortByZ(group)
		for _, layer := range group {
			out = append(out, renderLayer(layer, data)...)
		}
	}

	return out
}

// sortByZ orders a group ascending by z_index (insertion sort; groups are
// small)
func sortByZ(group []*models.MapLayer) {
	for i := 1; i < len(group); i++ {
		for j := i; j > 0 && group[j-1].ZIndex > group[j].ZIndex; j-- {
			group[j-1], group[j] = group[j], group[j-1]
		}
	}
}

// renderLayer dispatches on layer type
func renderLayer(layer *models.MapLayer, data DataProvider) []maplib.DrawPrimitive {
	switch layer.LayerType {
	case models.LayerTypePin:
		return renderPoints(layer, data, maplib.PrimitiveMarker)
	case models.LayerTypeHeatmap:
		return renderPoints(layer, data, maplib.PrimitiveHeatmapCell)
	case models.LayerTypeBubble:
		return renderPoints(layer, data, maplib.PrimitiveBubble)
	case models.LayerTypeBoundary, models.LayerTypeOverlay:
		return renderShape(layer)
	}
	return nil
}

// renderPoints maps cached data points onto primitives of the given kind.
// The layer's style.color/style.icon are defaults; per-point values win.
func renderPoints(layer *models.MapLayer, data DataProvider, kind string) []maplib.DrawPrimitive {
	points, loading := data.Data(layer.ID)
	if loading || len(points) == 0 {
		return nil
	}

	defaultColor := layer.Style.GetString("color", "")
	defaultIcon := layer.Style.GetString("icon", "")

	out := make([]maplib.DrawPrimitive, 0, len(points))
	for _, p := range points {
		prim := maplib.DrawPrimitive{
			ID:      layer.ID + "/" + p.ID,
			Kind:    kind,
			LayerID: layer.ID,
			ZIndex:  layer.ZIndex,
			Lng:     p.Lng,
			Lat:     p.Lat,
			Color:   defaultColor,
			Icon:    defaultIcon,
			Label:   p.Label,
			Opacity: layer.Opacity,
			Popup:   p.Popup,
		}
		if p.Color != "" {
			prim.Color = p.Color
		}
		if p.Icon != "" {
			prim.Icon = p.Icon
		}
		if kind != maplib.PrimitiveMarker {
			prim.Weight = pointWeight(p)
		}
		out = append(out, prim)
	}

	return out
}

// pointWeight pulls a numeric weight out of the point's popup payload,
// defaulting to 1
func pointWeight(p models.LayerDataPoint) float64 {
	if p.Popup == nil {
		return 1
	}
	switch v := p.Popup["value"].(type) {
	case float64:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return 1
}

// renderShape emits the boundary/overlay outline held in the layer's
// source_config. A layer without geometry draws nothing.
func renderShape(layer *models.MapLayer) []maplib.DrawPrimitive {
	raw, ok := layer.SourceConfig["geometry"]
	if !ok {
		return nil
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var g models.Geometry
	if err := json.Unmarshal(b, &g); err != nil {
		return nil
	}

	prim := maplib.DrawPrimitive{
		ID:      layer.ID + "/shape",
		Kind:    maplib.PrimitiveShape,
		LayerID: layer.ID,
		ZIndex:  layer.ZIndex,
		Color:   layer.Style.GetString("color", ""),
		Opacity: layer.Opacity,
	}

	switch g.Type {
	case models.GeometryPolygon:
		prim.Ring = g.Ring
	case models.GeometryPoint:
		prim.Lng = g.Point.Lng
		prim.Lat = g.Point.Lat
	default:
		return nil
	}

	return []maplib.DrawPrimitive{prim}
}
