package repository

import (
	"database/sql"
	"fmt"

	"github.com/dealscope/warmap-backend-go/internal/models"
)

// SourceRepository reads per-source point data for the layer data fetcher.
// Each source type maps onto its own table; rows are projected into the
// common LayerDataPoint shape with source-specific payloads folded into the
// popup document.
type SourceRepository struct {
	db *sql.DB
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// PointsFor returns the data points for the given source type and map
func (r *SourceRepository) PointsFor(sourceType, mapID string) ([]models.LayerDataPoint, error) {
	switch sourceType {
	case models.SourceTypeAssets:
		return r.assetPoints(mapID)
	case models.SourceTypePipeline:
		return r.pipelinePoints(mapID)
	case models.SourceTypeEmail:
		return r.emailPoints(mapID)
	case models.SourceTypeNews:
		return r.newsPoints(mapID)
	case models.SourceTypeMarket:
		return r.marketPoints(mapID)
	case models.SourceTypeCustom:
		return r.customPoints(mapID)
	}
	return nil, fmt.Errorf("unknown source type: %s", sourceType)
}

func (r *SourceRepository) assetPoints(mapID string) ([]models.LayerDataPoint, error) {
	rows, err := r.db.Query(
		`SELECT id, name, lat, lng, icon, popup FROM assets WHERE map_id = ?`, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var points []models.LayerDataPoint
	for rows.Next() {
		var p models.LayerDataPoint
		if err := rows.Scan(&p.ID, &p.Label, &p.Lat, &p.Lng, &p.Icon, &p.Popup); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		points = append(points, p)
	}
	return points, nil
}

func (r *SourceRepository) pipelinePoints(mapID string) ([]models.LayerDataPoint, error) {
	rows, err := r.db.Query(
		`SELECT id, name, stage, lat, lng, popup FROM pipeline_deals WHERE map_id = ?`, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline deals: %w", err)
	}
	defer rows.Close()

	var points []models.LayerDataPoint
	for rows.Next() {
		var p models.LayerDataPoint
		var stage string
		if err := rows.Scan(&p.ID, &p.Label, &stage, &p.Lat, &p.Lng, &p.Popup); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline deal: %w", err)
		}
		if p.Popup == nil {
			p.Popup = models.JSONMap{}
		}
		p.Popup["stage"] = stage
		points = append(points, p)
	}
	return points, nil
}

func (r *SourceRepository) emailPoints(mapID string) ([]models.LayerDataPoint, error) {
	rows, err := r.db.Query(
		`SELECT id, subject, lat, lng, popup FROM email_locations WHERE map_id = ?`, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to query email locations: %w", err)
	}
	defer rows.Close()

	var points []models.LayerDataPoint
	for rows.Next() {
		var p models.LayerDataPoint
		if err := rows.Scan(&p.ID, &p.Label, &p.Lat, &p.Lng, &p.Popup); err != nil {
			return nil, fmt.Errorf("failed to scan email location: %w", err)
		}
		points = append(points, p)
	}
	return points, nil
}

func (r *SourceRepository) newsPoints(mapID string) ([]models.LayerDataPoint, error) {
	rows, err := r.db.Query(
		`SELECT id, headline, lat, lng, popup FROM news_events WHERE map_id = ?`, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to query news events: %w", err)
	}
	defer rows.Close()

	var points []models.LayerDataPoint
	for rows.Next() {
		var p models.LayerDataPoint
		if err := rows.Scan(&p.ID, &p.Label, &p.Lat, &p.Lng, &p.Popup); err != nil {
			return nil, fmt.Errorf("failed to scan news event: %w", err)
		}
		points = append(points, p)
	}
	return points, nil
}

func (r *SourceRepository) marketPoints(mapID string) ([]models.LayerDataPoint, error) {
	rows, err := r.db.Query(
		`SELECT id, label, lat, lng, value, popup FROM market_metrics WHERE map_id = ?`, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to query market metrics: %w", err)
	}
	defer rows.Close()

	var points []models.LayerDataPoint
	for rows.Next() {
		var p models.LayerDataPoint
		var value float64
		if err := rows.Scan(&p.ID, &p.Label, &p.Lat, &p.Lng, &value, &p.Popup); err != nil {
			return nil, fmt.Errorf("failed to scan market metric: %w", err)
		}
		if p.Popup == nil {
			p.Popup = models.JSONMap{}
		}
		p.Popup["value"] = value
		points = append(points, p)
	}
	return points, nil
}

func (r *SourceRepository) customPoints(mapID string) ([]models.LayerDataPoint, error) {
	rows, err := r.db.Query(
		`SELECT id, label, lat, lng, color, icon, popup FROM custom_pins WHERE map_id = ?`, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom pins: %w", err)
	}
	defer rows.Close()

	var points []models.LayerDataPoint
	for rows.Next() {
		var p models.LayerDataPoint
		if err := rows.Scan(&p.ID, &p.Label, &p.Lat, &p.Lng, &p.Color, &p.Icon, &p.Popup); err != nil {
			return nil, fmt.Errorf("failed to scan custom pin: %w", err)
		}
		points = append(points, p)
	}
	return points, nil
}
