package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dealscope/warmap-backend-go/internal/database"
	"github.com/dealscope/warmap-backend-go/internal/models"
)

// LayerRepository handles database operations for map layers
type LayerRepository struct {
	db *sql.DB
}

// NewLayerRepository creates a new layer repository
func NewLayerRepository(db *sql.DB) *LayerRepository {
	return &LayerRepository{db: db}
}

const layerColumns = `id, map_id, name, layer_type, source_type, visible, opacity,
	   z_index, filters, style, source_config, created_at, updated_at`

// scanLayer scans a single layer row
func scanLayer(row interface{ Scan(...interface{}) error }) (*models.MapLayer, error) {
	layer := &models.MapLayer{}
	err := row.Scan(
		&layer.ID,
		&layer.MapID,
		&layer.Name,
		&layer.LayerType,
		&layer.SourceType,
		&layer.Visible,
		&layer.Opacity,
		&layer.ZIndex,
		&layer.Filters,
		&layer.Style,
		&layer.SourceConfig,
		&layer.CreatedAt,
		&layer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return layer, nil
}

// Create inserts a new layer
func (r *LayerRepository) Create(layer *models.MapLayer) error {
	query := `
		INSERT INTO map_layers (
			id, map_id, name, layer_type, source_type, visible, opacity,
			z_index, filters, style, source_config, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	layer.CreatedAt = now
	layer.UpdatedAt = now

	_, err := r.db.Exec(query,
		layer.ID,
		layer.MapID,
		layer.Name,
		layer.LayerType,
		layer.SourceType,
		layer.Visible,
		layer.Opacity,
		layer.ZIndex,
		layer.Filters,
		layer.Style,
		layer.SourceConfig,
		layer.CreatedAt,
		layer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create layer: %w", err)
	}

	return nil
}

// GetByID retrieves a layer by ID
func (r *LayerRepository) GetByID(id string) (*models.MapLayer, error) {
	query := `SELECT ` + layerColumns + ` FROM map_layers WHERE id = ?`

	layer, err := scanLayer(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("layer not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get layer: %w", err)
	}

	return layer, nil
}

// ListByMap retrieves all layers for a map in stacking order
func (r *LayerRepository) ListByMap(mapID string) ([]*models.MapLayer, error) {
	query := `SELECT ` + layerColumns + ` FROM map_layers WHERE map_id = ? ORDER BY z_index ASC`

	rows, err := r.db.Query(query, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to list layers: %w", err)
	}
	defer rows.Close()

	var layers []*models.MapLayer
	for rows.Next() {
		layer, err := scanLayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan layer: %w", err)
		}
		layers = append(layers, layer)
	}

	return layers, nil
}

// UpdateVisibility updates a layer's visible flag
func (r *LayerRepository) UpdateVisibility(id string, visible bool) error {
	query := `UPDATE map_layers SET visible = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.Exec(query, visible, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update layer visibility: %w", err)
	}

	return requireRow(res, "layer", id)
}

// UpdateOpacity updates a layer's opacity
func (r *LayerRepository) UpdateOpacity(id string, opacity float64) error {
	query := `UPDATE map_layers SET opacity = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.Exec(query, opacity, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update layer opacity: %w", err)
	}

	return requireRow(res, "layer", id)
}

// UpdateOrder reassigns z_index values in a single transaction. The payload
// is the explicit {id, z_index} list produced by a reorder.
func (r *LayerRepository) UpdateOrder(order []models.LayerOrder) error {
	return database.TransactionOn(r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		for _, entry := range order {
			res, err := tx.Exec(
				`UPDATE map_layers SET z_index = ?, updated_at = ? WHERE id = ?`,
				entry.ZIndex, now, entry.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update z_index for %s: %w", entry.ID, err)
			}
			if err := requireRow(res, "layer", entry.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a layer
func (r *LayerRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM map_layers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete layer: %w", err)
	}

	return requireRow(res, "layer", id)
}

// requireRow fails when an UPDATE/DELETE touched no rows
func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %s", kind, id)
	}
	return nil
}
