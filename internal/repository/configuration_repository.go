package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dealscope/warmap-backend-go/internal/database"
	"github.com/dealscope/warmap-backend-go/internal/models"
)

// ConfigurationRepository handles database operations for map configurations
type ConfigurationRepository struct {
	db *sql.DB
}

// NewConfigurationRepository creates a new configuration repository
func NewConfigurationRepository(db *sql.DB) *ConfigurationRepository {
	return &ConfigurationRepository{db: db}
}

const configColumns = `id, user_id, name, icon, config_type, is_default, is_public,
	   layer_config, center_lng, center_lat, map_zoom, view_count, created_at, updated_at`

// scanConfiguration scans a single configuration row
func scanConfiguration(row interface{ Scan(...interface{}) error }) (*models.MapConfiguration, error) {
	cfg := &models.MapConfiguration{}
	err := row.Scan(
		&cfg.ID,
		&cfg.UserID,
		&cfg.Name,
		&cfg.Icon,
		&cfg.ConfigType,
		&cfg.IsDefault,
		&cfg.IsPublic,
		&cfg.LayerConfig,
		&cfg.MapCenter.Lng,
		&cfg.MapCenter.Lat,
		&cfg.MapZoom,
		&cfg.ViewCount,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Create inserts a new configuration
func (r *ConfigurationRepository) Create(cfg *models.MapConfiguration) error {
	query := `
		INSERT INTO map_configurations (
			id, user_id, name, icon, config_type, is_default, is_public,
			layer_config, center_lng, center_lat, map_zoom, view_count,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	_, err := r.db.Exec(query,
		cfg.ID,
		cfg.UserID,
		cfg.Name,
		cfg.Icon,
		cfg.ConfigType,
		cfg.IsDefault,
		cfg.IsPublic,
		cfg.LayerConfig,
		cfg.MapCenter.Lng,
		cfg.MapCenter.Lat,
		cfg.MapZoom,
		cfg.ViewCount,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create configuration: %w", err)
	}

	return nil
}

// GetByID retrieves a configuration by ID
func (r *ConfigurationRepository) GetByID(id string) (*models.MapConfiguration, error) {
	query := `SELECT ` + configColumns + ` FROM map_configurations WHERE id = ?`

	cfg, err := scanConfiguration(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("configuration not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	return cfg, nil
}

// ListByUser retrieves a user's configurations in creation order, optionally
// filtered by config type. Public configurations from other users are not
// included here.
func (r *ConfigurationRepository) ListByUser(userID, configType string) ([]*models.MapConfiguration, error) {
	query := `SELECT ` + configColumns + ` FROM map_configurations WHERE user_id = ?`

	args := []interface{}{userID}
	if configType != "" {
		query += " AND config_type = ?"
		args = append(args, configType)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list configurations: %w", err)
	}
	defer rows.Close()

	var configs []*models.MapConfiguration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan configuration: %w", err)
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

// GetDefault retrieves the user's default configuration, or nil when none
// is set
func (r *ConfigurationRepository) GetDefault(userID string) (*models.MapConfiguration, error) {
	query := `SELECT ` + configColumns + ` FROM map_configurations WHERE user_id = ? AND is_default = 1`

	cfg, err := scanConfiguration(r.db.QueryRow(query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default configuration: %w", err)
	}

	return cfg, nil
}

// SetDefault makes the given configuration the user's single default. The
// previous holder is cleared in the same transaction, so no observable state
// has zero or two defaults.
func (r *ConfigurationRepository) SetDefault(userID, id string) error {
	return database.TransactionOn(r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()

		if _, err := tx.Exec(
			`UPDATE map_configurations SET is_default = 0, updated_at = ? WHERE user_id = ? AND is_default = 1`,
			now, userID,
		); err != nil {
			return fmt.Errorf("failed to clear previous default: %w", err)
		}

		res, err := tx.Exec(
			`UPDATE map_configurations SET is_default = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
			now, id, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to set default: %w", err)
		}
		return requireRow(res, "configuration", id)
	})
}

// Update writes the mutable fields of a configuration
func (r *ConfigurationRepository) Update(cfg *models.MapConfiguration) error {
	query := `
		UPDATE map_configurations
		SET name = ?, icon = ?, is_public = ?, layer_config = ?,
			center_lng = ?, center_lat = ?, map_zoom = ?, updated_at = ?
		WHERE id = ?
	`

	cfg.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(query,
		cfg.Name,
		cfg.Icon,
		cfg.IsPublic,
		cfg.LayerConfig,
		cfg.MapCenter.Lng,
		cfg.MapCenter.Lat,
		cfg.MapZoom,
		cfg.UpdatedAt,
		cfg.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update configuration: %w", err)
	}

	return requireRow(res, "configuration", cfg.ID)
}

// Delete removes a configuration
func (r *ConfigurationRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM map_configurations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete configuration: %w", err)
	}

	return requireRow(res, "configuration", id)
}

// IncrementViewCount adds delta views to a configuration. Used by the
// maintenance sweep to flush buffered counts.
func (r *ConfigurationRepository) IncrementViewCount(id string, delta int64) error {
	if delta <= 0 {
		return nil
	}

	_, err := r.db.Exec(
		`UPDATE map_configurations SET view_count = view_count + ? WHERE id = ?`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}

	return nil
}
