package database

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the compiled-in migration list, applied in version order.
// Versions already recorded in the migrations table are skipped.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "001_create_map_layers",
		SQL: `
			CREATE TABLE IF NOT EXISTS map_layers (
				id TEXT PRIMARY KEY,
				map_id TEXT NOT NULL,
				name TEXT NOT NULL,
				layer_type TEXT NOT NULL,
				source_type TEXT NOT NULL,
				visible INTEGER NOT NULL DEFAULT 1,
				opacity REAL NOT NULL DEFAULT 1.0,
				z_index INTEGER NOT NULL DEFAULT 0,
				filters TEXT NOT NULL DEFAULT '{}',
				style TEXT NOT NULL DEFAULT '{}',
				source_config TEXT NOT NULL DEFAULT '{}',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_map_layers_map_id ON map_layers(map_id);
		`,
	},
	{
		Version: 2,
		Name:    "002_create_map_configurations",
		SQL: `
			CREATE TABLE IF NOT EXISTS map_configurations (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				name TEXT NOT NULL,
				icon TEXT NOT NULL DEFAULT '',
				config_type TEXT NOT NULL DEFAULT 'war_map',
				is_default INTEGER NOT NULL DEFAULT 0,
				is_public INTEGER NOT NULL DEFAULT 0,
				layer_config TEXT NOT NULL DEFAULT '[]',
				center_lng REAL NOT NULL DEFAULT 0,
				center_lat REAL NOT NULL DEFAULT 0,
				map_zoom REAL NOT NULL DEFAULT 10,
				view_count INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_map_configurations_user_id ON map_configurations(user_id);
		`,
	},
	{
		Version: 3,
		Name:    "003_create_drawing_sessions",
		SQL: `
			CREATE TABLE IF NOT EXISTS drawing_sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				mode TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				geometry TEXT,
				center_lng REAL,
				center_lat REAL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_drawing_sessions_user_id ON drawing_sessions(user_id);
			CREATE INDEX IF NOT EXISTS idx_drawing_sessions_status ON drawing_sessions(status);
		`,
	},
	{
		Version: 4,
		Name:    "004_create_source_tables",
		SQL: `
			CREATE TABLE IF NOT EXISTS assets (
				id TEXT PRIMARY KEY,
				map_id TEXT NOT NULL,
				name TEXT NOT NULL,
				lat REAL NOT NULL,
				lng REAL NOT NULL,
				icon TEXT NOT NULL DEFAULT '',
				popup TEXT NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_assets_map_id ON assets(map_id);

			CREATE TABLE IF NOT EXISTS pipeline_deals (
				id TEXT PRIMARY KEY,
				map_id TEXT NOT NULL,
				name TEXT NOT NULL,
				stage TEXT NOT NULL DEFAULT '',
				lat REAL NOT NULL,
				lng REAL NOT NULL,
				popup TEXT NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_pipeline_deals_map_id ON pipeline_deals(map_id);

			CREATE TABLE IF NOT EXISTS email_locations (
				id TEXT PRIMARY KEY,
				map_id TEXT NOT NULL,
				subject TEXT NOT NULL DEFAULT '',
				lat REAL NOT NULL,
				lng REAL NOT NULL,
				popup TEXT NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_email_locations_map_id ON email_locations(map_id);

			CREATE TABLE IF NOT EXISTS news_events (
				id TEXT PRIMARY KEY,
				map_id TEXT NOT NULL,
				headline TEXT NOT NULL DEFAULT '',
				lat REAL NOT NULL,
				lng REAL NOT NULL,
				popup TEXT NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_news_events_map_id ON news_events(map_id);

			CREATE TABLE IF NOT EXISTS market_metrics (
				id TEXT PRIMARY KEY,
				map_id TEXT NOT NULL,
				label TEXT NOT NULL DEFAULT '',
				lat REAL NOT NULL,
				lng REAL NOT NULL,
				value REAL NOT NULL DEFAULT 0,
				popup TEXT NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_market_metrics_map_id ON market_metrics(map_id);

			CREATE TABLE IF NOT EXISTS custom_pins (
				id TEXT PRIMARY KEY,
				map_id TEXT NOT NULL,
				label TEXT NOT NULL DEFAULT '',
				lat REAL NOT NULL,
				lng REAL NOT NULL,
				color TEXT NOT NULL DEFAULT '',
				icon TEXT NOT NULL DEFAULT '',
				popup TEXT NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_custom_pins_map_id ON custom_pins(map_id);
		`,
	},
}

// InitMigrationsTable creates the migrations tracking table
func InitMigrationsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns the set of applied migration versions
func GetAppliedMigrations(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, nil
}

// applyMigration applies a single migration inside a transaction
func applyMigration(db *sql.DB, migration Migration) error {
	return TransactionOn(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(migration.SQL); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", migration.Version, migration.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		return nil
	})
}

// RunMigrations applies all pending migrations
func RunMigrations(db *sql.DB) error {
	if err := InitMigrationsTable(db); err != nil {
		return err
	}

	applied, err := GetAppliedMigrations(db)
	if err != nil {
		return err
	}

	pending := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if !applied[m.Version] {
			pending = append(pending, m)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Version < pending[j].Version
	})

	for _, m := range pending {
		if err := applyMigration(db, m); err != nil {
			return err
		}
		log.Printf("Applied migration %d: %s", m.Version, m.Name)
	}

	return nil
}
