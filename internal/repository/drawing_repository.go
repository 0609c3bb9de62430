package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dealscope/warmap-backend-go/internal/models"
)

// DrawingRepository persists drawing sessions for audit and expiry
type DrawingRepository struct {
	db *sql.DB
}

// NewDrawingRepository creates a new drawing repository
func NewDrawingRepository(db *sql.DB) *DrawingRepository {
	return &DrawingRepository{db: db}
}

// Create inserts a new drawing session
func (r *DrawingRepository) Create(session *models.DrawingSession) error {
	query := `
		INSERT INTO drawing_sessions (
			id, user_id, mode, status, geometry, center_lng, center_lat,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	geometry, err := marshalGeometry(session.Geometry)
	if err != nil {
		return err
	}

	var lng, lat sql.NullFloat64
	if session.CenterPoint != nil {
		lng = sql.NullFloat64{Float64: session.CenterPoint.Lng, Valid: true}
		lat = sql.NullFloat64{Float64: session.CenterPoint.Lat, Valid: true}
	}

	_, err = r.db.Exec(query,
		session.ID,
		session.UserID,
		session.Mode,
		session.Status,
		geometry,
		lng,
		lat,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create drawing session: %w", err)
	}

	return nil
}

// UpdateGeometry writes the session's current geometry
func (r *DrawingRepository) UpdateGeometry(id string, g *models.Geometry) error {
	geometry, err := marshalGeometry(g)
	if err != nil {
		return err
	}

	res, err := r.db.Exec(
		`UPDATE drawing_sessions SET geometry = ?, updated_at = ? WHERE id = ?`,
		geometry, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update drawing geometry: %w", err)
	}

	return requireRow(res, "drawing session", id)
}

// UpdateStatus moves a session to the given status
func (r *DrawingRepository) UpdateStatus(id, status string) error {
	res, err := r.db.Exec(
		`UPDATE drawing_sessions SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update drawing status: %w", err)
	}

	return requireRow(res, "drawing session", id)
}

// ExpireStale cancels active sessions not touched since the cutoff and
// returns how many were expired
func (r *DrawingRepository) ExpireStale(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(
		`UPDATE drawing_sessions SET status = ?, updated_at = ? WHERE status = ? AND updated_at < ?`,
		models.DrawingStatusCancelled, time.Now().UTC(), models.DrawingStatusActive, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire drawing sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check expired rows: %w", err)
	}

	return n, nil
}

// marshalGeometry converts a geometry to its nullable JSON column value
func marshalGeometry(g *models.Geometry) (sql.NullString, error) {
	if g == nil {
		return sql.NullString{}, nil
	}

	b, err := json.Marshal(g)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal geometry: %w", err)
	}

	return sql.NullString{String: string(b), Valid: true}, nil
}
