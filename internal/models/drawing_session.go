package models

import "time"

// DrawingSession records a polygon/point capture for a deal boundary or
// trade area. The live state machine is held in memory by the drawing
// service; the row exists for audit and so abandoned sessions can be
// expired by the maintenance sweep.
type DrawingSession struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Mode        string    `json:"mode" db:"mode"`     // boundary, trade-area
	Status      string    `json:"status" db:"status"` // active, completed, cancelled
	Geometry    *Geometry `json:"geometry,omitempty"`
	CenterPoint *LngLat   `json:"center_point,omitempty"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DrawingMode constants
const (
	DrawingModeBoundary  = "boundary"
	DrawingModeTradeArea = "trade-area"
)

// DrawingStatus constants
const (
	DrawingStatusActive    = "active"
	DrawingStatusCompleted = "completed"
	DrawingStatusCancelled = "cancelled"
)

// ValidDrawingMode reports whether m is a known drawing mode
func ValidDrawingMode(m string) bool {
	return m == DrawingModeBoundary || m == DrawingModeTradeArea
}

// IsTerminal returns true if the session can no longer change
func (s *DrawingSession) IsTerminal() bool {
	return s.Status == DrawingStatusCompleted || s.Status == DrawingStatusCancelled
}
