package service

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/dealscope/warmap-backend-go/internal/apperr"
	"github.com/dealscope/warmap-backend-go/internal/maplib"
	"github.com/dealscope/warmap-backend-go/internal/models"
	"github.com/dealscope/warmap-backend-go/internal/spatial"
)

// ParcelZoom is the fly-to zoom used when a drawing session opens on a
// geocoded address; close enough to trace a parcel boundary.
const ParcelZoom = 17.0

// DrawingPersister records session lifecycle for audit and expiry. The
// drawing repository implements it.
type DrawingPersister interface {
	Create(session *models.DrawingSession) error
	UpdateGeometry(id string, g *models.Geometry) error
	UpdateStatus(id, status string) error
}

// CompletedDrawing is the result handed to the deal-creation flow
type CompletedDrawing struct {
	Session  *models.DrawingSession `json:"session"`
	Geometry *models.Geometry       `json:"geometry"`
	AreaSqm  float64                `json:"area_sqm,omitempty"`
	Centroid *models.LngLat         `json:"centroid,omitempty"`
}

// DrawingService runs the boundary/trade-area capture state machine:
// idle -> drawing -> complete, with cancel returning to idle from any
// non-idle state. One session per user; starting a new one cancels the old.
type DrawingService struct {
	repo    DrawingPersister
	surface maplib.Surface

	mu       sync.Mutex
	sessions map[string]*models.DrawingSession // active session per user
}

// NewDrawingService creates a new drawing service
func NewDrawingService(repo DrawingPersister, surface maplib.Surface) *DrawingService {
	return &DrawingService{
		repo:     repo,
		surface:  surface,
		sessions: make(map[string]*models.DrawingSession),
	}
}

// StartSession enters the drawing state. An active session for the user is
// implicitly cancelled, discarding its geometry. When a center point is
// supplied the camera flies there at parcel zoom.
func (s *DrawingService) StartSession(userID, mode string, center *models.LngLat) (*models.DrawingSession, error) {
	if !models.ValidDrawingMode(mode) {
		return nil, apperr.Validationf("mode", "unknown drawing mode %q", mode)
	}

	session := &models.DrawingSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		Mode:        mode,
		Status:      models.DrawingStatusActive,
		CenterPoint: center,
	}

	// The lock spans the swap and both persistence calls: concurrent starts
	// for one user serialize, so at most one row is ever left active.
	s.mu.Lock()
	if prev, ok := s.sessions[userID]; ok {
		log.Printf("Implicitly cancelling drawing session %s for user %s", prev.ID, userID)
		if err := s.repo.UpdateStatus(prev.ID, models.DrawingStatusCancelled); err != nil {
			log.Printf("Failed to record cancelled session %s: %v", prev.ID, err)
		}
	}
	s.sessions[userID] = session

	if err := s.repo.Create(session); err != nil {
		// The previous session stays cancelled; the user returns to idle
		delete(s.sessions, userID)
		s.mu.Unlock()
		return nil, apperr.Persistence("start drawing session", err)
	}
	s.mu.Unlock()

	// Presentation side effect only; state is unchanged by the camera move
	if center != nil {
		s.surface.FlyTo(*center, ParcelZoom)
	}

	return cloneSession(session), nil
}

// AddPoint appends a vertex to the in-progress polygon
func (s *DrawingService) AddPoint(userID string, p models.LngLat) (*models.DrawingSession, error) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	if !ok {
		s.mu.Unlock()
		return nil, apperr.NotFound("drawing session", userID)
	}

	if session.Geometry == nil {
		session.Geometry = models.NewPolygon(nil)
	}
	session.Geometry.Ring = append(session.Geometry.Ring, p)
	geometry := *session.Geometry
	id := session.ID
	s.mu.Unlock()

	if err := s.repo.UpdateGeometry(id, &geometry); err != nil {
		log.Printf("Failed to persist drawing geometry for %s: %v", id, err)
	}

	return s.Session(userID), nil
}

// Finish closes the polygon and completes the session. A polygon needs at
// least 3 vertices; the session then resets to idle and the geometry is
// handed to the caller.
func (s *DrawingService) Finish(userID string) (*CompletedDrawing, error) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	if !ok {
		s.mu.Unlock()
		return nil, apperr.NotFound("drawing session", userID)
	}

	if session.Geometry == nil || session.Geometry.VertexCount() < 3 {
		count := session.Geometry.VertexCount()
		s.mu.Unlock()
		return nil, apperr.Validationf("geometry", "polygon needs at least 3 vertices, has %d", count)
	}

	session.Status = models.DrawingStatusCompleted
	delete(s.sessions, userID)
	s.mu.Unlock()

	if err := s.repo.UpdateGeometry(session.ID, session.Geometry); err != nil {
		log.Printf("Failed to persist final geometry for %s: %v", session.ID, err)
	}
	if err := s.repo.UpdateStatus(session.ID, models.DrawingStatusCompleted); err != nil {
		log.Printf("Failed to record completed session %s: %v", session.ID, err)
	}

	centroid := spatial.RingCentroid(session.Geometry.Ring)
	return &CompletedDrawing{
		Session:  cloneSession(session),
		Geometry: session.Geometry,
		AreaSqm:  spatial.RingAreaSqm(session.Geometry.Ring),
		Centroid: &centroid,
	}, nil
}

// CompletePoint produces an immediately-complete session with a Point
// geometry; the existing-property flow skips drawing entirely. Any active
// session is implicitly cancelled first.
func (s *DrawingService) CompletePoint(userID, mode string, p models.LngLat) (*CompletedDrawing, error) {
	if !models.ValidDrawingMode(mode) {
		return nil, apperr.Validationf("mode", "unknown drawing mode %q", mode)
	}

	s.mu.Lock()
	if prev, ok := s.sessions[userID]; ok {
		delete(s.sessions, userID)
		log.Printf("Implicitly cancelling drawing session %s for user %s", prev.ID, userID)
		if err := s.repo.UpdateStatus(prev.ID, models.DrawingStatusCancelled); err != nil {
			log.Printf("Failed to record cancelled session %s: %v", prev.ID, err)
		}
	}
	s.mu.Unlock()

	session := &models.DrawingSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		Mode:        mode,
		Status:      models.DrawingStatusCompleted,
		Geometry:    models.NewPoint(p.Lng, p.Lat),
		CenterPoint: &p,
	}

	if err := s.repo.Create(session); err != nil {
		return nil, apperr.Persistence("record point capture", err)
	}

	return &CompletedDrawing{
		Session:  cloneSession(session),
		Geometry: session.Geometry,
		Centroid: &p,
	}, nil
}

// Cancel discards the active session's geometry and returns to idle. The
// caller clears any drawn primitives from the surface.
func (s *DrawingService) Cancel(userID string) error {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	if !ok {
		s.mu.Unlock()
		return apperr.NotFound("drawing session", userID)
	}
	delete(s.sessions, userID)
	s.mu.Unlock()

	if err := s.repo.UpdateStatus(session.ID, models.DrawingStatusCancelled); err != nil {
		log.Printf("Failed to record cancelled session %s: %v", session.ID, err)
	}
	return nil
}

// Session returns a copy of the user's active session, or nil when idle
func (s *DrawingService) Session(userID string) *models.DrawingSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	return cloneSession(session)
}

// cloneSession copies a session so callers cannot mutate live state
func cloneSession(session *models.DrawingSession) *models.DrawingSession {
	c := *session
	if session.Geometry != nil {
		g := *session.Geometry
		g.Ring = append([]models.LngLat(nil), session.Geometry.Ring...)
		c.Geometry = &g
	}
	if session.CenterPoint != nil {
		p := *session.CenterPoint
		c.CenterPoint = &p
	}
	return &c
}
