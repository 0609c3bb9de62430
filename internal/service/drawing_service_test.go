package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/dealscope/warmap-backend-go/internal/apperr"
	"github.com/dealscope/warmap-backend-go/internal/maplib"
	"github.com/dealscope/warmap-backend-go/internal/models"
)

// fakeDrawingRepo records lifecycle calls and can fail creates
type fakeDrawingRepo struct {
	mu         sync.Mutex
	created    []*models.DrawingSession
	statuses   map[string]string
	geometries map[string]*models.Geometry
	failCreate bool
}

func newFakeDrawingRepo() *fakeDrawingRepo {
	return &fakeDrawingRepo{
		statuses:   make(map[string]string),
		geometries: make(map[string]*models.Geometry),
	}
}

func (f *fakeDrawingRepo) Create(session *models.DrawingSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("disk full")
	}
	f.created = append(f.created, session)
	f.statuses[session.ID] = session.Status
	return nil
}

func (f *fakeDrawingRepo) UpdateGeometry(id string, g *models.Geometry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geometries[id] = g
	return nil
}

func (f *fakeDrawingRepo) UpdateStatus(id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

func (f *fakeDrawingRepo) status(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id]
}

func (f *fakeDrawingRepo) activeIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, status := range f.statuses {
		if status == models.DrawingStatusActive {
			ids = append(ids, id)
		}
	}
	return ids
}

func newDrawingService() (*DrawingService, *fakeDrawingRepo, *maplib.Recorder) {
	repo := newFakeDrawingRepo()
	surface := maplib.NewRecorder()
	return NewDrawingService(repo, surface), repo, surface
}

func TestStartSession_FliesToCenterAtParcelZoom(t *testing.T) {
	s, _, surface := newDrawingService()
	center := models.LngLat{Lng: -96.8, Lat: 32.78}

	session, err := s.StartSession("user-1", models.DrawingModeBoundary, &center)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.Status != models.DrawingStatusActive {
		t.Fatalf("expected active session, got %s", session.Status)
	}

	got, zoom, flights := surface.Camera()
	if flights != 1 {
		t.Fatalf("expected 1 camera move, got %d", flights)
	}
	if got != center || zoom != ParcelZoom {
		t.Fatalf("expected camera at %v zoom %v, got %v zoom %v", center, ParcelZoom, got, zoom)
	}
}

func TestStartSession_RejectsUnknownMode(t *testing.T) {
	s, _, _ := newDrawingService()

	if _, err := s.StartSession("user-1", "freehand", nil); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if s.Session("user-1") != nil {
		t.Fatal("expected no session after rejected start")
	}
}

func TestDrawFinish_ClosesPolygonAndResetsToIdle(t *testing.T) {
	s, repo, _ := newDrawingService()

	if _, err := s.StartSession("user-1", models.DrawingModeBoundary, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	ring := []models.LngLat{
		{Lng: -97.0, Lat: 32.0},
		{Lng: -97.0, Lat: 32.1},
		{Lng: -96.9, Lat: 32.1},
	}
	for _, p := range ring {
		if _, err := s.AddPoint("user-1", p); err != nil {
			t.Fatalf("add point: %v", err)
		}
	}

	done, err := s.Finish("user-1")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	if done.Geometry.Type != models.GeometryPolygon {
		t.Fatalf("expected polygon geometry, got %s", done.Geometry.Type)
	}
	if done.Geometry.VertexCount() != 3 {
		t.Fatalf("expected 3 vertices, got %d", done.Geometry.VertexCount())
	}
	if done.AreaSqm <= 0 {
		t.Fatalf("expected positive area, got %v", done.AreaSqm)
	}
	if done.Centroid == nil {
		t.Fatal("expected a centroid")
	}
	if repo.status(done.Session.ID) != models.DrawingStatusCompleted {
		t.Fatalf("expected completed status recorded, got %s", repo.status(done.Session.ID))
	}

	// Back to idle
	if s.Session("user-1") != nil {
		t.Fatal("expected idle after finish")
	}
}

func TestFinish_RejectsFewerThanThreeVertices(t *testing.T) {
	s, _, _ := newDrawingService()

	s.StartSession("user-1", models.DrawingModeBoundary, nil)
	s.AddPoint("user-1", models.LngLat{Lng: -97, Lat: 32})
	s.AddPoint("user-1", models.LngLat{Lng: -96.9, Lat: 32})

	if _, err := s.Finish("user-1"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error at 2 vertices, got %v", err)
	}

	// Still drawing; a third vertex makes it finishable
	session := s.Session("user-1")
	if session == nil || session.Status != models.DrawingStatusActive {
		t.Fatalf("expected session still active, got %v", session)
	}

	s.AddPoint("user-1", models.LngLat{Lng: -96.9, Lat: 32.1})
	if _, err := s.Finish("user-1"); err != nil {
		t.Fatalf("finish after third vertex: %v", err)
	}
}

func TestStartSession_ImplicitlyCancelsPrevious(t *testing.T) {
	s, repo, _ := newDrawingService()

	first, _ := s.StartSession("user-1", models.DrawingModeBoundary, nil)
	s.AddPoint("user-1", models.LngLat{Lng: -97, Lat: 32})

	second, err := s.StartSession("user-1", models.DrawingModeBoundary, nil)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}

	if repo.status(first.ID) != models.DrawingStatusCancelled {
		t.Fatalf("expected first session cancelled, got %s", repo.status(first.ID))
	}

	// The new session starts with no geometry carried over
	session := s.Session("user-1")
	if session.ID != second.ID {
		t.Fatalf("expected active session %s, got %s", second.ID, session.ID)
	}
	if session.Geometry != nil {
		t.Fatalf("expected fresh geometry, got %v", session.Geometry)
	}
}

func TestStartSession_AcceptsTradeAreaMode(t *testing.T) {
	s, _, _ := newDrawingService()

	session, err := s.StartSession("user-1", "trade-area", nil)
	if err != nil {
		t.Fatalf("start trade-area session: %v", err)
	}
	if session.Mode != models.DrawingModeTradeArea {
		t.Fatalf("expected trade-area mode, got %q", session.Mode)
	}
}

func TestStartSession_ConcurrentStartsLeaveOneActive(t *testing.T) {
	s, repo, _ := newDrawingService()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.StartSession("user-1", models.DrawingModeBoundary, nil); err != nil {
				t.Errorf("start: %v", err)
			}
		}()
	}
	wg.Wait()

	live := s.Session("user-1")
	if live == nil {
		t.Fatal("expected an active session")
	}
	active := repo.activeIDs()
	if len(active) != 1 || active[0] != live.ID {
		t.Fatalf("expected only %s active in the repository, got %v", live.ID, active)
	}
}

func TestCancel_DiscardsGeometryAndReturnsToIdle(t *testing.T) {
	s, repo, _ := newDrawingService()

	session, _ := s.StartSession("user-1", models.DrawingModeBoundary, nil)
	s.AddPoint("user-1", models.LngLat{Lng: -97, Lat: 32})

	if err := s.Cancel("user-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if repo.status(session.ID) != models.DrawingStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", repo.status(session.ID))
	}
	if s.Session("user-1") != nil {
		t.Fatal("expected idle after cancel")
	}
}

func TestCancel_WhenIdleIsNotFound(t *testing.T) {
	s, _, _ := newDrawingService()

	if err := s.Cancel("user-1"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found when idle, got %v", err)
	}
}

func TestAddPoint_WhenIdleIsNotFound(t *testing.T) {
	s, _, _ := newDrawingService()

	if _, err := s.AddPoint("user-1", models.LngLat{}); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found when idle, got %v", err)
	}
}

func TestCompletePoint_SkipsDrawingState(t *testing.T) {
	s, repo, _ := newDrawingService()
	p := models.LngLat{Lng: -96.8, Lat: 32.78}

	done, err := s.CompletePoint("user-1", models.DrawingModeBoundary, p)
	if err != nil {
		t.Fatalf("complete point: %v", err)
	}

	if done.Geometry.Type != models.GeometryPoint {
		t.Fatalf("expected point geometry, got %s", done.Geometry.Type)
	}
	if done.Centroid == nil || *done.Centroid != p {
		t.Fatalf("expected centroid %v, got %v", p, done.Centroid)
	}
	if repo.status(done.Session.ID) != models.DrawingStatusCompleted {
		t.Fatalf("expected completed status, got %s", repo.status(done.Session.ID))
	}
	if s.Session("user-1") != nil {
		t.Fatal("expected no active session after point capture")
	}
}

func TestStartSession_RollsBackWhenPersistFails(t *testing.T) {
	s, repo, _ := newDrawingService()
	repo.failCreate = true

	if _, err := s.StartSession("user-1", models.DrawingModeBoundary, nil); !apperr.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if s.Session("user-1") != nil {
		t.Fatal("expected idle after failed start")
	}
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	s, _, _ := newDrawingService()

	s.StartSession("user-1", models.DrawingModeBoundary, nil)
	s.StartSession("user-2", models.DrawingModeTradeArea, nil)
	s.AddPoint("user-1", models.LngLat{Lng: -97, Lat: 32})

	one := s.Session("user-1")
	two := s.Session("user-2")
	if one.Mode != models.DrawingModeBoundary || two.Mode != models.DrawingModeTradeArea {
		t.Fatalf("expected per-user modes, got %s and %s", one.Mode, two.Mode)
	}
	if two.Geometry != nil {
		t.Fatalf("expected user-2 untouched by user-1 vertices, got %v", two.Geometry)
	}
}
