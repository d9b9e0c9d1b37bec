package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ahub-backend/models"

	"github.com/google/uuid"
)

func TestGetEventsHidesDrafts(t *testing.T) {
	db := freshDB()
	router := setupEventRouter(db)

	seedEvent(db, "Public Event", models.EventStatusActive, 10, false, 1, 0)
	seedEvent(db, "Secret Draft", models.EventStatusDraft, 10, false, 1, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/events", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	events := parseResponseArray(w)
	if len(events) != 1 {
		t.Fatalf("expected 1 visible event, got %d", len(events))
	}
	first := events[0].(map[string]interface{})
	if first["name"] != "Public Event" {
		t.Errorf("expected 'Public Event', got %v", first["name"])
	}
}

func TestCreateEventValidatesWindowAndClampsRotation(t *testing.T) {
	db := freshDB()
	router := setupEventRouter(db)

	_, adminToken := seedMember(db, "event-admin@test.com", "admin", nil)

	// end before start
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/events", map[string]interface{}{
		"name":     "Backwards",
		"start_at": time.Now().Add(2 * time.Hour),
		"end_at":   time.Now().Add(time.Hour),
	}, adminToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("backwards window: expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// rotation above the maximum gets clamped
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/events", map[string]interface{}{
		"name":                "Slow Display",
		"start_at":            time.Now().Add(time.Hour),
		"end_at":              time.Now().Add(2 * time.Hour),
		"total_points":        50,
		"qr_rotation_seconds": 9999,
	}, adminToken))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["qr_rotation_seconds"] != float64(models.MaxQrRotationSeconds) {
		t.Errorf("expected clamped rotation %d, got %v", models.MaxQrRotationSeconds, resp["qr_rotation_seconds"])
	}
	if resp["status"] != "draft" {
		t.Errorf("expected new event in draft, got %v", resp["status"])
	}
}

func TestUpdateEventStatusTransitions(t *testing.T) {
	db := freshDB()
	router := setupEventRouter(db)

	_, adminToken := seedMember(db, "lifecycle-admin@test.com", "admin", nil)
	event := seedEvent(db, "Lifecycle", models.EventStatusDraft, 10, false, 1, 0)

	// draft -> active
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("PUT", "/api/admin/events/"+event.ID.String()+"/status", map[string]interface{}{
		"status": "active",
	}, adminToken))
	if w.Code != http.StatusOK {
		t.Fatalf("activate: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// active -> completed
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("PUT", "/api/admin/events/"+event.ID.String()+"/status", map[string]interface{}{
		"status": "completed",
	}, adminToken))
	if w.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// completed is terminal
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("PUT", "/api/admin/events/"+event.ID.String()+"/status", map[string]interface{}{
		"status": "active",
	}, adminToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("reopen: expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

// Polling the display endpoint within one rotation window returns the same
// payload; only an elapsed window yields a new one.
func TestGetEventQrStableWithinWindow(t *testing.T) {
	db := freshDB()
	router := setupEventRouter(db)

	_, adminToken := seedMember(db, "qr-admin@test.com", "admin", nil)
	event := seedEvent(db, "QR Event", models.EventStatusActive, 10, false, 1, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/admin/events/"+event.ID.String()+"/qr", nil, adminToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	first := parseResponse(w)
	if first["payload"] == nil || first["payload"] == "" {
		t.Fatal("expected a payload")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/admin/events/"+event.ID.String()+"/qr", nil, adminToken))
	second := parseResponse(w)

	if first["payload"] != second["payload"] {
		t.Errorf("expected stable payload within rotation window")
	}
}

func TestGetEventQrRequiresActiveEvent(t *testing.T) {
	db := freshDB()
	router := setupEventRouter(db)

	_, adminToken := seedMember(db, "draft-qr-admin@test.com", "admin", nil)
	event := seedEvent(db, "Draft Event", models.EventStatusDraft, 10, false, 1, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/admin/events/"+event.ID.String()+"/qr", nil, adminToken))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetEventStats(t *testing.T) {
	db := freshDB()
	router := setupEventRouter(db)

	_, adminToken := seedMember(db, "stats-admin@test.com", "admin", nil)
	event := seedEvent(db, "Stats Event", models.EventStatusActive, 90, true, 3, 0)

	memberA, _ := seedMember(db, "stats-a@test.com", "member", nil)
	memberB, _ := seedMember(db, "stats-b@test.com", "member", nil)

	for _, mid := range []uuid.UUID{memberA.ID, memberA.ID, memberB.ID} {
		db.Create(&models.CheckIn{
			ID:            uuid.New(),
			EventID:       event.ID,
			MemberID:      mid,
			PointsAwarded: 30,
		})
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/admin/events/"+event.ID.String()+"/stats", nil, adminToken))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["total_checkins"] != float64(3) {
		t.Errorf("expected 3 check-ins, got %v", resp["total_checkins"])
	}
	if resp["unique_members"] != float64(2) {
		t.Errorf("expected 2 unique members, got %v", resp["unique_members"])
	}
	if resp["points_awarded"] != float64(90) {
		t.Errorf("expected 90 points awarded, got %v", resp["points_awarded"])
	}
}

func TestDeleteEventRequiresAdmin(t *testing.T) {
	db := freshDB()
	router := setupEventRouter(db)

	_, token := seedMember(db, "not-admin@test.com", "member", nil)
	event := seedEvent(db, "Protected", models.EventStatusDraft, 10, false, 1, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("DELETE", "/api/admin/events/"+event.ID.String(), nil, token))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", w.Code, w.Body.String())
	}
}
