package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ahub-backend/models"
	"ahub-backend/services"
)

func TestGetBalanceSumsLedger(t *testing.T) {
	db := freshDB()
	router := setupPointsRouter(db)

	member, token := seedMember(db, "balance@test.com", "member", nil)
	creditMember(db, member.ID, 100)
	creditMember(db, member.ID, -30)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/points/balance", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["balance"] != float64(70) {
		t.Errorf("expected balance 70, got %v", resp["balance"])
	}
}

func TestGetBalanceZeroForNewMember(t *testing.T) {
	db := freshDB()
	router := setupPointsRouter(db)

	_, token := seedMember(db, "zero@test.com", "member", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/points/balance", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if parseResponse(w)["balance"] != float64(0) {
		t.Errorf("expected balance 0, got %v", parseResponse(w)["balance"])
	}
}

func TestGetHistoryNewestFirst(t *testing.T) {
	db := freshDB()
	router := setupPointsRouter(db)

	member, token := seedMember(db, "history@test.com", "member", nil)
	creditMember(db, member.ID, 10)
	creditMember(db, member.ID, 20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/points/history", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	entries := parseResponseArray(w)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestAdminAdjustCredit(t *testing.T) {
	db := freshDB()
	router := setupPointsRouter(db)

	member, _ := seedMember(db, "adjustee@test.com", "member", nil)
	_, adminToken := seedMember(db, "adjuster@test.com", "admin", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/points/adjust", map[string]interface{}{
		"member_id":   member.ID,
		"points":      50,
		"description": "goodwill",
	}, adminToken))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["balance"] != float64(50) {
		t.Errorf("expected balance 50, got %v", resp["balance"])
	}

	balance, _ := services.BalanceOf(db, member.ID)
	if balance != 50 {
		t.Errorf("expected ledger balance 50, got %d", balance)
	}
}

// A negative adjustment goes through the same balance check as a purchase:
// an admin cannot overdraw a member.
func TestAdminAdjustDebitInsufficient(t *testing.T) {
	db := freshDB()
	router := setupPointsRouter(db)

	member, _ := seedMember(db, "shallow@test.com", "member", nil)
	creditMember(db, member.ID, 10)
	_, adminToken := seedMember(db, "strict-admin@test.com", "admin", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/points/adjust", map[string]interface{}{
		"member_id": member.ID,
		"points":    -40,
	}, adminToken))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["error"] != "Insufficient balance" {
		t.Errorf("expected 'Insufficient balance', got %v", resp["error"])
	}

	balance, _ := services.BalanceOf(db, member.ID)
	if balance != 10 {
		t.Errorf("expected balance unchanged at 10, got %d", balance)
	}
}

func TestAdminAdjustRequiresAdmin(t *testing.T) {
	db := freshDB()
	router := setupPointsRouter(db)

	member, token := seedMember(db, "sneaky@test.com", "member", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/points/adjust", map[string]interface{}{
		"member_id": member.ID,
		"points":    9999,
	}, token))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMemberCardRoundtrip(t *testing.T) {
	db := freshDB()
	router := setupPointsRouter(db)

	member, token := seedMember(db, "card@test.com", "member", nil)
	creditMember(db, member.ID, 30)
	_, adminToken := seedMember(db, "door-staff@test.com", "admin", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/points/card", nil, token))
	if w.Code != http.StatusOK {
		t.Fatalf("issue card: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	payload := parseResponse(w)["payload"].(string)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/points/verify-card", map[string]interface{}{
		"payload": payload,
	}, adminToken))
	if w.Code != http.StatusOK {
		t.Fatalf("verify card: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["email"] != "card@test.com" {
		t.Errorf("expected card to resolve to member email, got %v", resp["email"])
	}
	if resp["balance"] != float64(30) {
		t.Errorf("expected balance 30, got %v", resp["balance"])
	}
}

func TestVerifyCardRejectsCheckinPayload(t *testing.T) {
	db := freshDB()
	router := setupPointsRouter(db)

	_, adminToken := seedMember(db, "mixup-admin@test.com", "admin", nil)
	event := seedEvent(db, "Wrong Purpose", models.EventStatusActive, 10, false, 1, 0)
	payload := eventQrPayload(db, event.ID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/points/verify-card", map[string]interface{}{
		"payload": payload,
	}, adminToken))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if parseResponse(w)["error"] != "Invalid QR code" {
		t.Errorf("expected 'Invalid QR code', got %v", parseResponse(w)["error"])
	}
}
