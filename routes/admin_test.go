package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminUsersRBAC(t *testing.T) {
	setupTestDB(t)
	app := buildVerificationTestApp(t)

	// No token -> rejected by the verifier
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	// User role -> 403
	resp2 := doJSON(t, app, http.MethodGet, "/api/admin/users", signAccessToken(t, 1, "user"), nil)
	if resp2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", resp2.Code)
	}

	// Admin role -> 200 (empty list OK)
	resp3 := doJSON(t, app, http.MethodGet, "/api/admin/users", signAccessToken(t, 1, "admin"), nil)
	if resp3.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", resp3.Code)
	}

	// Super admin role -> 200
	resp4 := doJSON(t, app, http.MethodGet, "/api/admin/users", signAccessToken(t, 1, "super_admin"), nil)
	if resp4.Code != http.StatusOK {
		t.Fatalf("expected 200 for super_admin role, got %d", resp4.Code)
	}
}
