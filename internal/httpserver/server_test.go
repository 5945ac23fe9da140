package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fitcoach/diet-hub/internal/config"
)

func testServer() *Server {
	return New(&config.Config{Port: 8080, AuthMode: "none"})
}

func TestHealthz(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status=ok, got %s", resp["status"])
	}
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestListClientsSeedsDefault(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/clients", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Clients []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"clients"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Clients) != 1 {
		t.Fatalf("expected one seeded client, got %d", len(resp.Clients))
	}
}

func TestTrackerRouteRequiresClientID(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/diet-tracker", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestDevAuthRouteOnlyInDevMode(t *testing.T) {
	noneSrv := testServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil)
	w := httptest.NewRecorder()
	noneSrv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("AUTH_MODE=none: expected 404 for dev auth, got %d", w.Code)
	}

	devSrv := New(&config.Config{Port: 8080, AuthMode: "dev", JWTSecret: "s", JWTIssuer: "i", JWTTTLMinutes: 60})
	w = httptest.NewRecorder()
	devSrv.mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil))
	if w.Code != http.StatusOK {
		t.Errorf("AUTH_MODE=dev: expected 200 for dev auth, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "access_token") {
		t.Errorf("expected token response, got: %s", w.Body.String())
	}
}

func TestProgressRouteRequiresAssignmentID(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/diet-progress", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}
