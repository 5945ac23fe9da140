package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitcoach/diet-hub/internal/config"
	"github.com/fitcoach/diet-hub/internal/userctx"
)

func testConfig(required bool) *config.Config {
	return &config.Config{
		AuthRequired:  required,
		JWTSecret:     "test-secret",
		JWTIssuer:     "diet-hub",
		JWTTTLMinutes: 60,
	}
}

func okHandler(gotUser *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotUser != nil {
			*gotUser = userctx.OwnerID(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	cfg := testConfig(true)
	mw := NewMiddleware(cfg, NewService(cfg))

	req := httptest.NewRequest(http.MethodGet, "/v1/diet-tracker", nil)
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthAcceptsIssuedToken(t *testing.T) {
	cfg := testConfig(true)
	svc := NewService(cfg)
	mw := NewMiddleware(cfg, svc)

	resp, err := svc.SignInDev()
	if err != nil {
		t.Fatalf("SignInDev: %v", err)
	}

	var gotUser string
	req := httptest.NewRequest(http.MethodGet, "/v1/diet-tracker", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(&gotUser)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser != "dev-user" {
		t.Errorf("user in context = %q, want dev-user", gotUser)
	}
}

func TestRequireAuthDisabledPassesThrough(t *testing.T) {
	cfg := testConfig(false)
	mw := NewMiddleware(cfg, NewService(cfg))

	req := httptest.NewRequest(http.MethodGet, "/v1/diet-tracker", nil)
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuthPublicPaths(t *testing.T) {
	cfg := testConfig(true)
	mw := NewMiddleware(cfg, NewService(cfg))

	for _, path := range []string{"/healthz", "/v1/auth/dev"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler(nil)).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestOptionalAuthRejectsGarbageToken(t *testing.T) {
	cfg := testConfig(false)
	mw := NewMiddleware(cfg, NewService(cfg))

	req := httptest.NewRequest(http.MethodGet, "/v1/diet-tracker", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	mw.OptionalAuth(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestVerifyJWTWrongSecret(t *testing.T) {
	cfg := testConfig(true)
	svc := NewService(cfg)

	resp, err := svc.SignInDev()
	if err != nil {
		t.Fatalf("SignInDev: %v", err)
	}

	other := testConfig(true)
	other.JWTSecret = "different-secret"
	if _, err := NewService(other).VerifyJWT(resp.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
