package middle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"routepulse/internals/security"
)

func requestWithClaims(claims *security.RequestClaims) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/admin/retention/prune", nil)
	if claims == nil {
		return req
	}
	ctx := context.WithValue(req.Context(), userCtxKey, claims)
	return req.WithContext(ctx)
}

func TestAllowAdminPassesAdminRole(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	AllowAdmin(next).ServeHTTP(rec, requestWithClaims(&security.RequestClaims{UserID: "u", Role: RoleAdmin}))

	if !called {
		t.Fatal("admin caller must reach the handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

// An ordinary authenticated caller must not reach admin surfaces.
func TestAllowAdminRejectsNonAdminRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	})

	rec := httptest.NewRecorder()
	AllowAdmin(next).ServeHTTP(rec, requestWithClaims(&security.RequestClaims{UserID: "u", Role: ""}))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAllowAdminWithoutClaims(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	})

	rec := httptest.NewRecorder()
	AllowAdmin(next).ServeHTTP(rec, requestWithClaims(nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
