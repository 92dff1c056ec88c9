//go:build !integration

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthManager_WithPrincipal(t *testing.T) {
	auth := NewAuthManager("test-secret", false, "", time.Hour)

	t.Run("should attach the principal from a bearer token", func(t *testing.T) {
		// Arrange
		rec := httptest.NewRecorder()
		token, err := auth.Mint(rec, "u-1", "staff")
		if err != nil {
			t.Fatalf("mint: %v", err)
		}

		var got Principal
		var found bool
		h := auth.WithPrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, found = principalFrom(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		// Act
		h.ServeHTTP(httptest.NewRecorder(), req)

		// Assert
		if !found {
			t.Fatal("principal not attached")
		}
		if got.UserID != "u-1" || got.Role != "staff" {
			t.Errorf("principal = %+v", got)
		}
	})

	t.Run("should pass anonymous requests through without a principal", func(t *testing.T) {
		var found bool
		h := auth.WithPrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, found = principalFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if found {
			t.Error("anonymous request should carry no principal")
		}
	})

	t.Run("should ignore a token signed with another secret", func(t *testing.T) {
		other := NewAuthManager("other-secret", false, "", time.Hour)
		token, _ := other.Mint(httptest.NewRecorder(), "u-1", "admin")

		var found bool
		h := auth.WithPrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, found = principalFrom(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(httptest.NewRecorder(), req)

		if found {
			t.Error("forged token should not attach a principal")
		}
	})
}

func TestRequireRole(t *testing.T) {
	auth := NewAuthManager("test-secret", false, "", time.Hour)

	serve := func(role string) int {
		h := auth.WithPrincipal(RequireRole("staff")(okHandler()))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if role != "" {
			token, _ := auth.Mint(httptest.NewRecorder(), "u-1", role)
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("should return 401 without a principal", func(t *testing.T) {
		if got := serve(""); got != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", got)
		}
	})

	t.Run("should return 403 for the wrong role", func(t *testing.T) {
		if got := serve("customer"); got != http.StatusForbidden {
			t.Errorf("status = %d, want 403", got)
		}
	})

	t.Run("should pass the allowed role", func(t *testing.T) {
		if got := serve("staff"); got != http.StatusOK {
			t.Errorf("status = %d, want 200", got)
		}
	})

	t.Run("should always pass admin", func(t *testing.T) {
		if got := serve("admin"); got != http.StatusOK {
			t.Errorf("status = %d, want 200", got)
		}
	})
}
