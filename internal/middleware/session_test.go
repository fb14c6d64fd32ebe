package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/monkeystudio/gfx-order-system/internal/model"
)

type stubResolver struct {
	admin *model.Admin
	err   error
}

func (s *stubResolver) CurrentAdmin(ctx context.Context, username string) (*model.Admin, error) {
	return s.admin, s.err
}

func sessionCookie(t *testing.T, m *SessionManager, username string) *http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)

	if err := m.SetAdmin(w, r, username); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no session cookie set")
	}
	return cookies[0]
}

func TestAuthenticate_WithValidSession(t *testing.T) {
	resolver := &stubResolver{admin: &model.Admin{ID: 1, Username: "admin"}}
	m := NewSessionManager("test-secret", resolver)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		admin, ok := AdminFromContext(r.Context())
		if !ok {
			t.Fatalf("admin not in context")
		}
		if admin.Username != "admin" {
			t.Fatalf("admin from context = %q, want %q", admin.Username, "admin")
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(sessionCookie(t, m, "admin"))

	m.Authenticate(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthenticate_WithoutCookie(t *testing.T) {
	m := NewSessionManager("test-secret", &stubResolver{})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	m.Authenticate(next).ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthenticate_DeletedAdminLosesSession(t *testing.T) {
	resolver := &stubResolver{err: errors.New("admin not found")}
	m := NewSessionManager("test-secret", resolver)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(sessionCookie(t, m, "ghost"))

	m.Authenticate(next).ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestClear_InvalidatesSession(t *testing.T) {
	resolver := &stubResolver{admin: &model.Admin{ID: 1, Username: "admin"}}
	m := NewSessionManager("test-secret", resolver)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(sessionCookie(t, m, "admin"))

	if err := m.Clear(w, r); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no cookie written by Clear")
	}
	if cookies[0].MaxAge != -1 {
		t.Fatalf("cleared cookie MaxAge = %d, want -1", cookies[0].MaxAge)
	}
}
