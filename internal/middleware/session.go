package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/monkeystudio/gfx-order-system/internal/model"
)

type contextKey string

const adminKey contextKey = "admin"

const (
	sessionName = "gfx_admin"
	usernameKey = "username"
	sessionTTL  = 30 * 24 * time.Hour
)

// AdminResolver resolves a session's username claim to a live admin account.
type AdminResolver interface {
	CurrentAdmin(ctx context.Context, username string) (*model.Admin, error)
}

// SessionManager binds requests to authenticated admin identities. The
// session carries only a username; the account is re-resolved on every
// check, so a deleted admin loses access immediately.
type SessionManager struct {
	store    *sessions.CookieStore
	resolver AdminResolver
}

// NewSessionManager creates a session manager with the given signing secret.
func NewSessionManager(secret string, resolver AdminResolver) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{
		store:    store,
		resolver: resolver,
	}
}

// SetAdmin establishes an authenticated session for the given username.
func (m *SessionManager) SetAdmin(w http.ResponseWriter, r *http.Request, username string) error {
	session, _ := m.store.Get(r, sessionName)
	session.Values[usernameKey] = username
	return session.Save(r, w)
}

// Clear invalidates the session.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, sessionName)
	delete(session.Values, usernameKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Resolve returns the admin account behind the request's session, if any.
func (m *SessionManager) Resolve(r *http.Request) (*model.Admin, bool) {
	session, err := m.store.Get(r, sessionName)
	if err != nil {
		return nil, false
	}

	username, ok := session.Values[usernameKey].(string)
	if !ok || username == "" {
		return nil, false
	}

	admin, err := m.resolver.CurrentAdmin(r.Context(), username)
	if err != nil {
		return nil, false
	}

	return admin, true
}

// Authenticate rejects requests without a valid admin session and puts the
// resolved account into the request context.
func (m *SessionManager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := m.Resolve(r)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), adminKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminFromContext extracts the authenticated admin from the request context.
func AdminFromContext(ctx context.Context) (*model.Admin, bool) {
	admin, ok := ctx.Value(adminKey).(*model.Admin)
	return admin, ok
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
