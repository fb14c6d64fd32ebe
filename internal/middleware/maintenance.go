package middleware

import (
	"context"
	"net/http"
)

// MaintenanceChecker reads the global maintenance flag.
type MaintenanceChecker interface {
	GetMaintenanceMode(ctx context.Context) (bool, error)
}

// Maintenance refuses non-admin traffic while maintenance mode is on. The
// flag is read from the backing store on every request, so flipping it takes
// effect across all server instances at once. Authenticated admins bypass
// the gate entirely. A checker error lets the request through; the gated
// operation will surface the store failure itself.
func Maintenance(checker MaintenanceChecker, sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			enabled, err := checker.GetMaintenanceMode(r.Context())
			if err != nil || !enabled {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := sessions.Resolve(r); ok {
				next.ServeHTTP(w, r)
				return
			}

			writeMessage(w, http.StatusServiceUnavailable, "Site is under maintenance")
		})
	}
}
